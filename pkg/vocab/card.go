// Package vocab defines the vocabulary card exported from a Duocards deck.
package vocab

import (
	"fmt"
	"strings"
)

// LearningStatus is how far the learner has progressed with a card.
type LearningStatus int

const (
	// StatusNew is a card that has never been answered correctly.
	StatusNew LearningStatus = iota

	// StatusLearning is a card answered correctly at least once.
	StatusLearning

	// StatusKnown is a card answered correctly KnownThreshold times or more.
	StatusKnown
)

// KnownThreshold is the knownCount at which Duocards treats a card as known.
const KnownThreshold = 5

// StatusFromKnownCount maps the remote knownCount to a LearningStatus.
func StatusFromKnownCount(knownCount int) LearningStatus {
	switch {
	case knownCount >= KnownThreshold:
		return StatusKnown
	case knownCount > 0:
		return StatusLearning
	default:
		return StatusNew
	}
}

// String returns the lowercase status name.
func (s LearningStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusLearning:
		return "learning"
	case StatusKnown:
		return "known"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s LearningStatus) MarshalText() ([]byte, error) {
	switch s {
	case StatusNew, StatusLearning, StatusKnown:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown learning status %d", int(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *LearningStatus) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "new":
		*s = StatusNew
	case "learning":
		*s = StatusLearning
	case "known":
		*s = StatusKnown
	default:
		return fmt.Errorf("unknown learning status %q", string(text))
	}
	return nil
}

// Card is one flashcard. Word is the deduplication key.
type Card struct {
	Word        string
	Translation string
	// Example is empty when the card has no usage example.
	Example string
	Status  LearningStatus
}

// HasExample reports whether the card carries a usage example.
func (c Card) HasExample() bool {
	return c.Example != ""
}
