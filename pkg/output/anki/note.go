package anki

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sternrassler/duoload/pkg/vocab"
	"github.com/google/uuid"
)

const fieldSeparator = "\x1f"

// guidNamespace seeds note GUIDs so the same word always maps to the same
// note and re-importing a deck updates instead of duplicating.
var guidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Sternrassler/duoload/anki-note"))

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// Note is one Anki note.
type Note struct {
	GUID   string
	Fields []string
	Tags   []string
}

// StatusTag returns the tag carrying a card's learning status.
func StatusTag(s vocab.LearningStatus) string {
	return "duoload_" + s.String()
}

// NewNote converts a card. The Example field is empty when the card has none.
func NewNote(card vocab.Card) Note {
	return Note{
		GUID:   uuid.NewSHA1(guidNamespace, []byte(card.Word)).String(),
		Fields: []string{card.Word, card.Translation, card.Example},
		Tags:   []string{StatusTag(card.Status)},
	}
}

// joinedFields is the flds column.
func (n Note) joinedFields() string {
	return strings.Join(n.Fields, fieldSeparator)
}

// sortField is the sfld column: the first field without markup.
func (n Note) sortField() string {
	if len(n.Fields) == 0 {
		return ""
	}
	return stripHTML(n.Fields[0])
}

// tagString is the tags column, space separated with surrounding spaces.
func (n Note) tagString() string {
	if len(n.Tags) == 0 {
		return ""
	}
	return " " + strings.Join(n.Tags, " ") + " "
}

// checksum is the csum column: the first 8 hex digits of the sha1 of the
// sort field, as an integer.
func (n Note) checksum() int64 {
	sum := sha1.Sum([]byte(n.sortField()))
	v, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return v
}

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}
