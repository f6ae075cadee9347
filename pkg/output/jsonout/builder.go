// Package jsonout writes exported cards as a pretty-printed JSON array.
package jsonout

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/duoload/pkg/output"
	"github.com/Sternrassler/duoload/pkg/vocab"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Record is the JSON form of one card.
type Record struct {
	Word           string               `json:"word"`
	Translation    string               `json:"translation"`
	Example        *string              `json:"example"`
	LearningStatus vocab.LearningStatus `json:"learning_status"`
}

// NewRecord converts a card. A card without example gets "example": null.
func NewRecord(c vocab.Card) Record {
	r := Record{
		Word:           c.Word,
		Translation:    c.Translation,
		LearningStatus: c.Status,
	}
	if c.HasExample() {
		example := c.Example
		r.Example = &example
	}
	return r
}

// Builder accumulates cards in arrival order and writes them on Finalize.
// It supports file and stream destinations.
type Builder struct {
	records []Record
	words   map[string]struct{}
	logger  zerolog.Logger
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{
		records: make([]Record, 0),
		words:   make(map[string]struct{}),
		logger:  log.With().Str("component", "json-output").Logger(),
	}
}

// Add appends card unless a card with the same word was already added.
func (b *Builder) Add(card vocab.Card) (bool, error) {
	if _, ok := b.words[card.Word]; ok {
		return false, nil
	}
	b.words[card.Word] = struct{}{}
	b.records = append(b.records, NewRecord(card))
	return true, nil
}

// Len returns the number of accepted cards.
func (b *Builder) Len() int {
	return len(b.records)
}

// Finalize writes the JSON array to dest.
func (b *Builder) Finalize(ctx context.Context, dest output.Destination) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch dest.Kind {
	case output.KindFile:
		if err := b.writeFile(dest.Path); err != nil {
			return err
		}
	case output.KindStream:
		if dest.Writer == nil {
			return fmt.Errorf("stream destination has no writer")
		}
		if err := b.Write(dest.Writer); err != nil {
			return err
		}
	default:
		return output.Unsupported("json", dest)
	}

	b.logger.Info().
		Str("destination", dest.String()).
		Int("cards", len(b.records)).
		Msg("JSON written")
	return nil
}

// Write encodes every accepted card to w. An empty builder writes "[]".
func (b *Builder) Write(w io.Writer) error {
	data, err := json.MarshalIndent(b.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func (b *Builder) writeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := b.Write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
