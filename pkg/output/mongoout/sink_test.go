package mongoout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/duoload/pkg/output"
	"github.com/Sternrassler/duoload/pkg/vocab"
)

func TestSink_Add(t *testing.T) {
	s := New(nil)

	added, err := s.Add(vocab.Card{Word: "hello"})
	if err != nil || !added {
		t.Fatalf("Add(hello) = (%v, %v), want (true, nil)", added, err)
	}
	added, err = s.Add(vocab.Card{Word: "hello", Translation: "other"})
	if err != nil || added {
		t.Errorf("Add(hello) again = (%v, %v), want (false, nil)", added, err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSink_FinalizeUnsupported(t *testing.T) {
	tests := []struct {
		name string
		dest output.Destination
	}{
		{"file", output.File("out.json")},
		{"stream", output.Stream(&bytes.Buffer{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(nil).Finalize(context.Background(), tt.dest)
			if !errors.Is(err, output.ErrUnsupportedDestination) {
				t.Errorf("Finalize() error = %v, want ErrUnsupportedDestination", err)
			}
		})
	}
}

func TestSink_FinalizeWithoutDatabase(t *testing.T) {
	err := New(nil).Finalize(context.Background(), output.Collection("cards"))
	if err == nil || !strings.Contains(err.Error(), "no database") {
		t.Errorf("Finalize() error = %v, want missing database error", err)
	}
}

func TestSink_FinalizeEmptyName(t *testing.T) {
	err := New(nil).Finalize(context.Background(), output.Collection(""))
	if err == nil || !strings.Contains(err.Error(), "no name") {
		t.Errorf("Finalize() error = %v, want missing name error", err)
	}
}

func TestNewDocument(t *testing.T) {
	at := time.Date(2025, 6, 4, 14, 6, 15, 0, time.UTC)

	tests := []struct {
		name        string
		card        vocab.Card
		wantExample *string
		wantStatus  string
	}{
		{
			name:        "with example",
			card:        vocab.Card{Word: "hello", Translation: "hola", Example: "Hello, world!", Status: vocab.StatusKnown},
			wantExample: strPtr("Hello, world!"),
			wantStatus:  "known",
		},
		{
			name:       "without example",
			card:       vocab.Card{Word: "world", Translation: "mundo", Status: vocab.StatusLearning},
			wantStatus: "learning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument(tt.card, at)

			if d.Word != tt.card.Word || d.Translation != tt.card.Translation {
				t.Errorf("document = %+v", d)
			}
			if d.LearningStatus != tt.wantStatus {
				t.Errorf("LearningStatus = %q, want %q", d.LearningStatus, tt.wantStatus)
			}
			switch {
			case tt.wantExample == nil && d.Example != nil:
				t.Errorf("Example = %q, want nil", *d.Example)
			case tt.wantExample != nil && (d.Example == nil || *d.Example != *tt.wantExample):
				t.Errorf("Example = %v, want %q", d.Example, *tt.wantExample)
			}
			if !d.ExportedAt.Equal(at) {
				t.Errorf("ExportedAt = %v, want %v", d.ExportedAt, at)
			}
		})
	}
}

func TestConnect_InvalidURI(t *testing.T) {
	if _, err := Connect(context.Background(), "not-a-mongo-uri"); err == nil {
		t.Error("Connect() should fail for an invalid URI")
	}
}

func strPtr(s string) *string { return &s }
