package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDestination_Constructors(t *testing.T) {
	buf := &bytes.Buffer{}

	tests := []struct {
		name     string
		dest     Destination
		wantKind Kind
		wantStr  string
	}{
		{"file", File("deck.apkg"), KindFile, "file:deck.apkg"},
		{"stream", Stream(buf), KindStream, "stream"},
		{"collection", Collection("cards"), KindCollection, "collection:cards"},
		{"zero", Destination{}, 0, "kind(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.dest.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", tt.dest.Kind, tt.wantKind)
			}
			if got := tt.dest.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("anki", Stream(&bytes.Buffer{}))

	if !errors.Is(err, ErrUnsupportedDestination) {
		t.Errorf("errors.Is(err, ErrUnsupportedDestination) = false, err = %v", err)
	}
	if !strings.Contains(err.Error(), "anki output cannot be written to a stream destination") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
