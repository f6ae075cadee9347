// Package deck validates Duocards deck identifiers.
//
// A deck identifier is the standard base64 encoding of "Deck:<uuid>" where the
// UUID is version 4. Validation runs before any request reaches the API.
package deck

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Prefix is the literal every decoded deck identifier starts with.
const Prefix = "Deck:"

// Sentinel kinds, matched with errors.Is.
var (
	ErrInvalidBase64 = errors.New("invalid base64 encoding")
	ErrInvalidFormat = errors.New("invalid deck id format")
	ErrInvalidUUID   = errors.New("invalid uuid")
	ErrNotUUIDv4     = errors.New("uuid is not version 4")
)

// IDError describes why a deck identifier was rejected.
type IDError struct {
	// Kind is one of the sentinel errors above.
	Kind   error
	Detail string
}

// Error implements the error interface.
func (e *IDError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is reports whether target is the kind of this error.
func (e *IDError) Is(target error) bool {
	return e.Kind == target
}

// Validate checks that id is a well-formed deck identifier.
func Validate(id string) error {
	_, err := Decode(id)
	return err
}

// Decode validates id and returns the deck UUID it carries.
func Decode(id string) (uuid.UUID, error) {
	// StdEncoding silently skips CR and LF.
	if strings.ContainsAny(id, "\r\n") {
		return uuid.Nil, &IDError{Kind: ErrInvalidBase64, Detail: "line break in deck id"}
	}

	raw, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return uuid.Nil, &IDError{Kind: ErrInvalidBase64, Detail: err.Error()}
	}

	if !utf8.Valid(raw) {
		return uuid.Nil, &IDError{Kind: ErrInvalidFormat, Detail: "invalid UTF-8 after base64 decode"}
	}

	decoded := string(raw)
	if !strings.HasPrefix(decoded, Prefix) {
		return uuid.Nil, &IDError{Kind: ErrInvalidFormat, Detail: fmt.Sprintf("missing %q prefix", Prefix)}
	}

	parsed, err := uuid.Parse(strings.TrimPrefix(decoded, Prefix))
	if err != nil {
		return uuid.Nil, &IDError{Kind: ErrInvalidUUID, Detail: err.Error()}
	}

	if parsed.Version() != 4 {
		return uuid.Nil, &IDError{
			Kind:   ErrNotUUIDv4,
			Detail: fmt.Sprintf("expected UUID v4, got version %d", parsed.Version()),
		}
	}

	return parsed, nil
}

// Encode builds the deck identifier for a deck UUID.
func Encode(id uuid.UUID) string {
	return base64.StdEncoding.EncodeToString([]byte(Prefix + id.String()))
}
