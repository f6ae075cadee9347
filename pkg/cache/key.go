package cache

import (
	"fmt"
	"strings"
)

// KeyPrefix namespaces every key written by this package.
const KeyPrefix = "duoload:page"

// CacheKey identifies one page of one deck.
type CacheKey struct {
	// DeckID is the base64 deck identifier.
	DeckID string

	// Cursor is the continuation cursor, empty for the first page.
	Cursor string

	// PageSize is the number of cards requested per page.
	PageSize int
}

// String generates a deterministic cache key string.
// Format: duoload:page:<deck>:<cursor|first>:<size>
//
// Example:
//
//	duoload:page:RGVjazo0NmYy...:first:100
func (k CacheKey) String() string {
	cursor := k.Cursor
	if cursor == "" {
		cursor = "first"
	}

	parts := []string{
		KeyPrefix,
		strings.TrimSpace(k.DeckID),
		cursor,
		fmt.Sprintf("%d", k.PageSize),
	}
	return strings.Join(parts, ":")
}
