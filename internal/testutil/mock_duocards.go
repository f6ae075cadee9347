// Package testutil provides testing utilities for duoload.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// TestDeckID is a valid deck identifier (base64 of "Deck:<uuid v4>").
const TestDeckID = "RGVjazo0NmYyYjllZC1hYmYzLTRiZDgtYTA1NC02OGRmYTRhNDIwM2U="

// MockCard is a card served by MockDuocards.
type MockCard struct {
	Front      string
	Back       string
	Hint       string // empty is served as null
	KnownCount int
}

// MockResponse overrides the reply to one request.
type MockResponse struct {
	StatusCode int
	Body       string
}

// MockRequest records what a client sent.
type MockRequest struct {
	Header    http.Header
	DeckID    string
	First     int
	Cursor    *string
	UserAgent string
}

// MockDuocards is a GraphQL server that pages through a fixed card list the
// way the Duocards API does. Cursors are the index of the last card served.
type MockDuocards struct {
	server *httptest.Server
	mu     sync.Mutex

	deckID   string
	cards    []MockCard
	queued   []MockResponse
	requests []MockRequest
}

// NewMockDuocards creates a mock serving cards for deckID.
func NewMockDuocards(deckID string, cards ...MockCard) *MockDuocards {
	m := &MockDuocards{
		deckID: deckID,
		cards:  cards,
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the GraphQL endpoint URL.
func (m *MockDuocards) URL() string {
	return m.server.URL + "/graphql"
}

// Close shuts down the mock server.
func (m *MockDuocards) Close() {
	m.server.Close()
}

// SetCards replaces the served cards.
func (m *MockDuocards) SetCards(cards ...MockCard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = cards
}

// Enqueue makes the next requests receive resp instead of a page, in order.
func (m *MockDuocards) Enqueue(resp ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, resp...)
}

// RequestCount returns the number of requests received.
func (m *MockDuocards) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every recorded request.
func (m *MockDuocards) Requests() []MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

type mockRequestBody struct {
	Query     string `json:"query"`
	Variables struct {
		DeckID string  `json:"deckId"`
		First  int     `json:"first"`
		Cursor *string `json:"cursor"`
	} `json:"variables"`
}

func (m *MockDuocards) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body mockRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, MockRequest{
		Header:    r.Header.Clone(),
		DeckID:    body.Variables.DeckID,
		First:     body.Variables.First,
		Cursor:    body.Variables.Cursor,
		UserAgent: r.UserAgent(),
	})
	var override *MockResponse
	if len(m.queued) > 0 {
		override = &m.queued[0]
		m.queued = m.queued[1:]
	}
	cards := m.cards
	deckID := m.deckID
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if override != nil {
		w.WriteHeader(override.StatusCode)
		w.Write([]byte(override.Body))
		return
	}

	if body.Variables.DeckID != deckID {
		w.Write([]byte(`{"data":{"node":null}}`))
		return
	}

	start := 0
	if body.Variables.Cursor != nil {
		last, err := strconv.Atoi(*body.Variables.Cursor)
		if err != nil {
			w.Write([]byte(fmt.Sprintf(`{"data":null,"errors":[{"message":"invalid cursor %q"}]}`, *body.Variables.Cursor)))
			return
		}
		start = last + 1
	}

	first := body.Variables.First
	if first <= 0 {
		first = 100
	}

	json.NewEncoder(w).Encode(PageResponse(deckID, cards, start, first))
}

// PageResponse builds the GraphQL response for cards[start:start+first].
func PageResponse(deckID string, cards []MockCard, start, first int) map[string]any {
	if start > len(cards) {
		start = len(cards)
	}
	end := start + first
	if end > len(cards) {
		end = len(cards)
	}

	edges := make([]map[string]any, 0, end-start)
	for i := start; i < end; i++ {
		c := cards[i]
		var hint any
		if c.Hint != "" {
			hint = c.Hint
		}
		edges = append(edges, map[string]any{
			"node": map[string]any{
				"id":         fmt.Sprintf("card-%d", i),
				"front":      c.Front,
				"back":       c.Back,
				"hint":       hint,
				"knownCount": c.KnownCount,
				"__typename": "Card",
			},
			"cursor": strconv.Itoa(i),
		})
	}

	var endCursor any
	if end > start {
		endCursor = strconv.Itoa(end - 1)
	}

	return map[string]any{
		"data": map[string]any{
			"node": map[string]any{
				"__typename": "Deck",
				"id":         deckID,
				"cards": map[string]any{
					"edges": edges,
					"pageInfo": map[string]any{
						"endCursor":   endCursor,
						"hasNextPage": end < len(cards),
					},
				},
			},
		},
	}
}

// Words returns a card per word with a fixed translation.
func Words(words ...string) []MockCard {
	cards := make([]MockCard, 0, len(words))
	for _, w := range words {
		cards = append(cards, MockCard{Front: w, Back: w + "-t"})
	}
	return cards
}
