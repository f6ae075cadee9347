package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sternrassler/duoload/pkg/transfer"
	"github.com/Sternrassler/duoload/pkg/vocab"
)

// CardsQuery fetches one page of a deck's cards.
const CardsQuery = `query CardsQuery($deckId: ID!, $first: Int!, $cursor: String) {
  node(id: $deckId) {
    __typename
    ... on Deck {
      id
      cards(first: $first, after: $cursor) {
        edges {
          node {
            id
            front
            back
            hint
            knownCount
          }
          cursor
        }
        pageInfo {
          endCursor
          hasNextPage
        }
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// newCardsRequest builds the request body. An empty cursor is sent as null.
func newCardsRequest(deckID, cursor string, pageSize int) graphQLRequest {
	var after any
	if cursor != "" {
		after = cursor
	}
	return graphQLRequest{
		Query: CardsQuery,
		Variables: map[string]any{
			"deckId": deckID,
			"first":  pageSize,
			"cursor": after,
		},
	}
}

type graphQLError struct {
	Message string `json:"message"`
}

type cardsResponse struct {
	Data struct {
		Node *deckNode `json:"node"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type deckNode struct {
	ID    string `json:"id"`
	Cards struct {
		Edges []struct {
			Node   cardNode `json:"node"`
			Cursor string   `json:"cursor"`
		} `json:"edges"`
		PageInfo struct {
			EndCursor   *string `json:"endCursor"`
			HasNextPage bool    `json:"hasNextPage"`
		} `json:"pageInfo"`
	} `json:"cards"`
}

type cardNode struct {
	ID         string  `json:"id"`
	Front      string  `json:"front"`
	Back       string  `json:"back"`
	Hint       *string `json:"hint"`
	KnownCount int     `json:"knownCount"`
}

func (n cardNode) card() vocab.Card {
	c := vocab.Card{
		Word:        n.Front,
		Translation: n.Back,
		Status:      vocab.StatusFromKnownCount(n.KnownCount),
	}
	if n.Hint != nil {
		c.Example = *n.Hint
	}
	return c
}

// decodePage converts a raw GraphQL response body into a page.
func decodePage(body []byte) (*transfer.Page, error) {
	var resp cardsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Class:      ErrorClassProtocol,
			Message:    "decode response",
			Err:        err,
		}
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Class:      ErrorClassProtocol,
			Message:    fmt.Sprintf("graphql: %s", strings.Join(msgs, "; ")),
		}
	}

	if resp.Data.Node == nil {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Class:      ErrorClassProtocol,
			Message:    "deck not found",
		}
	}

	conn := resp.Data.Node.Cards
	page := &transfer.Page{
		Cards:       make([]vocab.Card, 0, len(conn.Edges)),
		HasNextPage: conn.PageInfo.HasNextPage,
	}
	if conn.PageInfo.EndCursor != nil {
		page.EndCursor = *conn.PageInfo.EndCursor
	}
	for _, edge := range conn.Edges {
		page.Cards = append(page.Cards, edge.Node.card())
	}

	return page, nil
}
