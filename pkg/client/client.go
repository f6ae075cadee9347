// Package client fetches vocabulary pages from the Duocards GraphQL API
// with retries, metrics and an optional Redis page cache.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/duoload/pkg/cache"
	"github.com/Sternrassler/duoload/pkg/deck"
	"github.com/Sternrassler/duoload/pkg/transfer"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the public Duocards GraphQL endpoint.
	DefaultBaseURL = "https://api.duocards.com/graphql"

	// DefaultUserAgent identifies duoload to the API.
	DefaultUserAgent = "duoload/1.0"

	// DefaultPageSize is the number of cards requested per page.
	DefaultPageSize = 100

	// maxBodySize caps how much of a response is read.
	maxBodySize = 16 << 20
)

// Client is the Duocards API client. It implements transfer.RecordSource.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the GraphQL endpoint.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// PageSize is the "first" argument of the cards connection.
	PageSize int

	// Timeout for a single HTTP request.
	Timeout time.Duration

	// Retry
	MaxRetries     int // Retries after the first attempt
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Redis enables the page cache when set together with a positive CacheTTL.
	Redis    *redis.Client
	CacheTTL time.Duration

	// Logger defaults to the global logger with component=duocards-client.
	Logger *zerolog.Logger
}

// DefaultConfig returns the configuration used against the live API.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		UserAgent:      DefaultUserAgent,
		PageSize:       DefaultPageSize,
		Timeout:        30 * time.Second,
		MaxRetries:     2,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     10 * time.Second,
		CacheTTL:       15 * time.Minute,
	}
}

// New creates a new Duocards client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page_size must be > 0 (got %d)", cfg.PageSize)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	logger := log.With().Str("component", "duocards-client").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}

	if cfg.Redis != nil && cfg.CacheTTL > 0 {
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// FetchPage fetches the page of deckID that follows cursor.
// An empty cursor fetches the first page.
func (c *Client) FetchPage(ctx context.Context, deckID, cursor string) (*transfer.Page, error) {
	if err := deck.Validate(deckID); err != nil {
		return nil, err
	}

	key := cache.CacheKey{
		DeckID:   deckID,
		Cursor:   cursor,
		PageSize: c.config.PageSize,
	}

	if c.cache != nil {
		if page := c.cachedPage(ctx, key); page != nil {
			return page, nil
		}
	}

	body, err := c.post(ctx, newCardsRequest(deckID, cursor, c.config.PageSize))
	if err != nil {
		return nil, err
	}

	page, err := decodePage(body)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassProtocol)).Inc()
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, cache.NewEntry(body, c.config.CacheTTL)); err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to cache page")
		} else {
			c.logger.Debug().
				Str("key", key.String()).
				Dur("ttl", c.config.CacheTTL).
				Msg("Cached page")
		}
	}

	return page, nil
}

// cachedPage returns the cached page for key, or nil on a miss.
// Cache failures are logged and treated as misses.
func (c *Client) cachedPage(ctx context.Context, key cache.CacheKey) *transfer.Page {
	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
		}
		return nil
	}

	page, err := decodePage(entry.Data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key.String()).Msg("Discarding unusable cached page")
		_ = c.cache.Delete(ctx, key)
		return nil
	}

	c.logger.Debug().
		Str("key", key.String()).
		Dur("age", entry.Age()).
		Msg("Page served from cache")
	return page
}

// retryConfig is DefaultRetryConfig with the client's attempt and backoff settings.
func (c *Client) retryConfig() RetryConfig {
	retry := DefaultRetryConfig()
	retry.MaxAttempts = c.config.MaxRetries + 1
	retry.InitialBackoff = c.config.InitialBackoff
	retry.MaxBackoff = c.config.MaxBackoff
	return retry
}

// post sends a GraphQL request and returns the response body of a 2xx reply.
func (c *Client) post(ctx context.Context, payload graphQLRequest) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var body []byte
	err = retryWithBackoff(ctx, c.retryConfig(), c.logger, func() error {
		var reqErr error
		body, reqErr = c.do(ctx, data)
		return reqErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// do performs a single HTTP round trip.
func (c *Client) do(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	apiRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrContextCancelled, ctxErr)
		}
		c.logger.Error().Err(err).Msg("HTTP request failed")
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		apiRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &APIError{
			Class:   ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		apiRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	apiRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if class := classifyStatus(resp.StatusCode); class != "" {
		apiErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Duocards request error")
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    statusMessage(resp.Status, body),
		}
	}

	return body, nil
}

// statusMessage combines the status line with the start of the body.
func statusMessage(status string, body []byte) string {
	const limit = 200
	b := bytes.TrimSpace(body)
	if len(b) == 0 {
		return status
	}
	if len(b) > limit {
		b = b[:limit]
	}
	return status + ": " + string(b)
}

// PurgeCache drops every cached page of deckID. It is a no-op without a cache.
func (c *Client) PurgeCache(ctx context.Context, deckID string) (int, error) {
	if c.cache == nil {
		return 0, nil
	}
	return c.cache.Purge(ctx, deckID)
}

// CacheEnabled reports whether pages are cached in Redis.
func (c *Client) CacheEnabled() bool {
	return c.cache != nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

var _ transfer.RecordSource = (*Client)(nil)
