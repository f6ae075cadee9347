package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/duoload/internal/testutil"
	"github.com/Sternrassler/duoload/pkg/deck"
	"github.com/Sternrassler/duoload/pkg/vocab"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// newTestClient returns a client against url with fast retries and no logging.
func newTestClient(t *testing.T, url string, mutate ...func(*Config)) *Client {
	t.Helper()

	nop := zerolog.Nop()
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Timeout = 5 * time.Second
	cfg.InitialBackoff = 5 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	cfg.Logger = &nop
	for _, m := range mutate {
		m(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:     "empty base url",
			mutate:   func(c *Config) { c.BaseURL = "" },
			errorMsg: "base url is required",
		},
		{
			name:     "relative base url",
			mutate:   func(c *Config) { c.BaseURL = "/graphql" },
			errorMsg: "invalid base url",
		},
		{
			name:     "empty user agent",
			mutate:   func(c *Config) { c.UserAgent = "" },
			errorMsg: "user-agent is required",
		},
		{
			name:     "zero page size",
			mutate:   func(c *Config) { c.PageSize = 0 },
			errorMsg: "page_size must be > 0",
		},
		{
			name:     "zero timeout",
			mutate:   func(c *Config) { c.Timeout = 0 },
			errorMsg: "timeout must be > 0",
		},
		{
			name:     "negative retries",
			mutate:   func(c *Config) { c.MaxRetries = -1 },
			errorMsg: "max_retries must be >= 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			c, err := New(cfg)
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				if c == nil {
					t.Fatal("New() returned nil client")
				}
				return
			}
			if err == nil {
				t.Fatalf("New() expected error containing %q", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("New() error = %q, want it to contain %q", err, tt.errorMsg)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "https://api.duocards.com/graphql" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.UserAgent != "duoload/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.PageSize)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
}

func TestClient_RetryConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 4
	cfg.InitialBackoff = 250 * time.Millisecond
	cfg.MaxBackoff = 2 * time.Second

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := c.retryConfig()
	if got.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", got.MaxAttempts)
	}
	if got.InitialBackoff != 250*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 250ms", got.InitialBackoff)
	}
	if got.MaxBackoff != 2*time.Second {
		t.Errorf("MaxBackoff = %v, want 2s", got.MaxBackoff)
	}
	if want := DefaultRetryConfig().BackoffMultiplier; got.BackoffMultiplier != want {
		t.Errorf("BackoffMultiplier = %v, want %v", got.BackoffMultiplier, want)
	}
}

func TestNew_CacheRequiresRedisAndTTL(t *testing.T) {
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer redisClient.Close()

	tests := []struct {
		name  string
		redis *redis.Client
		ttl   time.Duration
		want  bool
	}{
		{"no redis", nil, time.Minute, false},
		{"zero ttl", redisClient, 0, false},
		{"redis and ttl", redisClient, time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Redis = tt.redis
			cfg.CacheTTL = tt.ttl

			c, err := New(cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := c.CacheEnabled(); got != tt.want {
				t.Errorf("CacheEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFetchPage_FirstPage(t *testing.T) {
	mock := testutil.NewMockDuocards(testutil.TestDeckID,
		testutil.MockCard{Front: "hello", Back: "hola", Hint: "Hello, world!", KnownCount: 5},
		testutil.MockCard{Front: "cat", Back: "gato", KnownCount: 2},
		testutil.MockCard{Front: "dog", Back: "perro"},
	)
	defer mock.Close()

	c := newTestClient(t, mock.URL())

	page, err := c.FetchPage(context.Background(), testutil.TestDeckID, "")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	want := []vocab.Card{
		{Word: "hello", Translation: "hola", Example: "Hello, world!", Status: vocab.StatusKnown},
		{Word: "cat", Translation: "gato", Status: vocab.StatusLearning},
		{Word: "dog", Translation: "perro", Status: vocab.StatusNew},
	}
	if len(page.Cards) != len(want) {
		t.Fatalf("len(Cards) = %d, want %d", len(page.Cards), len(want))
	}
	for i := range want {
		if page.Cards[i] != want[i] {
			t.Errorf("Cards[%d] = %+v, want %+v", i, page.Cards[i], want[i])
		}
	}
	if page.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	if reqs[0].Cursor != nil {
		t.Errorf("first page cursor = %q, want null", *reqs[0].Cursor)
	}
	if reqs[0].First != 100 {
		t.Errorf("first = %d, want 100", reqs[0].First)
	}
	if reqs[0].UserAgent != "duoload/1.0" {
		t.Errorf("User-Agent = %q, want duoload/1.0", reqs[0].UserAgent)
	}
	if ct := reqs[0].Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestFetchPage_FollowsCursor(t *testing.T) {
	mock := testutil.NewMockDuocards(testutil.TestDeckID, testutil.Words("a", "b", "c")...)
	defer mock.Close()

	c := newTestClient(t, mock.URL(), func(cfg *Config) { cfg.PageSize = 2 })
	ctx := context.Background()

	first, err := c.FetchPage(ctx, testutil.TestDeckID, "")
	if err != nil {
		t.Fatalf("FetchPage(first) error = %v", err)
	}
	if !first.HasNextPage || first.EndCursor == "" {
		t.Fatalf("first page = %+v, want a continuation", first)
	}

	second, err := c.FetchPage(ctx, testutil.TestDeckID, first.EndCursor)
	if err != nil {
		t.Fatalf("FetchPage(second) error = %v", err)
	}
	if len(second.Cards) != 1 || second.Cards[0].Word != "c" {
		t.Errorf("second page = %+v, want [c]", second.Cards)
	}
	if second.HasNextPage {
		t.Error("second page HasNextPage = true, want false")
	}

	reqs := mock.Requests()
	if reqs[1].Cursor == nil || *reqs[1].Cursor != first.EndCursor {
		t.Errorf("second request cursor = %v, want %q", reqs[1].Cursor, first.EndCursor)
	}
}

func TestFetchPage_InvalidDeckID(t *testing.T) {
	mock := testutil.NewMockDuocards(testutil.TestDeckID)
	defer mock.Close()

	c := newTestClient(t, mock.URL())

	_, err := c.FetchPage(context.Background(), "not-base64!", "")
	if !errors.Is(err, deck.ErrInvalidBase64) {
		t.Errorf("FetchPage() error = %v, want ErrInvalidBase64", err)
	}
	if n := mock.RequestCount(); n != 0 {
		t.Errorf("requests = %d, want 0", n)
	}
}

func TestFetchPage_Errors(t *testing.T) {
	tests := []struct {
		name      string
		responses []testutil.MockResponse
		wantClass ErrorClass
		wantCalls int
		exhausted bool
	}{
		{
			name:      "client error is not retried",
			responses: []testutil.MockResponse{{StatusCode: http.StatusBadRequest, Body: `bad`}},
			wantClass: ErrorClassClient,
			wantCalls: 1,
		},
		{
			name:      "rate limit is not retried",
			responses: []testutil.MockResponse{{StatusCode: http.StatusTooManyRequests}},
			wantClass: ErrorClassRateLimit,
			wantCalls: 1,
		},
		{
			name: "server error exhausts retries",
			responses: []testutil.MockResponse{
				{StatusCode: 500}, {StatusCode: 502}, {StatusCode: 503},
			},
			wantClass: ErrorClassServer,
			wantCalls: 3,
			exhausted: true,
		},
		{
			name:      "graphql errors",
			responses: []testutil.MockResponse{{StatusCode: 200, Body: `{"data":null,"errors":[{"message":"forbidden"}]}`}},
			wantClass: ErrorClassProtocol,
			wantCalls: 1,
		},
		{
			name:      "malformed body",
			responses: []testutil.MockResponse{{StatusCode: 200, Body: `{"data":`}},
			wantClass: ErrorClassProtocol,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockDuocards(testutil.TestDeckID, testutil.Words("a")...)
			defer mock.Close()
			mock.Enqueue(tt.responses...)

			c := newTestClient(t, mock.URL())

			_, err := c.FetchPage(context.Background(), testutil.TestDeckID, "")
			if err == nil {
				t.Fatal("FetchPage() expected error")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("FetchPage() error = %v, want *APIError", err)
			}
			if apiErr.Class != tt.wantClass {
				t.Errorf("Class = %q, want %q", apiErr.Class, tt.wantClass)
			}
			if got := errors.Is(err, ErrRetryExhausted); got != tt.exhausted {
				t.Errorf("errors.Is(err, ErrRetryExhausted) = %v, want %v", got, tt.exhausted)
			}
			if n := mock.RequestCount(); n != tt.wantCalls {
				t.Errorf("requests = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestFetchPage_RecoversAfterServerError(t *testing.T) {
	mock := testutil.NewMockDuocards(testutil.TestDeckID, testutil.Words("a", "b")...)
	defer mock.Close()
	mock.Enqueue(testutil.MockResponse{StatusCode: http.StatusServiceUnavailable})

	c := newTestClient(t, mock.URL())

	page, err := c.FetchPage(context.Background(), testutil.TestDeckID, "")
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.Cards) != 2 {
		t.Errorf("len(Cards) = %d, want 2", len(page.Cards))
	}
	if n := mock.RequestCount(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestFetchPage_DeckNotFound(t *testing.T) {
	mock := testutil.NewMockDuocards(testutil.TestDeckID)
	defer mock.Close()

	c := newTestClient(t, mock.URL())

	other := deck.Encode(mustUUID(t, "0b3c2a7e-5d1f-4e8a-9c6b-2f4d8e1a7b3c"))
	_, err := c.FetchPage(context.Background(), other, "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Class != ErrorClassProtocol {
		t.Fatalf("FetchPage() error = %v, want protocol APIError", err)
	}
	if !strings.Contains(err.Error(), "deck not found") {
		t.Errorf("error = %q, want it to mention deck not found", err)
	}
}

func TestFetchPage_NetworkError(t *testing.T) {
	mock := testutil.NewMockDuocards(testutil.TestDeckID)
	url := mock.URL()
	mock.Close()

	c := newTestClient(t, url, func(cfg *Config) { cfg.MaxRetries = 1 })

	_, err := c.FetchPage(context.Background(), testutil.TestDeckID, "")
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("FetchPage() error = %v, want ErrRetryExhausted", err)
	}
	if classOf(err) != ErrorClassNetwork {
		t.Errorf("classOf(err) = %q, want network", classOf(err))
	}
}

func TestFetchPage_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockDuocards(testutil.TestDeckID, testutil.Words("a")...)
	defer mock.Close()

	c := newTestClient(t, mock.URL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchPage(ctx, testutil.TestDeckID, "")
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("FetchPage() error = %v, want ErrContextCancelled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FetchPage() error = %v, want context.Canceled in chain", err)
	}
}

func TestFetchPage_Cache(t *testing.T) {
	redisClient := setupTestRedis(t)

	mock := testutil.NewMockDuocards(testutil.TestDeckID, testutil.Words("a", "b")...)
	defer mock.Close()

	c := newTestClient(t, mock.URL(), func(cfg *Config) {
		cfg.Redis = redisClient
		cfg.CacheTTL = time.Minute
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		page, err := c.FetchPage(ctx, testutil.TestDeckID, "")
		if err != nil {
			t.Fatalf("FetchPage() #%d error = %v", i+1, err)
		}
		if len(page.Cards) != 2 {
			t.Errorf("FetchPage() #%d len(Cards) = %d, want 2", i+1, len(page.Cards))
		}
	}

	if n := mock.RequestCount(); n != 1 {
		t.Errorf("requests = %d, want 1 (second call served from cache)", n)
	}

	removed, err := c.PurgeCache(ctx, testutil.TestDeckID)
	if err != nil {
		t.Fatalf("PurgeCache() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("PurgeCache() = %d, want 1", removed)
	}

	if _, err := c.FetchPage(ctx, testutil.TestDeckID, ""); err != nil {
		t.Fatalf("FetchPage() after purge error = %v", err)
	}
	if n := mock.RequestCount(); n != 2 {
		t.Errorf("requests = %d, want 2 after purge", n)
	}
}

func TestPurgeCache_Disabled(t *testing.T) {
	c := newTestClient(t, "http://localhost:1/graphql")

	n, err := c.PurgeCache(context.Background(), testutil.TestDeckID)
	if err != nil || n != 0 {
		t.Errorf("PurgeCache() = (%d, %v), want (0, nil)", n, err)
	}
}
