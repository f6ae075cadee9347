// Package cache stores raw Duocards page responses in Redis.
//
// A deck export walks the same cursor chain every time it runs. When a run is
// repeated shortly after another one (for example to write a second output
// format) the page cache answers from Redis instead of calling the API again.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{DeckID: deckID, Cursor: cursor, PageSize: 100}
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the API, then
//		_ = manager.Set(ctx, key, cache.NewEntry(body, 10*time.Minute))
//	}
//
// # Metrics
//
//   - duoload_cache_hits_total - Cache hits
//   - duoload_cache_misses_total - Cache misses
//   - duoload_cache_errors_total{operation} - Cache operation errors
//
// Cache failures never fail an export: callers log them and fall back to the API.
package cache
