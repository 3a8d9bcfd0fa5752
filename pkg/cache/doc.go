// Package cache stores inference responses in Redis.
//
// A response is keyed by the model, the request mode (placement or report)
// and a SHA-256 digest of the exact prompt, so re-analyzing an unchanged
// batch reuses the earlier answer instead of spending quota.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.NewKey("gemini-1.5-flash", cache.ModePlacement, prompt)
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// call the model, then
//		_ = manager.Set(ctx, key, cache.NewEntry(text, 24*time.Hour))
//	}
//
// # Metrics
//
//   - placement_cache_hits_total{mode}
//   - placement_cache_misses_total{mode}
//   - placement_cache_size_bytes
//   - placement_cache_errors_total{operation}
//
// Credentials never take part in the key. A response produced with one key
// is valid for every key in the pool.
package cache
