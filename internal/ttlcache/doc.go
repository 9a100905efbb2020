// Package ttlcache provides a small in-memory key/value cache whose entries
// expire after a fixed time-to-live.
//
// Expired entries are not evicted: Get treats them as misses while Stale still
// returns them, so callers can fall back to the last known value when a refresh
// fails. The clock is injectable for deterministic tests.
//
//	c := ttlcache.New[catalog.Category, int](5*time.Minute, ttlcache.SystemClock())
//	if n, ok := c.Get(catalog.Horizontal); ok {
//	    return n
//	}
package ttlcache
