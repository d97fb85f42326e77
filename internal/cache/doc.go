// Package cache implements the single-key, time-boxed cache that sits between
// shelf and the remote spreadsheet.
//
// # Overview
//
// A Cache holds at most one Entry: the value plus the wall-clock time it was
// stored. Get serves the entry while it is younger than the TTL (24 hours by
// default). Once it is older, Get deletes it and reports a miss, so the caller
// refetches and calls Set again. There is no other invalidation and no
// eviction policy.
//
// # Persistence
//
// When constructed with a file path, every Set, Put and Clear is mirrored to
// that file as JSON, and the first Get lazily loads it. This keeps the catalog
// across restarts the same way a browser keeps localStorage. Missing or
// corrupt files read as a miss. An empty path keeps the entry in memory.
//
// # Usage Example
//
//	c := cache.New[catalog.Snapshot]("~/.cache/shelf/catalog.json", 0)
//	if entry, ok := c.Get(); ok {
//		return entry.Data
//	}
//	snap := fetch()
//	_ = c.Set(snap)
//
// Tests inject a clock with WithClock to step across the expiry boundary.
package cache
