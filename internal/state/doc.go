// Package state provides thread-safe state management for shelf's catalog
// status.
//
// # Overview
//
// The background refresher and the UI run in different goroutines. The
// refresher preloads the catalog and reports the outcome here; the UI reads
// snapshots on its own tick to draw the header (subject and book counts, last
// refresh, offline marker).
//
//	Producer (refresher):          Consumer (UI):
//	┌────────────────────┐        ┌──────────────────┐
//	│ catalog.Preload()  │        │                  │
//	│        ↓           │        │                  │
//	│ store.Update()     │───────→│ store.Snapshot() │
//	│        ↓           │ (mutex)│        ↓         │
//	│ wait / back off    │        │ render header    │
//	└────────────────────┘        └──────────────────┘
//
// # Update Semantics
//
//	// Success: replace subjects and count, reset failures
//	store.Update(snap.Subjects, snap.BookCount(), nil)
//
//	// Failure: keep old data, record error, count failures
//	store.Update(nil, 0, err)
//
// After two consecutive failures Snapshot.IsOffline reports true, so the UI
// can mark the catalog as served from cache.
//
// # Copying
//
// Snapshot returns a copy of the subject slice and wraps the last error, so a
// caller can never mutate what the refresher stored.
//
// The zero Store is ready to use.
package state
