// Package app provides the orchestration layer for shelf.
//
// # Overview
//
// This package is the composition root. It loads configuration, builds the
// logger, picks a catalog source and connects the cache, catalog, library and
// explainer that every front end (TUI, HTTP server, MCP server, CLI listings)
// shares.
//
// # Components
//
//   - app.go: Bootstrap/Build wiring and the TUI entry point Run
//   - refresher.go: background goroutine that keeps the catalog cache warm
//
// # Data Flow
//
//	┌──────────────┐
//	│ Bootstrap()  │
//	└──────┬───────┘
//	       ├─────> config.Load()        Read ~/.config/shelf/config.toml
//	       ├─────> logging.New()        zap, file or stderr
//	       ├─────> NewSource()          workbook.Open or sheets.NewClient
//	       ├─────> cache.New()          24h single-entry JSON cache
//	       ├─────> catalog.New()        read-through catalog
//	       ├─────> library.Open()       favorites and history
//	       └─────> explain.New()        Gemini, or disabled without a key
//
//	Run (TUI only):
//	       ├─────> StartRefresher()     warm cache, update state.Store
//	       └─────> ui.Run()             blocks until quit
//
// # Refresh Behavior
//
// The refresher checks the cache every RefreshInterval (default 15m). A fresh
// entry is only reported to the state store; an expired or missing one
// triggers catalog.Preload. Consecutive failures double the wait up to one
// hour and the UI shows the catalog as offline after two of them.
//
// # Error Handling
//
// Configuration errors, a missing catalog source and logger setup failures
// are returned from Bootstrap. Everything after that is recoverable: fetch
// failures are logged and retried, and a missing Gemini key just disables
// explanations.
package app
