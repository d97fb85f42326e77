// Package config handles loading and parsing the shelf configuration file.
//
// # Overview
//
// The configuration tells shelf where the catalog lives (a public Google
// spreadsheet or a local .xlsx export), where to keep its cache and library
// files, and how to reach the optional Gemini model.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/shelf/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. SHELF_SHEETS_API_KEY and GEMINI_API_KEY override the file's keys
//
// # Default Values
//
//   - Config file: ~/.config/shelf/config.toml
//   - Cache file: ~/.cache/shelf/catalog.json (24h TTL)
//   - Library file: ~/.local/share/shelf/library.toml
//   - Log file: ~/.local/share/shelf/shelf.log
//   - HTTP bind: 127.0.0.1:8080
//   - Refresh check: every 15m, 4 concurrent sheet fetches
//   - Gemini model: gemini-2.0-flash
//
// # TOML Format
//
//	spreadsheet_id = "1AbC..."
//	sheets_api_key = "AIza..."
//	# workbook_path = "~/books/catalog.xlsx"
//	cache_ttl = "24h"
//	gemini_api_key = "..."
//	http_bind = "127.0.0.1:8080"
//
// Durations use Go syntax ("90m", "24h") and must be positive. Paths accept a
// leading tilde. When workbook_path is set it wins over the spreadsheet.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML parse errors and invalid
// durations. A missing file is not an error. Validate reports a config with
// no catalog source; commands that only touch local state skip it.
package config
