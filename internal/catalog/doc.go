// Package catalog turns a multi-sheet spreadsheet into subjects and books and
// serves them through a read-through cache.
//
// # Overview
//
// Each sheet of the spreadsheet is a subject; each row after the header is a
// book. The spreadsheet has been maintained with both English and Portuguese
// headers, so normalization picks the first non-empty value among the aliases
// of every field (Title/Nome, ReadLink/Link, CoverImage/Imagem,
// Synopsis/Sinopse, Rating/Nota, Order/Ordem, DownloadLink/Download).
//
// # Data Flow
//
//	Source (sheets API or .xlsx)
//	   │ SheetNames / Rows
//	   ▼
//	Records ──> NormalizeBooks / NormalizeSubjects
//	   │
//	   ▼
//	cache.Cache[Snapshot]  (24h TTL)
//	   │
//	   ▼
//	Subjects / Books / Book / AllBooks
//
// Subjects and Books check the cache first. On a miss they fetch, normalize
// and merge the result into the cached Snapshot. Preload fills the whole
// Snapshot at once with a bounded number of concurrent sheet fetches.
//
// # Failure Handling
//
// Read methods never return errors. A failed fetch is logged at warn level
// and yields an empty list, and nothing is cached for it, so the next call
// tries again. Preload and Refresh return an error only when the sheet list
// itself cannot be read.
//
// # Queries
//
// Search and Sort are pure functions over []Book used by the TUI, the HTTP
// API and the MCP tools alike.
package catalog
