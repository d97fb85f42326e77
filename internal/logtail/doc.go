// Package logtail reads the tail of shelf's log file and turns zap JSON lines
// into something readable in the terminal.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays bounded by the requested tail and not by the file size.
// A non-positive maxLines returns the whole file; a missing file yields no
// lines and no error.
//
//	lines, err := logtail.Read(cfg.LogFilePath(), 400)
//
// # Formatting
//
// shelf logs with zap's production JSON encoder. Format decodes a line and
// renders it as
//
//	21:01:05 WARN sheet fetch failed error="api ... returned status 403" sheet="Direito Civil"
//
// Extra fields are sorted by key; caller and stacktrace are omitted. Lines that
// are not JSON (panics, third-party output) pass through untouched. Styling is
// left to the UI, which colours by Level.
package logtail
