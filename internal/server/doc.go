// Package server exposes the catalog, favorites and reading history as a JSON
// API for a browser front end.
//
// Routes are registered on a gorilla/mux router. Errors are JSON objects of
// the form {"error": "..."}, and empty lists encode as [] rather than null.
// Every request is logged with zap, at warn level when the handler answers
// with a 5xx status.
package server
