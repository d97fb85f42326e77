// Package mcp serves the catalog as Model Context Protocol tools over stdio
// or streamable HTTP.
package mcp
