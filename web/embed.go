// Package web holds the HTML templates and static assets served by the edge
// server. Release builds serve them from the binary; debug mode reads the
// same tree from disk.
package web

import "embed"

// EmbeddedFS contains templates/ and static/.
//
//go:embed templates static
var EmbeddedFS embed.FS
