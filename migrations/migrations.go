// Package migrations embeds the SQLite schema.
package migrations

import "embed"

// FS holds the numbered *.sql migrations
//
//go:embed *.sql
var FS embed.FS
