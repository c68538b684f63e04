// Package migrations contains the embedded SQL files that lay out the document engine tables.
package migrations

import "embed"

// Files exposes the compiled-in migration SQL files.
//
//go:embed *.sql
var Files embed.FS
