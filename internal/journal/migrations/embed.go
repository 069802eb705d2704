// Package migrations contains embedded SQL migrations for the deletion journal.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
