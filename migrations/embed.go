// Package migrations carries the embedded goose SQL migrations for the
// verification database schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
