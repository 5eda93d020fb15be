// Package local embeds the goose migrations for the on-device sqlite database.
package local

import "embed"

//go:embed *.sql
var Migrations embed.FS
