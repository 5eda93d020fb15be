// Package remote embeds the goose migrations for the Postgres record store
// (users, sessions, posts).
package remote

import "embed"

//go:embed *.sql
var Migrations embed.FS
