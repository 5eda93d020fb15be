// Package client wires the storage the blogkeeper CLI depends on.
//
// # Overview
//
//  1. Local persistence bootstrap (InitLocalDatabase, RunMigrations): an
//     SQLite file on the device with embedded goose migrations. It backs the
//     session cache.
//  2. Record store access (OpenStores): Postgres via pgx for users, sessions
//     and posts, with Redis as an optional session backend.
//
// # Error Handling
//
// Startup failures are tagged with sentinel errors that callers can match
// with errors.Is: ErrUnavailable when a remote store cannot be reached and
// ErrLocalDataNotAvailable when the device database cannot be opened.
//
// See Also
//
//   - DB helpers: InitLocalDatabase, RunMigrations
//   - Wiring:     OpenStores, Stores
package client
