// Package migrations embeds the goose migration files for both stores.
package migrations

import "embed"

// SQLite holds the local record store schema.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// Postgres holds the cloud backend schema.
//
//go:embed postgres/*.sql
var Postgres embed.FS
