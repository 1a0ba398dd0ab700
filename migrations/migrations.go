// Package migrations embeds per-driver schema migration files so the
// binary carries its own schema.
package migrations

import "embed"

//go:embed sqlite/*.sql
var Sqlite embed.FS

//go:embed postgres/*.sql
var Postgres embed.FS
