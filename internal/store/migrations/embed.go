package migrations

import "embed"

// FS holds the SQL migration files applied by store.Migrate.
//
//go:embed *.sql
var FS embed.FS
