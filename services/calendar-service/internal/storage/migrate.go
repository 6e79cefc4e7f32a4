package storage

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/md-rashed-zaman/apptcalendar/libs/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the embedded schema files in lexical order.
func Migrations() ([]string, error) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		body, err := migrationFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, string(body))
	}
	return out, nil
}

// Migrate applies every embedded migration. The files are idempotent.
func Migrate(ctx context.Context, pool *db.Pool) error {
	stmts, err := Migrations()
	if err != nil {
		return err
	}
	return pool.Migrate(ctx, stmts...)
}
