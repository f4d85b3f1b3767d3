// Package migrations holds the postgres schema of the realtime modules.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed *.sql
var files embed.FS

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Up applies every embedded script in file name order. Scripts are idempotent.
func Up(ctx context.Context, db execer) error {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := files.ReadFile(name)
		if err != nil {
			return err
		}
		// no arguments, so pgx sends the multi statement script with the simple protocol
		if _, err := db.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("migrations: %s: %w", name, err)
		}
	}

	return nil
}
