package repositories

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/poofware/locshare-service/internal/utils"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration in file-name order. Statements
// are idempotent, so running it on each boot is safe.
func Migrate(ctx context.Context, db DB) error {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
		utils.Logger.Debugf("Applied migration %s", name)
	}
	return nil
}
