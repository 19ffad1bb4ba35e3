package database

import (
	"context"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate creates the tables used by the service when they do not exist
// yet.  Each dialect has its own schema file; statements are separated by
// semicolons and lines starting with "--" are ignored.
func Migrate(ctx context.Context, db *DB) error {
	raw, err := schemaFS.ReadFile("schema/" + string(db.Dialect) + ".sql")
	if err != nil {
		return fmt.Errorf("read %s schema: %w", db.Dialect, err)
	}
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %q: %w", stmt, err)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	var out []string
	for stmt := range strings.SplitSeq(strings.Join(kept, "\n"), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
