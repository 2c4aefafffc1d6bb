package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const postgresDir = "postgres"

// Execer runs one SQL statement. *postgres.Pool, pgx.Conn and pgx.Tx satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresFiles lists the embedded cache schema files in apply order.
func PostgresFiles() ([]string, error) {
	entries, err := fs.ReadDir(PostgresFS, postgresDir)
	if err != nil {
		return nil, fmt.Errorf("read embedded cache schema: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// RunPostgresMigrations creates or updates the cache_entries schema and returns
// the files it applied. Every file runs on each start, so statements must be
// idempotent (CREATE ... IF NOT EXISTS).
func RunPostgresMigrations(ctx context.Context, db Execer) ([]string, error) {
	files, err := PostgresFiles()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, path.Join(postgresDir, file))
		if err != nil {
			return applied, fmt.Errorf("read cache schema %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := db.Exec(ctx, string(data)); err != nil {
			return applied, fmt.Errorf("apply cache schema %s: %w", file, err)
		}
		applied = append(applied, file)
	}

	return applied, nil
}
