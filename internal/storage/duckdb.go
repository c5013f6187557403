// Package storage persists run trajectories in DuckDB.
package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb/v2"
)

//go:embed schema/tracks.sql
var tracksSchema string

type DuckDB = *sqlx.DB

// OpenDuckDB connects to the database file at path, or to an in-memory
// database when path is empty, and applies the schema.
func OpenDuckDB(ctx context.Context, path string) (DuckDB, error) {
	db, err := sqlx.ConnectContext(ctx, "duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, tracksSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
