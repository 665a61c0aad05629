package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/config"
)

// RequiredTables lists the tables the repositories read and write
var RequiredTables = []string{
	"races", "race_entries", "stints", "race_laps", "pit_stops",
	"teams", "drivers", "live_sessions", "onboard_messages",
}

// Initialize creates a database connection pool and verifies the schema is in place
func Initialize(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	missing, err := db.MissingTables(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(missing) > 0 {
		logger.WithField("tables", strings.Join(missing, ",")).
			Warn("Database schema incomplete, apply the schema before importing")
	}

	return db, nil
}

// MissingTables returns the required tables absent from the public schema
func (db *DB) MissingTables(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_name = ANY($1)`,
		RequiredTables)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, table := range RequiredTables {
		if !present[table] {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
