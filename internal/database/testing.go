package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDatabaseURLEnv names the variable holding the integration test DSN
const TestDatabaseURLEnv = "KARTING_TEST_DATABASE_URL"

// SetupTestDB connects to the integration test database, skipping the test
// when none is configured or its schema is incomplete
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv(TestDatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping database test", TestDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	missing, err := db.MissingTables(ctx)
	if err != nil {
		db.Close()
		t.Fatalf("failed to inspect test database: %v", err)
	}
	if len(missing) > 0 {
		db.Close()
		t.Skipf("test database lacks tables %v", missing)
	}

	t.Cleanup(db.Close)
	return db
}
