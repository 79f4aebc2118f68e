package sqlite

import (
	"context"
	"testing"
)

// setupTestDB opens a migrated in-memory database named after the test, so
// writer and reader share it while parallel tests stay isolated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := openDB(context.Background(), memoryDSN(t.Name()), t.Name())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return db
}
