// Package testdb provides a shared test database helper backed by an
// in-memory SQLite database.
package testdb

import (
	"context"
	"testing"

	"github.com/bibliotheca/gateway/infrastructure/persistence"
	"github.com/bibliotheca/gateway/internal/database"
)

// New creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:", nil)
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := persistence.AutoMigrate(ctx, db); err != nil {
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	return db
}
