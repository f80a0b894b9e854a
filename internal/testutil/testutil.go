// Package testutil provides shared fixtures for tests that need a migrated
// database.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/id"
)

// TempDB creates a temporary migrated SQLite database for testing.
func TempDB(t *testing.T) (*db.DB, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	return database, dbPath
}

// SeedActor inserts a test actor and returns its UUID.
func SeedActor(t *testing.T, database *db.DB, slug string) string {
	t.Helper()

	seq, err := db.NextActorSeq(database)
	if err != nil {
		t.Fatalf("Failed to allocate actor sequence: %v", err)
	}

	actorUUID := uuid.NewString()
	_, err = database.Exec(
		"INSERT INTO actors (uuid, id, slug, role) VALUES (?, ?, ?, ?)",
		actorUUID, id.FormatActor(seq), slug, "human",
	)
	if err != nil {
		t.Fatalf("Failed to seed actor %q: %v", slug, err)
	}
	return actorUUID
}
