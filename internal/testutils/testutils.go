package testutils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/confscan/confscan/internal/database"
)

// TestDB returns an in-memory sqlite database with the full schema
// applied. Each call gets an isolated database.
func TestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// The in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	if err := database.MigrateDB(db.DB); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// RandomUUID returns a new random UUID for testing
func RandomUUID() uuid.UUID {
	return uuid.New()
}

// RandomTime returns a time in the recent past for testing
func RandomTime() time.Time {
	return time.Now().UTC().Add(-time.Duration(uuid.New().ID()%86400) * time.Second)
}
