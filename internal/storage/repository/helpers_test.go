package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ramonehamilton/manaforge/internal/storage"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// setupTestDB opens a migrated in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Error closing database: %v", err)
		}
	})
	return db.Conn()
}

// setupMockDB wraps a sqlmock connection in a storage.DB.
func setupMockDB(t *testing.T) (*storage.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	db := storage.NewTestDB(conn)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func createTestDeck(t *testing.T, repo DeckRepository, id string) *models.Deck {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	deck := &models.Deck{
		ID:         id,
		UserID:     "user-1",
		Name:       "Deck " + id,
		Format:     "modern",
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := repo.Create(context.Background(), deck); err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	return deck
}
