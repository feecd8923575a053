package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("test.db")

	if config.Path != "test.db" {
		t.Errorf("expected path 'test.db', got '%s'", config.Path)
	}
	if config.MaxOpenConns != 10 {
		t.Errorf("expected MaxOpenConns 10, got %d", config.MaxOpenConns)
	}
	if config.BusyTimeout != 5*time.Second {
		t.Errorf("expected BusyTimeout 5s, got %v", config.BusyTimeout)
	}
	if config.JournalMode != "WAL" {
		t.Errorf("expected JournalMode 'WAL', got '%s'", config.JournalMode)
	}

	if mem := DefaultConfig(MemoryPath); mem.MaxOpenConns != 1 {
		t.Errorf("expected a single connection for in-memory databases, got %d", mem.MaxOpenConns)
	}
}

func TestOpen(t *testing.T) {
	db, err := Open(DefaultConfig(MemoryPath))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("failed to ping database: %v", err)
	}
	if db.Conn() == nil {
		t.Error("expected non-nil connection")
	}
}

func TestOpenWithNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("expected error when opening with nil config")
	}
	if _, err := Open(&Config{}); err == nil {
		t.Error("expected error when opening with empty path")
	}
}

func TestOpen_AutoMigrateMemory(t *testing.T) {
	config := DefaultConfig(MemoryPath)
	config.AutoMigrate = true

	db, err := Open(config)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	assertTables(t, db, "decks", "deck_cards", "deck_history", "card_cache", "collections", "collection_cards")
}

func TestOpen_AutoMigrateFile(t *testing.T) {
	config := DefaultConfig(filepath.Join(t.TempDir(), "nested", "manaforge.db"))
	config.AutoMigrate = true

	db, err := Open(config)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	assertTables(t, db, "decks", "deck_cards", "deck_history", "card_cache", "collections", "collection_cards")
}

func TestClose(t *testing.T) {
	db, err := Open(DefaultConfig(MemoryPath))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("failed to close database: %v", err)
	}
	if err := db.Ping(); err == nil {
		t.Error("expected error when pinging closed database")
	}
}

func assertTables(t *testing.T, db *DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}
}
