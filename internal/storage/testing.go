package storage

import (
	"database/sql"
)

// NewTestDB wraps an existing connection, such as a sqlmock one, in a DB.
// This helper is exported for use in other package tests.
func NewTestDB(sqlDB *sql.DB) *DB {
	return &DB{conn: sqlDB}
}

// OpenMemory opens a migrated private in-memory database.
func OpenMemory() (*DB, error) {
	config := DefaultConfig(MemoryPath)
	config.AutoMigrate = true
	return Open(config)
}
