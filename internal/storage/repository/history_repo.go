package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ramonehamilton/manaforge/internal/storage"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// HistoryRepository stores commit history. Entries are never updated or
// deleted through this interface.
type HistoryRepository interface {
	// Append inserts a history entry.
	Append(ctx context.Context, entry *models.HistoryEntry) error

	// GetByID retrieves an entry. It returns nil when absent.
	GetByID(ctx context.Context, id string) (*models.HistoryEntry, error)

	// ListByDeck retrieves a deck's history, newest first. limit <= 0
	// returns every entry.
	ListByDeck(ctx context.Context, deckID string, limit int) ([]*models.HistoryEntry, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx storage.DBTX) HistoryRepository
}

type historyRepository struct {
	db storage.DBTX
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db storage.DBTX) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) WithTx(tx storage.DBTX) HistoryRepository {
	return &historyRepository{db: tx}
}

func (r *historyRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	query := `
		INSERT INTO deck_history (id, deck_id, user_id, changes, message, committed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.DeckID,
		entry.UserID,
		string(changes),
		entry.Message,
		entry.CommittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (r *historyRepository) GetByID(ctx context.Context, id string) (*models.HistoryEntry, error) {
	query := `
		SELECT id, deck_id, user_id, changes, message, committed_at
		FROM deck_history
		WHERE id = ?
	`

	entry, err := scanHistory(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return entry, nil
}

func (r *historyRepository) ListByDeck(ctx context.Context, deckID string, limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, deck_id, user_id, changes, message, committed_at
		FROM deck_history
		WHERE deck_id = ?
		ORDER BY committed_at DESC, rowid DESC
	`
	args := []any{deckID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

func scanHistory(row rowScanner) (*models.HistoryEntry, error) {
	entry := &models.HistoryEntry{}
	var changes string
	err := row.Scan(
		&entry.ID,
		&entry.DeckID,
		&entry.UserID,
		&changes,
		&entry.Message,
		&entry.CommittedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(changes), &entry.Changes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
	}
	return entry, nil
}
