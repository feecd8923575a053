package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ramonehamilton/manaforge/internal/storage"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// CardCacheRepository caches card payloads fetched from the card provider.
type CardCacheRepository interface {
	// Get retrieves a cached card. It returns nil when absent.
	Get(ctx context.Context, cardID string) (*models.CachedCard, error)

	// GetMany retrieves cached cards keyed by card id. Missing ids are absent
	// from the result.
	GetMany(ctx context.Context, cardIDs []string) (map[string]*models.CachedCard, error)

	// Put inserts or replaces cached cards.
	Put(ctx context.Context, cards ...*models.CachedCard) error

	// DeleteOlderThan removes entries fetched before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type cardCacheRepository struct {
	db storage.DBTX
}

// NewCardCacheRepository creates a new card cache repository.
func NewCardCacheRepository(db storage.DBTX) CardCacheRepository {
	return &cardCacheRepository{db: db}
}

func (r *cardCacheRepository) Get(ctx context.Context, cardID string) (*models.CachedCard, error) {
	card := &models.CachedCard{}
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT card_id, payload, fetched_at FROM card_cache WHERE card_id = ?`, cardID,
	).Scan(&card.CardID, &payload, &card.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached card: %w", err)
	}
	card.Payload = []byte(payload)
	return card, nil
}

// SQLite's default limit on bound parameters is 999.
const cacheBatchSize = 500

func (r *cardCacheRepository) GetMany(ctx context.Context, cardIDs []string) (map[string]*models.CachedCard, error) {
	result := make(map[string]*models.CachedCard, len(cardIDs))

	for start := 0; start < len(cardIDs); start += cacheBatchSize {
		end := min(start+cacheBatchSize, len(cardIDs))
		batch := cardIDs[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		rows, err := r.db.QueryContext(ctx,
			`SELECT card_id, payload, fetched_at FROM card_cache WHERE card_id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to get cached cards: %w", err)
		}

		for rows.Next() {
			card := &models.CachedCard{}
			var payload string
			if err := rows.Scan(&card.CardID, &payload, &card.FetchedAt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan cached card: %w", err)
			}
			card.Payload = []byte(payload)
			result[card.CardID] = card
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating cached cards: %w", err)
		}
	}

	return result, nil
}

func (r *cardCacheRepository) Put(ctx context.Context, cards ...*models.CachedCard) error {
	query := `
		INSERT INTO card_cache (card_id, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`
	for _, c := range cards {
		if _, err := r.db.ExecContext(ctx, query, c.CardID, string(c.Payload), c.FetchedAt); err != nil {
			return fmt.Errorf("failed to cache card %s: %w", c.CardID, err)
		}
	}
	return nil
}

func (r *cardCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM card_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune card cache: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune card cache: %w", err)
	}
	return n, nil
}
