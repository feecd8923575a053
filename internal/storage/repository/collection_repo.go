package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramonehamilton/manaforge/internal/storage"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// CollectionRepository handles database operations for card collections.
type CollectionRepository interface {
	// Create inserts a new collection.
	Create(ctx context.Context, collection *models.Collection) error

	// Update updates a collection's name and description.
	Update(ctx context.Context, collection *models.Collection) error

	// GetByID retrieves a collection by its ID. It returns nil when absent.
	GetByID(ctx context.Context, id string) (*models.Collection, error)

	// List retrieves a user's collections, newest first.
	List(ctx context.Context, userID string) ([]*models.Collection, error)

	// Delete deletes a collection and its cards.
	Delete(ctx context.Context, id string) error

	// Touch sets a collection's modified time.
	Touch(ctx context.Context, id string, at time.Time) error

	// GetCards retrieves every card of a collection.
	GetCards(ctx context.Context, collectionID string) ([]*models.CollectionCard, error)

	// GetCard retrieves one collection entry. It returns nil when absent.
	GetCard(ctx context.Context, entryID int) (*models.CollectionCard, error)

	// AddCard inserts an entry, or adds its quantity to the existing entry
	// for the same (collection, card, foil). card.ID and card.Quantity are
	// set to the stored values.
	AddCard(ctx context.Context, card *models.CollectionCard) error

	// UpdateCard sets an entry's quantity, condition and foil flag.
	UpdateCard(ctx context.Context, card *models.CollectionCard) error

	// RemoveCard deletes an entry.
	RemoveCard(ctx context.Context, entryID int) error

	// Owned totals the copies of each printing across a user's collections.
	Owned(ctx context.Context, userID string) (map[string]int, error)
}

type collectionRepository struct {
	db storage.DBTX
}

// NewCollectionRepository creates a new collection repository.
func NewCollectionRepository(db storage.DBTX) CollectionRepository {
	return &collectionRepository{db: db}
}

const collectionColumns = `id, user_id, name, description, created_at, modified_at`

func (r *collectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	query := `
		INSERT INTO collections (` + collectionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		collection.ID,
		collection.UserID,
		collection.Name,
		collection.Description,
		collection.CreatedAt,
		collection.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	query := `
		UPDATE collections
		SET name = ?, description = ?, modified_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		collection.Name,
		collection.Description,
		collection.ModifiedAt,
		collection.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE id = ?`

	collection, err := scanCollection(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection by id: %w", err)
	}
	return collection, nil
}

func (r *collectionRepository) List(ctx context.Context, userID string) ([]*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE user_id = ? ORDER BY modified_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var collections []*models.Collection
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, collection)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collections: %w", err)
	}
	return collections, nil
}

func scanCollection(row rowScanner) (*models.Collection, error) {
	c := &models.Collection{}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Description,
		&c.CreatedAt,
		&c.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete deletes a collection. Its cards cascade.
func (r *collectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

func (r *collectionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE collections SET modified_at = ? WHERE id = ?`, at, id); err != nil {
		return fmt.Errorf("failed to touch collection: %w", err)
	}
	return nil
}

const collectionCardColumns = `id, collection_id, card_id, quantity, condition, foil, added_at`

func (r *collectionRepository) GetCards(ctx context.Context, collectionID string) ([]*models.CollectionCard, error) {
	query := `
		SELECT ` + collectionCardColumns + `
		FROM collection_cards
		WHERE collection_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.CollectionCard
	for rows.Next() {
		card, err := scanCollectionCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection card: %w", err)
		}
		cards = append(cards, card)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection cards: %w", err)
	}
	return cards, nil
}

func scanCollectionCard(row rowScanner) (*models.CollectionCard, error) {
	card := &models.CollectionCard{}
	err := row.Scan(
		&card.ID,
		&card.CollectionID,
		&card.CardID,
		&card.Quantity,
		&card.Condition,
		&card.Foil,
		&card.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (r *collectionRepository) GetCard(ctx context.Context, entryID int) (*models.CollectionCard, error) {
	query := `SELECT ` + collectionCardColumns + ` FROM collection_cards WHERE id = ?`

	card, err := scanCollectionCard(r.db.QueryRowContext(ctx, query, entryID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection card: %w", err)
	}
	return card, nil
}

func (r *collectionRepository) AddCard(ctx context.Context, card *models.CollectionCard) error {
	query := `
		INSERT INTO collection_cards (collection_id, card_id, quantity, condition, foil, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, card_id, foil)
		DO UPDATE SET quantity = quantity + excluded.quantity
		RETURNING id, quantity
	`

	err := r.db.QueryRowContext(ctx, query,
		card.CollectionID,
		card.CardID,
		card.Quantity,
		card.Condition,
		card.Foil,
		card.AddedAt,
	).Scan(&card.ID, &card.Quantity)
	if err != nil {
		return fmt.Errorf("failed to add collection card: %w", err)
	}
	return nil
}

func (r *collectionRepository) UpdateCard(ctx context.Context, card *models.CollectionCard) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE collection_cards SET quantity = ?, condition = ?, foil = ? WHERE id = ?`,
		card.Quantity, card.Condition, card.Foil, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update collection card: %w", err)
	}
	return requireOne(result, "update collection card")
}

func (r *collectionRepository) RemoveCard(ctx context.Context, entryID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM collection_cards WHERE id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("failed to remove collection card: %w", err)
	}
	return requireOne(result, "remove collection card")
}

func (r *collectionRepository) Owned(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT cc.card_id, SUM(cc.quantity)
		FROM collection_cards cc
		JOIN collections c ON c.id = cc.collection_id
		WHERE c.user_id = ?
		GROUP BY cc.card_id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count owned cards: %w", err)
	}
	defer rows.Close()

	owned := make(map[string]int)
	for rows.Next() {
		var cardID string
		var total int
		if err := rows.Scan(&cardID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan owned card: %w", err)
		}
		owned[cardID] = total
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owned cards: %w", err)
	}
	return owned, nil
}

// requireOne fails with sql.ErrNoRows when a statement matched no row.
func requireOne(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s: %w", op, sql.ErrNoRows)
	}
	return nil
}
