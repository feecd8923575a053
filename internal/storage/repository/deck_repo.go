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

// DeckRepository handles database operations for decks and their card
// entries.
type DeckRepository interface {
	// Create inserts a new deck into the database.
	Create(ctx context.Context, deck *models.Deck) error

	// Update updates an existing deck's metadata.
	Update(ctx context.Context, deck *models.Deck) error

	// GetByID retrieves a deck by its ID. It returns nil when absent.
	GetByID(ctx context.Context, id string) (*models.Deck, error)

	// List retrieves decks, newest first. An empty userID lists every deck.
	List(ctx context.Context, userID string) ([]*models.Deck, error)

	// Delete deletes a deck and its entries.
	Delete(ctx context.Context, id string) error

	// Touch sets a deck's modified time.
	Touch(ctx context.Context, id string, at time.Time) error

	// GetCards retrieves all card entries of a deck.
	GetCards(ctx context.Context, deckID string) ([]*models.DeckCard, error)

	// FindCard returns the entry for (deck, card, category) or nil.
	FindCard(ctx context.Context, deckID, cardID string, category models.Category) (*models.DeckCard, error)

	// InsertCard inserts a card entry and sets its ID.
	InsertCard(ctx context.Context, card *models.DeckCard) error

	// UpdateQuantity sets the quantity of an entry.
	UpdateQuantity(ctx context.Context, entryID int, quantity int) error

	// UpdateCategory moves an entry to another category.
	UpdateCategory(ctx context.Context, entryID int, category models.Category) error

	// DeleteCard removes an entry.
	DeleteCard(ctx context.Context, entryID int) error

	// WithTx returns a repository bound to tx.
	WithTx(tx storage.DBTX) DeckRepository
}

// deckRepository is the concrete implementation of DeckRepository.
type deckRepository struct {
	db storage.DBTX
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db storage.DBTX) DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) WithTx(tx storage.DBTX) DeckRepository {
	return &deckRepository{db: tx}
}

const deckColumns = `id, user_id, name, format, description, commander_id, created_at, modified_at`

// Create inserts a new deck into the database.
func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	query := `
		INSERT INTO decks (` + deckColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		deck.ID,
		deck.UserID,
		deck.Name,
		deck.Format,
		deck.Description,
		deck.CommanderID,
		deck.CreatedAt,
		deck.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}

	return nil
}

// Update updates an existing deck's metadata.
func (r *deckRepository) Update(ctx context.Context, deck *models.Deck) error {
	query := `
		UPDATE decks
		SET name = ?, format = ?, description = ?, commander_id = ?, modified_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		deck.Name,
		deck.Format,
		deck.Description,
		deck.CommanderID,
		deck.ModifiedAt,
		deck.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deck: %w", err)
	}

	return nil
}

// GetByID retrieves a deck by its ID.
func (r *deckRepository) GetByID(ctx context.Context, id string) (*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE id = ?`

	deck, err := scanDeck(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by id: %w", err)
	}

	return deck, nil
}

// List retrieves decks, newest first.
func (r *deckRepository) List(ctx context.Context, userID string) ([]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY modified_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer rows.Close()

	var decks []*models.Deck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		decks = append(decks, deck)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}

	return decks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (*models.Deck, error) {
	deck := &models.Deck{}
	err := row.Scan(
		&deck.ID,
		&deck.UserID,
		&deck.Name,
		&deck.Format,
		&deck.Description,
		&deck.CommanderID,
		&deck.CreatedAt,
		&deck.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return deck, nil
}

// Delete deletes a deck. Entries and history cascade.
func (r *deckRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	return nil
}

// Touch sets a deck's modified time.
func (r *deckRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE decks SET modified_at = ? WHERE id = ?`, at, id); err != nil {
		return fmt.Errorf("failed to touch deck: %w", err)
	}
	return nil
}

const cardColumns = `id, deck_id, card_id, quantity, category, notes`

// GetCards retrieves all card entries of a deck.
func (r *deckRepository) GetCards(ctx context.Context, deckID string) ([]*models.DeckCard, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM deck_cards
		WHERE deck_id = ?
		ORDER BY category, id
	`

	rows, err := r.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.DeckCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck card: %w", err)
		}
		cards = append(cards, card)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck cards: %w", err)
	}

	return cards, nil
}

func scanCard(row rowScanner) (*models.DeckCard, error) {
	card := &models.DeckCard{}
	err := row.Scan(
		&card.ID,
		&card.DeckID,
		&card.CardID,
		&card.Quantity,
		&card.Category,
		&card.Notes,
	)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// FindCard returns the entry for (deck, card, category) or nil.
func (r *deckRepository) FindCard(ctx context.Context, deckID, cardID string, category models.Category) (*models.DeckCard, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM deck_cards
		WHERE deck_id = ? AND card_id = ? AND category = ?
	`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, deckID, cardID, category))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find deck card: %w", err)
	}
	return card, nil
}

// InsertCard inserts a card entry and sets its ID.
func (r *deckRepository) InsertCard(ctx context.Context, card *models.DeckCard) error {
	query := `
		INSERT INTO deck_cards (deck_id, card_id, quantity, category, notes)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		card.DeckID,
		card.CardID,
		card.Quantity,
		card.Category,
		card.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert deck card: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get deck card id: %w", err)
	}
	card.ID = int(id)
	return nil
}

// UpdateQuantity sets the quantity of an entry.
func (r *deckRepository) UpdateQuantity(ctx context.Context, entryID int, quantity int) error {
	return r.execOne(ctx, "update deck card quantity",
		`UPDATE deck_cards SET quantity = ? WHERE id = ?`, quantity, entryID)
}

// UpdateCategory moves an entry to another category.
func (r *deckRepository) UpdateCategory(ctx context.Context, entryID int, category models.Category) error {
	return r.execOne(ctx, "update deck card category",
		`UPDATE deck_cards SET category = ? WHERE id = ?`, category, entryID)
}

// DeleteCard removes an entry.
func (r *deckRepository) DeleteCard(ctx context.Context, entryID int) error {
	return r.execOne(ctx, "delete deck card", `DELETE FROM deck_cards WHERE id = ?`, entryID)
}

// execOne runs a statement expected to affect exactly one row.
func (r *deckRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s: %w", op, sql.ErrNoRows)
	}
	return nil
}
