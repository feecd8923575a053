// Package commit applies batches of staged changes to persisted decks and
// records each successful batch as an append-only history entry.
package commit

import (
	"context"
	"fmt"

	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// EntryStore is the card-entry half of the persistence collaborator.
type EntryStore interface {
	// FindCard returns the entry for (deck, card, category), or nil when
	// there is none.
	FindCard(ctx context.Context, deckID, cardID string, category models.Category) (*models.DeckCard, error)

	// InsertCard inserts a new entry and sets its ID.
	InsertCard(ctx context.Context, card *models.DeckCard) error

	// UpdateQuantity sets the quantity of an entry.
	UpdateQuantity(ctx context.Context, entryID int, quantity int) error

	// UpdateCategory moves an entry to another category.
	UpdateCategory(ctx context.Context, entryID int, category models.Category) error

	// DeleteCard removes an entry.
	DeleteCard(ctx context.Context, entryID int) error
}

// HistoryStore is the append-only history half of the persistence
// collaborator.
type HistoryStore interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
}

// Result summarizes an ApplyChanges run.
type Result struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"` // Changes whose target entry did not exist

	// Changes are the applied changes, each annotated with the entry state
	// it found. They are what the history entry records.
	Changes []models.StagedChange `json:"-"`
}

// ApplyChanges applies changes to the deck strictly in order. A change whose
// target entry is missing is skipped rather than treated as an error. The
// first store failure aborts the run; changes before it have already been
// applied unless the store is transactional.
func ApplyChanges(ctx context.Context, deckID string, changes []models.StagedChange, store EntryStore) (Result, error) {
	result := Result{Changes: make([]models.StagedChange, 0, len(changes))}
	for i, change := range changes {
		state, err := applyOne(ctx, deckID, change, store)
		if err != nil {
			return result, fmt.Errorf("failed to apply change %d (%s %s): %w", i, change.Action, change.CardID, err)
		}
		if state.Skipped {
			result.Skipped++
		} else {
			result.Applied++
		}
		change.Applied = &state
		result.Changes = append(result.Changes, change)
	}
	return result, nil
}

func categoryOr(c models.Category) models.Category {
	if c == "" {
		return models.CategoryMainboard
	}
	return c
}

var skipped = models.AppliedState{Skipped: true}

func applyOne(ctx context.Context, deckID string, change models.StagedChange, store EntryStore) (models.AppliedState, error) {
	category := categoryOr(change.Category)

	switch change.Action {
	case models.ActionAdd:
		existing, err := store.FindCard(ctx, deckID, change.CardID, category)
		if err != nil {
			return skipped, err
		}
		if existing != nil {
			state := models.AppliedState{PriorQuantity: existing.Quantity}
			return state, store.UpdateQuantity(ctx, existing.ID, existing.Quantity+change.Quantity)
		}
		return models.AppliedState{}, store.InsertCard(ctx, &models.DeckCard{
			DeckID:   deckID,
			CardID:   change.CardID,
			Quantity: change.Quantity,
			Category: category,
		})

	case models.ActionRemove:
		existing, err := store.FindCard(ctx, deckID, change.CardID, category)
		if err != nil || existing == nil {
			return skipped, err
		}
		state := models.AppliedState{PriorQuantity: existing.Quantity}
		return state, store.DeleteCard(ctx, existing.ID)

	case models.ActionUpdate:
		existing, err := store.FindCard(ctx, deckID, change.CardID, category)
		if err != nil || existing == nil {
			return skipped, err
		}
		state := models.AppliedState{PriorQuantity: existing.Quantity}
		if change.Quantity <= 0 {
			return state, store.DeleteCard(ctx, existing.ID)
		}
		return state, store.UpdateQuantity(ctx, existing.ID, change.Quantity)

	case models.ActionMove:
		if change.Category == "" {
			return skipped, nil
		}
		from := categoryOr(change.OldCategory)
		if from == change.Category {
			return skipped, nil
		}
		existing, err := store.FindCard(ctx, deckID, change.CardID, from)
		if err != nil || existing == nil {
			return skipped, err
		}
		// One row per (card, category): merge into the target if present.
		target, err := store.FindCard(ctx, deckID, change.CardID, change.Category)
		if err != nil {
			return skipped, err
		}
		state := models.AppliedState{PriorQuantity: existing.Quantity}
		if target != nil {
			state.TargetQuantity = target.Quantity
			if err := store.UpdateQuantity(ctx, target.ID, target.Quantity+existing.Quantity); err != nil {
				return skipped, err
			}
			return state, store.DeleteCard(ctx, existing.ID)
		}
		return state, store.UpdateCategory(ctx, existing.ID, change.Category)
	}

	return skipped, fmt.Errorf("unknown action %q", change.Action)
}
