// Package staging accumulates pending deck edits and hands them to a commit
// callback as one batch, in the manner of a version-control index.
package staging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

var (
	// ErrNoChanges is returned by Commit when nothing is staged.
	ErrNoChanges = errors.New("no changes to commit")

	// ErrMessageRequired is returned by Commit when the message is blank.
	ErrMessageRequired = errors.New("commit message required")

	// ErrCommitInProgress is returned when Commit is called while another
	// commit on the same buffer has not returned yet.
	ErrCommitInProgress = errors.New("commit already in progress")

	// ErrNoApplyFunc is returned by Commit when no apply function is given.
	ErrNoApplyFunc = errors.New("no apply function provided")
)

// ApplyFunc persists a batch of changes. It receives the buffer contents in
// staging order.
type ApplyFunc func(ctx context.Context, changes []models.StagedChange, message string) error

// Meta carries the optional fields of a staged change.
type Meta struct {
	OldQuantity *int
	Category    models.Category
	OldCategory models.Category
}

// Buffer is the staging area of one deck editing session. The zero value is
// not usable; create buffers with New.
type Buffer struct {
	mu         sync.Mutex
	deckID     string
	changes    []models.StagedChange
	committing bool
	err        error

	now   func() time.Time
	newID func() string
}

// New creates an empty buffer for the given deck.
func New(deckID string) *Buffer {
	return &Buffer{
		deckID: deckID,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// DeckID returns the deck this buffer stages changes for.
func (b *Buffer) DeckID() string {
	return b.deckID
}

// Stage appends a change. Changes are never merged at stage time; a card may
// appear in several pending changes.
func (b *Buffer) Stage(action models.ChangeAction, cardID string, quantity int, meta Meta) (models.StagedChange, error) {
	if err := checkChange(action, cardID, quantity, meta); err != nil {
		return models.StagedChange{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	change := models.StagedChange{
		ID:          b.newID(),
		Action:      action,
		CardID:      cardID,
		Quantity:    quantity,
		OldQuantity: meta.OldQuantity,
		Category:    meta.Category,
		OldCategory: meta.OldCategory,
		Timestamp:   b.now().UnixMilli(),
	}
	b.changes = append(b.changes, change)
	return change, nil
}

func checkChange(action models.ChangeAction, cardID string, quantity int, meta Meta) error {
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}
	if strings.TrimSpace(cardID) == "" {
		return errors.New("card id is required")
	}
	if quantity < 0 {
		return fmt.Errorf("quantity cannot be negative: %d", quantity)
	}
	if meta.Category != "" && !meta.Category.Valid() {
		return fmt.Errorf("unknown category %q", meta.Category)
	}
	if meta.OldCategory != "" && !meta.OldCategory.Valid() {
		return fmt.Errorf("unknown category %q", meta.OldCategory)
	}

	switch action {
	case models.ActionAdd:
		if quantity < 1 {
			return errors.New("add requires a quantity of at least 1")
		}
	case models.ActionUpdate:
		if meta.OldQuantity == nil {
			return errors.New("update requires the previous quantity")
		}
	case models.ActionMove:
		if meta.OldCategory == "" || meta.Category == "" {
			return errors.New("move requires both the previous and target category")
		}
	}
	return nil
}

// Discard removes the change with the given id. Unknown ids are ignored.
func (b *Buffer) Discard(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, c := range b.changes {
		if c.ID == id {
			b.changes = append(b.changes[:i:i], b.changes[i+1:]...)
			return
		}
	}
}

// Clear empties the buffer and forgets the last commit error.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = nil
	b.err = nil
}

// Commit hands every staged change to apply. The buffer is cleared only when
// apply succeeds; on failure the staged changes are kept for a retry and the
// error is both stored and returned.
func (b *Buffer) Commit(ctx context.Context, message string, apply ApplyFunc) error {
	if apply == nil {
		return ErrNoApplyFunc
	}

	b.mu.Lock()
	if b.committing {
		b.mu.Unlock()
		return ErrCommitInProgress
	}
	if len(b.changes) == 0 {
		b.err = ErrNoChanges
		b.mu.Unlock()
		return ErrNoChanges
	}
	if strings.TrimSpace(message) == "" {
		b.err = ErrMessageRequired
		b.mu.Unlock()
		return ErrMessageRequired
	}
	batch := make([]models.StagedChange, len(b.changes))
	copy(batch, b.changes)
	b.committing = true
	b.err = nil
	b.mu.Unlock()

	err := apply(ctx, batch, message)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.committing = false
	if err != nil {
		b.err = err
		return err
	}
	// Drop exactly the committed changes; anything staged while apply ran
	// stays pending.
	committed := make(map[string]bool, len(batch))
	for _, c := range batch {
		committed[c.ID] = true
	}
	var remaining []models.StagedChange
	for _, c := range b.changes {
		if !committed[c.ID] {
			remaining = append(remaining, c)
		}
	}
	b.changes = remaining
	return nil
}

// Changes returns a copy of the staged changes in staging order.
func (b *Buffer) Changes() []models.StagedChange {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.StagedChange, len(b.changes))
	copy(out, b.changes)
	return out
}

// Len returns the number of staged changes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}

// HasChanges reports whether anything is staged.
func (b *Buffer) HasChanges() bool {
	return b.Len() > 0
}

// Err returns the error of the last failed commit, if any.
func (b *Buffer) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// IsCommitting reports whether a commit is in flight.
func (b *Buffer) IsCommitting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committing
}

// HasChangesForCard reports whether any staged change targets cardID.
func (b *Buffer) HasChangesForCard(cardID string) bool {
	return len(b.ChangesForCard(cardID)) > 0
}

// ChangesForCard returns the staged changes targeting cardID.
func (b *Buffer) ChangesForCard(cardID string) []models.StagedChange {
	return b.filter(func(c models.StagedChange) bool { return c.CardID == cardID })
}

// ChangesByAction returns the staged changes of one action type.
func (b *Buffer) ChangesByAction(action models.ChangeAction) []models.StagedChange {
	return b.filter(func(c models.StagedChange) bool { return c.Action == action })
}

func (b *Buffer) filter(keep func(models.StagedChange) bool) []models.StagedChange {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.StagedChange
	for _, c := range b.changes {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
