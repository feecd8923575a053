package commit

import (
	"errors"
	"fmt"

	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// ErrNotInvertible is returned when a recorded change carries no applied
// state, so undoing it exactly is impossible.
var ErrNotInvertible = errors.New("change cannot be inverted")

// ErrRevertConflict is returned when the deck no longer holds the quantities
// a commit left behind.
var ErrRevertConflict = errors.New("deck changed since the commit")

// Inverse returns the changes that undo committed changes, in reverse order.
// It works from the entry state each change recorded when it was applied;
// skipped changes have nothing to undo. Every inverse change carries the
// quantity it expects to find in OldQuantity.
func Inverse(changes []models.StagedChange) ([]models.StagedChange, error) {
	out := make([]models.StagedChange, 0, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		state := c.Applied
		if state == nil {
			return nil, fmt.Errorf("%w: %s %s has no applied state", ErrNotInvertible, c.Action, c.CardID)
		}
		if state.Skipped {
			continue
		}

		category := categoryOr(c.Category)
		base := models.StagedChange{CardID: c.CardID, Category: category, Timestamp: c.Timestamp}

		switch c.Action {
		case models.ActionAdd:
			if state.PriorQuantity > 0 {
				out = append(out, setQuantity(base, state.PriorQuantity, state.PriorQuantity+c.Quantity))
			} else {
				inv := base
				inv.Action = models.ActionRemove
				inv.Quantity = c.Quantity
				inv.OldQuantity = intRef(c.Quantity)
				out = append(out, inv)
			}

		case models.ActionRemove:
			out = append(out, addQuantity(base, state.PriorQuantity))

		case models.ActionUpdate:
			if c.Quantity <= 0 {
				out = append(out, addQuantity(base, state.PriorQuantity))
			} else {
				out = append(out, setQuantity(base, state.PriorQuantity, c.Quantity))
			}

		case models.ActionMove:
			from := categoryOr(c.OldCategory)
			if state.TargetQuantity == 0 {
				inv := base
				inv.Action = models.ActionMove
				inv.Quantity = state.PriorQuantity
				inv.OldQuantity = intRef(state.PriorQuantity)
				inv.OldCategory = c.Category
				inv.Category = from
				out = append(out, inv)
				continue
			}
			// The move merged into an existing entry: split it back.
			out = append(out, setQuantity(base, state.TargetQuantity, state.TargetQuantity+state.PriorQuantity))
			restore := base
			restore.Category = from
			out = append(out, addQuantity(restore, state.PriorQuantity))

		default:
			return nil, fmt.Errorf("%w: unknown action %q", ErrNotInvertible, c.Action)
		}
	}
	return out, nil
}

func setQuantity(c models.StagedChange, quantity, current int) models.StagedChange {
	c.Action = models.ActionUpdate
	c.Quantity = quantity
	c.OldQuantity = intRef(current)
	return c
}

func addQuantity(c models.StagedChange, quantity int) models.StagedChange {
	c.Action = models.ActionAdd
	c.Quantity = quantity
	c.OldQuantity = intRef(0)
	return c
}

func intRef(v int) *int { return &v }

type slot struct {
	card     string
	category models.Category
}

// CheckReversible replays inverse against the deck's current entries and
// returns ErrRevertConflict when a change would not find the quantity it
// expects, so a revert never removes cards added after the commit.
func CheckReversible(inverse []models.StagedChange, entries []*models.DeckCard) error {
	current := make(map[slot]int, len(entries))
	for _, e := range entries {
		current[slot{e.CardID, categoryOr(e.Category)}] += e.Quantity
	}

	expect := func(s slot, want int) error {
		if got := current[s]; got != want {
			return fmt.Errorf("%w: %s in %s is %d, expected %d", ErrRevertConflict, s.card, s.category, got, want)
		}
		return nil
	}

	for _, c := range inverse {
		if c.OldQuantity == nil {
			return fmt.Errorf("%w: %s %s has no expected quantity", ErrNotInvertible, c.Action, c.CardID)
		}
		at := slot{c.CardID, categoryOr(c.Category)}

		switch c.Action {
		case models.ActionAdd:
			if err := expect(at, *c.OldQuantity); err != nil {
				return err
			}
			current[at] += c.Quantity
		case models.ActionRemove:
			if err := expect(at, *c.OldQuantity); err != nil {
				return err
			}
			current[at] = 0
		case models.ActionUpdate:
			if err := expect(at, *c.OldQuantity); err != nil {
				return err
			}
			current[at] = max(c.Quantity, 0)
		case models.ActionMove:
			from := slot{c.CardID, categoryOr(c.OldCategory)}
			if err := expect(from, *c.OldQuantity); err != nil {
				return err
			}
			if err := expect(at, 0); err != nil {
				return err
			}
			current[at] = current[from]
			current[from] = 0
		}
	}
	return nil
}
