package staging

import (
	"fmt"

	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// ParseAction validates an action name.
func ParseAction(s string) (models.ChangeAction, error) {
	switch a := models.ChangeAction(s); a {
	case models.ActionAdd, models.ActionRemove, models.ActionUpdate, models.ActionMove:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// DisplayText describes a staged change for review before commit.
func DisplayText(c models.StagedChange) string {
	switch c.Action {
	case models.ActionAdd:
		target := string(c.Category)
		if target == "" {
			target = "deck"
		}
		return fmt.Sprintf("Add %dx to %s", c.Quantity, target)
	case models.ActionRemove:
		return fmt.Sprintf("Remove %dx", c.Quantity)
	case models.ActionUpdate:
		old := "?"
		if c.OldQuantity != nil {
			old = fmt.Sprint(*c.OldQuantity)
		}
		return fmt.Sprintf("Update quantity: %s → %d", old, c.Quantity)
	case models.ActionMove:
		return fmt.Sprintf("Move from %s → %s", c.OldCategory, c.Category)
	}
	return "Unknown change"
}

// Icon returns the diff marker of an action.
func Icon(a models.ChangeAction) string {
	switch a {
	case models.ActionAdd:
		return "+"
	case models.ActionRemove:
		return "-"
	case models.ActionUpdate, models.ActionMove:
		return "~"
	}
	return "?"
}
