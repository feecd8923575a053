package format

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// ValidationResult is the verdict of ValidateDeck. Errors make a deck
// invalid; warnings are advisory.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`

	// Unresolved lists printing ids that the lookup could not resolve. Those
	// entries were left out of every card-level check.
	Unresolved []string `json:"unresolved,omitempty"`
}

// AddCheck is the verdict of CanAddCard.
type AddCheck struct {
	CanAdd bool   `json:"can_add"`
	Reason string `json:"reason,omitempty"`
}

// copyGroup accumulates quantities of one card across printings.
type copyGroup struct {
	name      string
	count     int
	basicLand bool
}

// ValidateDeck checks a deck and its entries against the rules of the deck's
// format. It never fails: every problem is reported in the result, in the
// order size, sideboard, copy limits, commander, color identity, legality.
// lookup is only read.
func ValidateDeck(deck *models.Deck, entries []*models.DeckCard, lookup cards.Lookup) ValidationResult {
	result := ValidationResult{Errors: []string{}, Warnings: []string{}}
	if deck == nil {
		result.Errors = append(result.Errors, "Deck is required")
		return result
	}

	f, err := Parse(deck.Format)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	r := f.Rules()

	entries = usable(entries, &result)

	var mainboard, sideboard, commanders []*models.DeckCard
	for _, e := range entries {
		switch e.Category {
		case models.CategoryCommander:
			commanders = append(commanders, e)
			mainboard = append(mainboard, e)
		case models.CategoryMainboard:
			mainboard = append(mainboard, e)
		case models.CategorySideboard:
			sideboard = append(sideboard, e)
		}
	}

	resolve := newResolver(lookup)

	// Deck size
	mainCount := sumQuantity(mainboard)
	sideCount := sumQuantity(sideboard)
	if r.ExactDeckSize > 0 {
		if mainCount != r.ExactDeckSize {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"%s decks must have exactly %d cards (currently %d)", f, r.ExactDeckSize, mainCount))
		}
	} else if mainCount < r.MinDeckSize {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Deck must have at least %d cards (currently %d)", r.MinDeckSize, mainCount))
	} else if r.MaxDeckSize > 0 && mainCount > r.MaxDeckSize {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Deck cannot have more than %d cards (currently %d)", r.MaxDeckSize, mainCount))
	}

	if r.AllowsSideboard && r.MaxSideboardSize > 0 && sideCount > r.MaxSideboardSize {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Sideboard cannot have more than %d cards (currently %d)", r.MaxSideboardSize, sideCount))
	}

	// Copy limits, grouped by oracle id and reported in first-seen order
	groups := make(map[string]*copyGroup)
	var order []string
	for _, e := range mainboard {
		card, ok := resolve.card(e.CardID)
		if !ok {
			continue
		}
		key := card.GroupKey()
		g, seen := groups[key]
		if !seen {
			g = &copyGroup{name: card.Name, basicLand: card.IsBasicLand()}
			groups[key] = g
			order = append(order, key)
		}
		g.count += e.Quantity
	}
	for _, key := range order {
		g := groups[key]
		if g.basicLand {
			continue
		}
		if g.count > r.MaxCopies {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"%s exceeds copy limit (%d/%d)", g.name, g.count, r.MaxCopies))
		}
	}

	// Commander configuration and color identity
	if r.RequiresCommander {
		switch {
		case len(commanders) == 0:
			result.Errors = append(result.Errors, "Commander decks must have a commander")
		case len(commanders) > 2:
			result.Errors = append(result.Errors, "Commander decks cannot have more than 2 commanders")
		case len(commanders) == 2:
			bothPartner := r.AllowsPartnerCommanders
			for _, e := range commanders {
				card, ok := resolve.card(e.CardID)
				if !ok || !card.HasPartner() {
					bothPartner = false
				}
			}
			if !bothPartner {
				result.Errors = append(result.Errors, "Both commanders must have Partner ability")
			}
		}

		if identity, ok := commanderIdentity(deck, commanders, resolve); ok {
			for _, e := range mainboard {
				card, ok := resolve.card(e.CardID)
				if !ok {
					continue
				}
				if !cards.WithinColorIdentity(card.ColorIdentity, identity) {
					result.Errors = append(result.Errors, fmt.Sprintf(
						"%s is outside commander's color identity", card.Name))
				}
			}
		}
	}

	// Format legality
	for _, e := range mainboard {
		card, ok := resolve.card(e.CardID)
		if !ok {
			continue
		}
		switch card.LegalityIn(string(f)) {
		case cards.Banned:
			result.Errors = append(result.Errors, fmt.Sprintf("%s is banned in %s", card.Name, f))
		case cards.NotLegal:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s is not legal in %s", card.Name, f))
		case cards.Restricted:
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s is restricted in %s", card.Name, f))
		}
	}

	for _, e := range entries {
		if e.Category == models.CategoryMaybeboard {
			continue
		}
		resolve.card(e.CardID)
	}
	result.Unresolved = resolve.unresolved()
	result.IsValid = len(result.Errors) == 0
	return result
}

// usable drops nil entries and reports entries whose quantity is below one.
// Neither kind takes part in any other check.
func usable(entries []*models.DeckCard, result *ValidationResult) []*models.DeckCard {
	out := make([]*models.DeckCard, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.Quantity < 1 {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"%s has an invalid quantity (%d)", e.CardID, e.Quantity))
			continue
		}
		out = append(out, e)
	}
	return out
}

// CommanderIdentity returns the combined color identity of the designated
// commander and every commander-category entry. ok is false when the deck
// has no commander entry or none of its commanders resolves.
func CommanderIdentity(deck *models.Deck, entries []*models.DeckCard, lookup cards.Lookup) ([]cards.Color, bool) {
	if deck == nil {
		return nil, false
	}
	var commanders []*models.DeckCard
	for _, e := range entries {
		if e != nil && e.Category == models.CategoryCommander && e.Quantity > 0 {
			commanders = append(commanders, e)
		}
	}
	return commanderIdentity(deck, commanders, newResolver(lookup))
}

// CommanderCard represents the deck's commanders as one card carrying their
// combined identity, for use with CanAddCard. It is nil when
// CommanderIdentity reports no commander.
func CommanderCard(deck *models.Deck, entries []*models.DeckCard, lookup cards.Lookup) *cards.Card {
	identity, ok := CommanderIdentity(deck, entries, lookup)
	if !ok {
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	add := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		if id == "" || lookup == nil {
			return
		}
		if card, ok := lookup.Card(id); ok && card != nil {
			names = append(names, card.Name)
		}
	}
	add(deck.Commander())
	for _, e := range entries {
		if e != nil && e.Category == models.CategoryCommander {
			add(e.CardID)
		}
	}
	return &cards.Card{Name: strings.Join(names, " & "), ColorIdentity: identity}
}

func commanderIdentity(deck *models.Deck, commanders []*models.DeckCard, resolve *resolver) ([]cards.Color, bool) {
	if len(commanders) == 0 {
		return nil, false
	}

	var identities [][]cards.Color
	if id := deck.Commander(); id != "" {
		if card, ok := resolve.card(id); ok {
			identities = append(identities, card.ColorIdentity)
		}
	}
	for _, e := range commanders {
		if card, ok := resolve.card(e.CardID); ok {
			identities = append(identities, card.ColorIdentity)
		}
	}
	if len(identities) == 0 {
		return nil, false
	}
	return cards.UnionIdentity(identities...), true
}

// CanAddCard is a read-only pre-check run before staging an addition.
// commander may be nil when the deck has none yet.
func CanAddCard(card *cards.Card, deck *models.Deck, existing []*models.DeckCard, commander *cards.Card) AddCheck {
	if card == nil {
		return AddCheck{Reason: "Card is required"}
	}
	if deck == nil {
		return AddCheck{Reason: "Deck is required"}
	}
	f, err := Parse(deck.Format)
	if err != nil {
		return AddCheck{Reason: err.Error()}
	}
	r := f.Rules()

	switch card.LegalityIn(string(f)) {
	case cards.Banned:
		return AddCheck{Reason: fmt.Sprintf("%s is banned in %s", card.Name, f)}
	case cards.NotLegal:
		return AddCheck{Reason: fmt.Sprintf("%s is not legal in %s", card.Name, f)}
	}

	if f == Commander && commander != nil {
		if !cards.WithinColorIdentity(card.ColorIdentity, commander.ColorIdentity) {
			return AddCheck{Reason: fmt.Sprintf("%s is outside commander's color identity", card.Name)}
		}
	}

	if !card.IsBasicLand() {
		count := 0
		for _, e := range existing {
			if e != nil && e.CardID == card.ID && e.Quantity > 0 {
				count += e.Quantity
			}
		}
		if count >= r.MaxCopies {
			return AddCheck{Reason: fmt.Sprintf("Maximum %d copies allowed", r.MaxCopies)}
		}
	}

	return AddCheck{CanAdd: true}
}

// QuickResult is the verdict of QuickValidate.
type QuickResult struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

// QuickValidate checks only the commander requirement and deck size, for
// list views that do not load card data.
func QuickValidate(f Format, count int, hasCommander bool) QuickResult {
	r := f.Rules()

	if r.RequiresCommander && !hasCommander {
		return QuickResult{Message: "Commander deck requires a commander"}
	}
	if r.ExactDeckSize > 0 && count != r.ExactDeckSize {
		return QuickResult{Message: fmt.Sprintf("Must have exactly %d cards (currently %d)", r.ExactDeckSize, count)}
	}
	if count < r.MinDeckSize {
		return QuickResult{Message: fmt.Sprintf("Must have at least %d cards (currently %d)", r.MinDeckSize, count)}
	}
	if r.MaxDeckSize > 0 && count > r.MaxDeckSize {
		return QuickResult{Message: fmt.Sprintf("Cannot exceed %d cards (currently %d)", r.MaxDeckSize, count)}
	}
	return QuickResult{IsValid: true}
}

// BadgeText summarizes a validation result for display.
func BadgeText(result ValidationResult) string {
	switch {
	case result.IsValid && len(result.Warnings) == 0:
		return "Valid"
	case result.IsValid:
		return "Valid (with warnings)"
	default:
		return "Invalid"
	}
}

func sumQuantity(entries []*models.DeckCard) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}

// resolver wraps a Lookup and remembers which ids failed to resolve.
type resolver struct {
	lookup  cards.Lookup
	seen    map[string]bool
	missing []string
}

func newResolver(lookup cards.Lookup) *resolver {
	return &resolver{lookup: lookup, seen: make(map[string]bool)}
}

func (r *resolver) card(id string) (*cards.Card, bool) {
	var card *cards.Card
	ok := false
	if r.lookup != nil {
		card, ok = r.lookup.Card(id)
		ok = ok && card != nil
	}
	if !ok && !r.seen[id] {
		r.seen[id] = true
		r.missing = append(r.missing, id)
	}
	return card, ok
}

func (r *resolver) unresolved() []string {
	return r.missing
}
