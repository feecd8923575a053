package models

import "time"

// Category is the bucket a card entry occupies within a deck.
type Category string

const (
	CategoryCommander  Category = "commander"
	CategoryMainboard  Category = "mainboard"
	CategorySideboard  Category = "sideboard"
	CategoryMaybeboard Category = "maybeboard"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryCommander,
	CategoryMainboard,
	CategorySideboard,
	CategoryMaybeboard,
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCommander, CategoryMainboard, CategorySideboard, CategoryMaybeboard:
		return true
	}
	return false
}

// CountsTowardDeck reports whether entries in c are part of the playable
// deck (mainboard plus commander).
func (c Category) CountsTowardDeck() bool {
	return c == CategoryMainboard || c == CategoryCommander
}

// Deck represents a deck list.
type Deck struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Format      string    `json:"format"`
	Description *string   `json:"description,omitempty"`  // Nullable
	CommanderID *string   `json:"commander_id,omitempty"` // Nullable, printing id of the designated commander
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// Commander returns the designated commander printing id, or "".
func (d *Deck) Commander() string {
	if d == nil || d.CommanderID == nil {
		return ""
	}
	return *d.CommanderID
}

// DeckCard represents a card in a deck. Quantity is cumulative: there is at
// most one row per (deck, card, category).
type DeckCard struct {
	ID       int      `json:"id"`
	DeckID   string   `json:"deck_id"`
	CardID   string   `json:"scryfall_id"`
	Quantity int      `json:"quantity"`
	Category Category `json:"category"`
	Notes    *string  `json:"notes,omitempty"` // Nullable
}

// ChangeAction is the kind of edit a staged change performs.
type ChangeAction string

const (
	ActionAdd    ChangeAction = "add"
	ActionRemove ChangeAction = "remove"
	ActionUpdate ChangeAction = "update"
	ActionMove   ChangeAction = "move"
)

// StagedChange is a pending edit to a deck's card list. Once committed it is
// stored inside a HistoryEntry along with the Applied state it saw.
type StagedChange struct {
	ID          string       `json:"id"`
	Action      ChangeAction `json:"action"`
	CardID      string       `json:"scryfall_id"`
	Quantity    int          `json:"quantity"`
	OldQuantity *int         `json:"old_quantity,omitempty"`
	Category    Category     `json:"category,omitempty"`
	OldCategory Category     `json:"old_category,omitempty"`
	Timestamp   int64        `json:"timestamp"` // Unix milliseconds

	// Applied is the entry state seen when the change was committed. It is
	// nil while the change is only staged.
	Applied *AppliedState `json:"applied,omitempty"`
}

// AppliedState records what a committed change found in the deck.
type AppliedState struct {
	Skipped bool `json:"skipped,omitempty"` // The target entry did not exist

	// PriorQuantity is the quantity of the affected entry before the change,
	// 0 when an add created it. For a move it is the quantity moved.
	PriorQuantity int `json:"prior_quantity"`

	// TargetQuantity is the quantity already in the target category before
	// a move merged into it.
	TargetQuantity int `json:"target_quantity,omitempty"`
}

// HistoryEntry records one successful commit. Entries are append-only.
type HistoryEntry struct {
	ID          string         `json:"id"`
	DeckID      string         `json:"deck_id"`
	UserID      string         `json:"user_id"`
	Changes     []StagedChange `json:"changes"`
	Message     string         `json:"message"`
	CommittedAt time.Time      `json:"committed_at"`
}

// Collection is a set of cards a user owns.
type Collection struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"` // Nullable
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// CollectionCard is one owned printing. There is at most one row per
// (collection, card, foil).
type CollectionCard struct {
	ID           int       `json:"id"`
	CollectionID string    `json:"collection_id"`
	CardID       string    `json:"scryfall_id"`
	Quantity     int       `json:"quantity"`
	Condition    *string   `json:"condition,omitempty"` // Nullable, e.g. "NM", "LP"
	Foil         bool      `json:"foil"`
	AddedAt      time.Time `json:"added_at"`
}

// CachedCard is a card payload cached from the card-data provider.
type CachedCard struct {
	CardID    string
	Payload   []byte // JSON encoded cards.Card
	FetchedAt time.Time
}
