package commit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/format"
	"github.com/ramonehamilton/manaforge/internal/metrics"
	"github.com/ramonehamilton/manaforge/internal/staging"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

var (
	// ErrDeckNotFound is returned when the target deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrHistoryNotFound is returned by Revert for an unknown history entry.
	ErrHistoryNotFound = errors.New("history entry not found")

	// ErrNothingToRevert is returned when a history entry has no invertible
	// changes.
	ErrNothingToRevert = errors.New("nothing to revert")
)

// Stores groups the collaborators a commit writes to.
type Stores struct {
	Entries EntryStore
	History HistoryStore
}

// Transactor runs fn against stores bound to a single transaction. The
// transaction commits only when fn returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}

// DeckReader loads decks for existence checks and post-commit validation.
type DeckReader interface {
	GetByID(ctx context.Context, id string) (*models.Deck, error)
	GetCards(ctx context.Context, deckID string) ([]*models.DeckCard, error)
}

// HistoryReader loads a single history entry.
type HistoryReader interface {
	GetByID(ctx context.Context, id string) (*models.HistoryEntry, error)
}

// CardResolver resolves printing ids into card data.
type CardResolver interface {
	Resolve(ctx context.Context, ids []string) (cards.MapLookup, error)
}

// toucher is implemented by entry stores that track deck modification time.
type toucher interface {
	Touch(ctx context.Context, deckID string, at time.Time) error
}

// Options configures a Service.
type Options struct {
	// Transactor makes apply and history append atomic. When nil, Stores is
	// used and the two steps run one after the other.
	Transactor Transactor
	Stores     Stores

	Decks   DeckReader
	History HistoryReader

	// Cards enables post-commit validation when set.
	Cards CardResolver

	Metrics *metrics.Collector
}

// Outcome is the result of a successful commit.
type Outcome struct {
	History    *models.HistoryEntry     `json:"history"`
	Result     Result                   `json:"result"`
	Validation *format.ValidationResult `json:"validation,omitempty"`
}

// Service commits staged changes to persisted decks.
type Service struct {
	opts  Options
	now   func() time.Time
	newID func() string
}

// NewService creates a commit service.
func NewService(opts Options) *Service {
	return &Service{
		opts:  opts,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// CommitChanges applies changes to the deck and records them as one history
// entry attributed to userID.
func (s *Service) CommitChanges(ctx context.Context, deckID, userID string, changes []models.StagedChange, message string) (*Outcome, error) {
	if len(changes) == 0 {
		return nil, staging.ErrNoChanges
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, staging.ErrMessageRequired
	}
	if s.opts.Decks != nil {
		deck, err := s.opts.Decks.GetByID(ctx, deckID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deck: %w", err)
		}
		if deck == nil {
			return nil, ErrDeckNotFound
		}
	}

	out := &Outcome{}
	run := func(stores Stores) error {
		result, err := ApplyChanges(ctx, deckID, changes, stores.Entries)
		if err != nil {
			return err
		}

		committedAt := s.now().UTC()
		if t, ok := stores.Entries.(toucher); ok {
			if err := t.Touch(ctx, deckID, committedAt); err != nil {
				return err
			}
		}

		entry := &models.HistoryEntry{
			ID:          s.newID(),
			DeckID:      deckID,
			UserID:      userID,
			Changes:     result.Changes,
			Message:     message,
			CommittedAt: committedAt,
		}
		if err := stores.History.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}

		out.Result = result
		out.History = entry
		return nil
	}

	start := time.Now()
	var err error
	if s.opts.Transactor != nil {
		err = s.opts.Transactor.InTx(ctx, run)
	} else {
		err = run(s.opts.Stores)
	}
	s.opts.Metrics.RecordCommit(time.Since(start), out.Result.Applied, out.Result.Skipped, err)
	if err != nil {
		return nil, err
	}

	log.Printf("Committed %d changes to deck %s (%d skipped)", len(changes), deckID, out.Result.Skipped)

	if s.opts.Cards != nil && s.opts.Decks != nil {
		validation, err := s.Validate(ctx, deckID)
		if err != nil {
			log.Printf("Warning: post-commit validation of deck %s failed: %v", deckID, err)
		} else {
			out.Validation = validation
		}
	}
	return out, nil
}

// Revert commits the inverse of a prior history entry as a new commit. The
// original entry is left untouched.
func (s *Service) Revert(ctx context.Context, historyID, userID string) (*Outcome, error) {
	if s.opts.History == nil {
		return nil, errors.New("history reader not configured")
	}
	entry, err := s.opts.History.GetByID(ctx, historyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history entry: %w", err)
	}
	if entry == nil {
		return nil, ErrHistoryNotFound
	}

	inverse, err := Inverse(entry.Changes)
	if err != nil {
		return nil, err
	}
	if len(inverse) == 0 {
		return nil, ErrNothingToRevert
	}
	if s.opts.Decks != nil {
		entries, err := s.opts.Decks.GetCards(ctx, entry.DeckID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deck cards: %w", err)
		}
		if err := CheckReversible(inverse, entries); err != nil {
			return nil, err
		}
	}
	ts := s.now().UnixMilli()
	for i := range inverse {
		inverse[i].ID = s.newID()
		inverse[i].Timestamp = ts
	}

	out, err := s.CommitChanges(ctx, entry.DeckID, userID, inverse, fmt.Sprintf("Revert \"%s\"", entry.Message))
	if err != nil {
		return nil, err
	}
	s.opts.Metrics.RecordRevert()
	log.Printf("Reverted history entry %s on deck %s", historyID, entry.DeckID)
	return out, nil
}

// Validate loads a deck and its entries and runs the format rules over them.
func (s *Service) Validate(ctx context.Context, deckID string) (*format.ValidationResult, error) {
	if s.opts.Decks == nil || s.opts.Cards == nil {
		return nil, errors.New("validation is not configured")
	}

	deck, err := s.opts.Decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}
	if deck == nil {
		return nil, ErrDeckNotFound
	}
	entries, err := s.opts.Decks.GetCards(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck cards: %w", err)
	}

	lookup, err := s.opts.Cards.Resolve(ctx, CardIDs(deck, entries))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cards: %w", err)
	}

	result := format.ValidateDeck(deck, entries, lookup)
	return &result, nil
}

// CardIDs returns the distinct printing ids referenced by a deck, including
// its designated commander.
func CardIDs(deck *models.Deck, entries []*models.DeckCard) []string {
	seen := make(map[string]bool, len(entries)+1)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	add(deck.Commander())
	for _, e := range entries {
		add(e.CardID)
	}
	return ids
}
