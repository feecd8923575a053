package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ramonehamilton/manaforge/internal/api/response"
	"github.com/ramonehamilton/manaforge/internal/api/websocket"
	"github.com/ramonehamilton/manaforge/internal/commit"
	"github.com/ramonehamilton/manaforge/internal/staging"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// UserIDHeader carries the id of the calling user. Authentication happens
// upstream of this service.
const UserIDHeader = "X-User-ID"

// DefaultUserID is used when a request carries no user id.
const DefaultUserID = "local"

// UserID returns the calling user's id.
func UserID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserIDHeader)); id != "" {
		return id
	}
	return DefaultUserID
}

// DeckStore is the deck persistence used by the handlers.
type DeckStore interface {
	Create(ctx context.Context, deck *models.Deck) error
	Update(ctx context.Context, deck *models.Deck) error
	GetByID(ctx context.Context, id string) (*models.Deck, error)
	List(ctx context.Context, userID string) ([]*models.Deck, error)
	Delete(ctx context.Context, id string) error
	GetCards(ctx context.Context, deckID string) ([]*models.DeckCard, error)
}

// HistoryLister lists the commit history of a deck.
type HistoryLister interface {
	ListByDeck(ctx context.Context, deckID string, limit int) ([]*models.HistoryEntry, error)
}

// Committer commits and reverts deck changes.
type Committer interface {
	CommitChanges(ctx context.Context, deckID, userID string, changes []models.StagedChange, message string) (*commit.Outcome, error)
	Revert(ctx context.Context, historyID, userID string) (*commit.Outcome, error)
}

// Publisher broadcasts realtime events.
type Publisher interface {
	BroadcastEvent(event websocket.Event) bool
}

type nopPublisher struct{}

func (nopPublisher) BroadcastEvent(websocket.Event) bool { return false }

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

var errInvalidBody = errors.New("invalid request body")

// writeCommitError maps commit and staging errors to HTTP responses.
func writeCommitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, staging.ErrNoChanges),
		errors.Is(err, staging.ErrMessageRequired),
		errors.Is(err, commit.ErrNothingToRevert),
		errors.Is(err, commit.ErrNotInvertible):
		response.BadRequest(w, err)
	case errors.Is(err, staging.ErrCommitInProgress),
		errors.Is(err, commit.ErrRevertConflict):
		response.Conflict(w, err)
	case errors.Is(err, commit.ErrDeckNotFound),
		errors.Is(err, commit.ErrHistoryNotFound):
		response.NotFound(w, err)
	default:
		response.InternalError(w, err)
	}
}
