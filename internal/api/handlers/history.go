package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/manaforge/internal/api/response"
	"github.com/ramonehamilton/manaforge/internal/api/websocket"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// HistoryHandler serves commit history.
type HistoryHandler struct {
	decks     DeckStore
	history   HistoryLister
	committer Committer
	publisher Publisher
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(decks DeckStore, history HistoryLister, committer Committer, publisher Publisher) *HistoryHandler {
	return &HistoryHandler{
		decks:     decks,
		history:   history,
		committer: committer,
		publisher: publisherOrNop(publisher),
	}
}

// ListHistory returns a deck's commits, newest first. The optional limit
// query parameter caps the number of entries.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(w, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	deck := loadDeck(w, r, h.decks)
	if deck == nil {
		return
	}

	entries, err := h.history.ListByDeck(r.Context(), deck.ID, limit)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	response.Success(w, entries)
}

// Revert commits the inverse of a history entry.
func (h *HistoryHandler) Revert(w http.ResponseWriter, r *http.Request) {
	historyID := chi.URLParam(r, "historyID")
	if historyID == "" {
		response.BadRequest(w, errors.New("history ID is required"))
		return
	}

	outcome, err := h.committer.Revert(r.Context(), historyID, UserID(r))
	if err != nil {
		writeCommitError(w, err)
		return
	}

	h.publisher.BroadcastEvent(websocket.Event{
		Type:   websocket.EventDeckReverted,
		DeckID: outcome.History.DeckID,
		Data:   outcome.History,
	})
	response.Success(w, outcome)
}
