package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/manaforge/internal/api/response"
	"github.com/ramonehamilton/manaforge/internal/api/websocket"
	"github.com/ramonehamilton/manaforge/internal/commit"
	"github.com/ramonehamilton/manaforge/internal/staging"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// StagingHandler serves the per-user staging session of a deck and commits
// it.
type StagingHandler struct {
	sessions  *staging.Registry
	decks     DeckStore
	committer Committer
	publisher Publisher
}

// NewStagingHandler creates a new StagingHandler.
func NewStagingHandler(sessions *staging.Registry, decks DeckStore, committer Committer, publisher Publisher) *StagingHandler {
	return &StagingHandler{
		sessions:  sessions,
		decks:     decks,
		committer: committer,
		publisher: publisherOrNop(publisher),
	}
}

// StagedChangeView is a staged change with its display text.
type StagedChangeView struct {
	models.StagedChange
	Display string `json:"display"`
	Icon    string `json:"icon"`
}

// StagedResponse lists the pending changes of a session.
type StagedResponse struct {
	DeckID  string             `json:"deck_id"`
	Changes []StagedChangeView `json:"changes"`
	Count   int                `json:"count"`
	Error   string             `json:"error,omitempty"` // Last commit failure
}

func newStagedResponse(deckID string, buf *staging.Buffer) StagedResponse {
	resp := StagedResponse{DeckID: deckID, Changes: []StagedChangeView{}}
	if buf == nil {
		return resp
	}
	for _, c := range buf.Changes() {
		resp.Changes = append(resp.Changes, StagedChangeView{
			StagedChange: c,
			Display:      staging.DisplayText(c),
			Icon:         staging.Icon(c.Action),
		})
	}
	resp.Count = len(resp.Changes)
	if err := buf.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// GetStaged returns the caller's pending changes for a deck.
func (h *StagingHandler) GetStaged(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	buf, _ := h.sessions.Lookup(UserID(r), deckID)
	response.Success(w, newStagedResponse(deckID, buf))
}

// StageRequest describes a change to stage.
type StageRequest struct {
	Action      string          `json:"action"`
	CardID      string          `json:"card_id"`
	Quantity    int             `json:"quantity"`
	OldQuantity *int            `json:"old_quantity,omitempty"`
	Category    models.Category `json:"category,omitempty"`
	OldCategory models.Category `json:"old_category,omitempty"`
}

// Stage appends a change to the caller's session for a deck.
func (h *StagingHandler) Stage(w http.ResponseWriter, r *http.Request) {
	var req StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}

	action, err := staging.ParseAction(req.Action)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	deck := loadDeck(w, r, h.decks)
	if deck == nil {
		return
	}

	buf := h.sessions.Get(UserID(r), deck.ID)
	change, err := buf.Stage(action, req.CardID, req.Quantity, staging.Meta{
		OldQuantity: req.OldQuantity,
		Category:    req.Category,
		OldCategory: req.OldCategory,
	})
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	h.notify(deck.ID, buf)

	response.Created(w, StagedChangeView{
		StagedChange: change,
		Display:      staging.DisplayText(change),
		Icon:         staging.Icon(change.Action),
	})
}

// DiscardChange removes one pending change.
func (h *StagingHandler) DiscardChange(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if buf, ok := h.sessions.Lookup(UserID(r), deckID); ok {
		buf.Discard(chi.URLParam(r, "changeID"))
		h.notify(deckID, buf)
	}
	response.NoContent(w)
}

// ClearStaged drops every pending change of the caller's session.
func (h *StagingHandler) ClearStaged(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if buf, ok := h.sessions.Lookup(UserID(r), deckID); ok {
		buf.Clear()
		h.notify(deckID, buf)
	}
	response.NoContent(w)
}

// CommitRequest carries the commit message.
type CommitRequest struct {
	Message string `json:"message"`
}

// Commit applies the caller's pending changes to the deck as one commit.
func (h *StagingHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}

	deckID := chi.URLParam(r, "deckID")
	userID := UserID(r)
	buf, ok := h.sessions.Lookup(userID, deckID)
	if !ok {
		writeCommitError(w, staging.ErrNoChanges)
		return
	}

	var outcome *commit.Outcome
	err := buf.Commit(r.Context(), req.Message, func(ctx context.Context, changes []models.StagedChange, message string) error {
		var err error
		outcome, err = h.committer.CommitChanges(ctx, deckID, userID, changes, message)
		return err
	})
	if err != nil {
		writeCommitError(w, err)
		return
	}
	if outcome == nil {
		response.InternalError(w, errors.New("commit produced no result"))
		return
	}

	h.publisher.BroadcastEvent(websocket.Event{
		Type:   websocket.EventDeckCommitted,
		DeckID: deckID,
		Data:   outcome.History,
	})
	response.Success(w, outcome)
}

func (h *StagingHandler) notify(deckID string, buf *staging.Buffer) {
	h.publisher.BroadcastEvent(websocket.Event{
		Type:   websocket.EventStagingChanged,
		DeckID: deckID,
		Data:   map[string]int{"count": buf.Len()},
	})
}
