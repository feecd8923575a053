package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ramonehamilton/manaforge/internal/api/response"
	"github.com/ramonehamilton/manaforge/internal/api/websocket"
	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/commit"
	"github.com/ramonehamilton/manaforge/internal/deckstats"
	"github.com/ramonehamilton/manaforge/internal/format"
	"github.com/ramonehamilton/manaforge/internal/staging"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// DeckHandler handles deck-related API requests.
type DeckHandler struct {
	decks     DeckStore
	cards     commit.CardResolver
	sessions  *staging.Registry
	publisher Publisher
}

// NewDeckHandler creates a new DeckHandler. cards may be nil, in which case
// endpoints that need card data respond 503.
func NewDeckHandler(decks DeckStore, resolver commit.CardResolver, sessions *staging.Registry, publisher Publisher) *DeckHandler {
	return &DeckHandler{
		decks:     decks,
		cards:     resolver,
		sessions:  sessions,
		publisher: publisherOrNop(publisher),
	}
}

// DeckWithCards is a deck together with its entries.
type DeckWithCards struct {
	Deck    *models.Deck        `json:"deck"`
	Cards   []*models.DeckCard  `json:"cards"`
	Summary *format.QuickResult `json:"summary,omitempty"`
}

// ListDecks returns the caller's decks.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.decks.List(r.Context(), UserID(r))
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if decks == nil {
		decks = []*models.Deck{}
	}
	response.Success(w, decks)
}

// CreateDeckRequest represents a request to create a deck.
type CreateDeckRequest struct {
	Name        string  `json:"name"`
	Format      string  `json:"format"`
	Description *string `json:"description,omitempty"`
	CommanderID *string `json:"commander_id,omitempty"`
}

// CreateDeck creates a new deck.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		response.BadRequest(w, errors.New("deck name is required"))
		return
	}
	f, err := format.Parse(req.Format)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	now := time.Now().UTC()
	deck := &models.Deck{
		ID:          uuid.New().String(),
		UserID:      UserID(r),
		Name:        strings.TrimSpace(req.Name),
		Format:      string(f),
		Description: req.Description,
		CommanderID: req.CommanderID,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if err := h.decks.Create(r.Context(), deck); err != nil {
		response.InternalError(w, err)
		return
	}

	response.Created(w, deck)
}

// loadDeck fetches the deck named by the deckID URL parameter, writing an
// error response and returning nil when it cannot.
func (h *DeckHandler) loadDeck(w http.ResponseWriter, r *http.Request) *models.Deck {
	return loadDeck(w, r, h.decks)
}

func loadDeck(w http.ResponseWriter, r *http.Request, decks DeckStore) *models.Deck {
	deckID := chi.URLParam(r, "deckID")
	if deckID == "" {
		response.BadRequest(w, errors.New("deck ID is required"))
		return nil
	}

	deck, err := decks.GetByID(r.Context(), deckID)
	if err != nil {
		response.InternalError(w, err)
		return nil
	}
	if deck == nil {
		response.NotFound(w, commit.ErrDeckNotFound)
		return nil
	}
	return deck
}

// GetDeck returns a single deck with its cards and a size summary.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deck := h.loadDeck(w, r)
	if deck == nil {
		return
	}

	entries, err := h.decks.GetCards(r.Context(), deck.ID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.DeckCard{}
	}

	result := &DeckWithCards{Deck: deck, Cards: entries}
	if f, err := format.Parse(deck.Format); err == nil {
		count, hasCommander := 0, deck.Commander() != ""
		for _, e := range entries {
			if e.Category.CountsTowardDeck() {
				count += e.Quantity
			}
			if e.Category == models.CategoryCommander {
				hasCommander = true
			}
		}
		summary := format.QuickValidate(f, count, hasCommander)
		result.Summary = &summary
	}

	response.Success(w, result)
}

// UpdateDeckRequest represents a request to update a deck.
type UpdateDeckRequest struct {
	Name        *string `json:"name,omitempty"`
	Format      *string `json:"format,omitempty"`
	Description *string `json:"description,omitempty"`
	CommanderID *string `json:"commander_id,omitempty"`
}

// UpdateDeck updates a deck's metadata.
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	var req UpdateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}

	deck := h.loadDeck(w, r)
	if deck == nil {
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			response.BadRequest(w, errors.New("deck name cannot be empty"))
			return
		}
		deck.Name = strings.TrimSpace(*req.Name)
	}
	if req.Format != nil {
		f, err := format.Parse(*req.Format)
		if err != nil {
			response.BadRequest(w, err)
			return
		}
		deck.Format = string(f)
	}
	if req.Description != nil {
		deck.Description = req.Description
	}
	if req.CommanderID != nil {
		// An empty id clears the designated commander
		if *req.CommanderID == "" {
			deck.CommanderID = nil
		} else {
			deck.CommanderID = req.CommanderID
		}
	}
	deck.ModifiedAt = time.Now().UTC()

	if err := h.decks.Update(r.Context(), deck); err != nil {
		response.InternalError(w, err)
		return
	}

	response.Success(w, deck)
}

// DeleteDeck deletes a deck along with its history and open staging
// sessions.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	deck := h.loadDeck(w, r)
	if deck == nil {
		return
	}

	if err := h.decks.Delete(r.Context(), deck.ID); err != nil {
		response.InternalError(w, err)
		return
	}
	if h.sessions != nil {
		h.sessions.DropDeck(deck.ID)
	}
	h.publisher.BroadcastEvent(websocket.Event{Type: websocket.EventDeckDeleted, DeckID: deck.ID})

	response.NoContent(w)
}

// resolve loads a deck's entries and the card data they reference.
func (h *DeckHandler) resolve(w http.ResponseWriter, r *http.Request, deck *models.Deck, extra ...string) ([]*models.DeckCard, cards.MapLookup, bool) {
	if h.cards == nil {
		response.ServiceUnavailable(w, errors.New("card data is not available"))
		return nil, nil, false
	}

	entries, err := h.decks.GetCards(r.Context(), deck.ID)
	if err != nil {
		response.InternalError(w, err)
		return nil, nil, false
	}

	ids := append(commit.CardIDs(deck, entries), extra...)
	lookup, err := h.cards.Resolve(r.Context(), ids)
	if err != nil {
		response.InternalError(w, err)
		return nil, nil, false
	}
	return entries, lookup, true
}

// ValidationResponse is the result of validating a deck.
type ValidationResponse struct {
	format.ValidationResult
	Badge string `json:"badge"`
}

// ValidateDeck runs the format rules over a deck.
func (h *DeckHandler) ValidateDeck(w http.ResponseWriter, r *http.Request) {
	deck := h.loadDeck(w, r)
	if deck == nil {
		return
	}
	entries, lookup, ok := h.resolve(w, r, deck)
	if !ok {
		return
	}

	result := format.ValidateDeck(deck, entries, lookup)
	response.Success(w, ValidationResponse{ValidationResult: result, Badge: format.BadgeText(result)})
}

// GetDeckStats returns composition statistics for a deck.
func (h *DeckHandler) GetDeckStats(w http.ResponseWriter, r *http.Request) {
	deck := h.loadDeck(w, r)
	if deck == nil {
		return
	}
	entries, lookup, ok := h.resolve(w, r, deck)
	if !ok {
		return
	}

	response.Success(w, deckstats.Calculate(entries, lookup))
}

// CanAddRequest names the card to check.
type CanAddRequest struct {
	CardID string `json:"card_id"`
}

// CanAddCard checks whether one more copy of a card may be added to a deck.
func (h *DeckHandler) CanAddCard(w http.ResponseWriter, r *http.Request) {
	var req CanAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}
	if req.CardID == "" {
		response.BadRequest(w, errors.New("card_id is required"))
		return
	}

	deck := h.loadDeck(w, r)
	if deck == nil {
		return
	}
	entries, lookup, ok := h.resolve(w, r, deck, req.CardID)
	if !ok {
		return
	}

	card, found := lookup.Card(req.CardID)
	if !found {
		response.NotFound(w, errors.New("card not found"))
		return
	}

	response.Success(w, format.CanAddCard(card, deck, entries, format.CommanderCard(deck, entries, lookup)))
}
