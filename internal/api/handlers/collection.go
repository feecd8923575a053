package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ramonehamilton/manaforge/internal/api/response"
	"github.com/ramonehamilton/manaforge/internal/api/websocket"
	"github.com/ramonehamilton/manaforge/internal/deckstats"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

var (
	errCollectionNotFound = errors.New("collection not found")
	errEntryNotFound      = errors.New("collection card not found")
)

// CollectionStore is the collection persistence used by the handlers.
type CollectionStore interface {
	Create(ctx context.Context, collection *models.Collection) error
	Update(ctx context.Context, collection *models.Collection) error
	GetByID(ctx context.Context, id string) (*models.Collection, error)
	List(ctx context.Context, userID string) ([]*models.Collection, error)
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string, at time.Time) error
	GetCards(ctx context.Context, collectionID string) ([]*models.CollectionCard, error)
	GetCard(ctx context.Context, entryID int) (*models.CollectionCard, error)
	AddCard(ctx context.Context, card *models.CollectionCard) error
	UpdateCard(ctx context.Context, card *models.CollectionCard) error
	RemoveCard(ctx context.Context, entryID int) error
	Owned(ctx context.Context, userID string) (map[string]int, error)
}

// CollectionHandler serves card collections.
type CollectionHandler struct {
	collections CollectionStore
	decks       DeckStore
	publisher   Publisher
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collections CollectionStore, decks DeckStore, publisher Publisher) *CollectionHandler {
	return &CollectionHandler{
		collections: collections,
		decks:       decks,
		publisher:   publisherOrNop(publisher),
	}
}

// CollectionSummary totals a collection.
type CollectionSummary struct {
	TotalCards  int `json:"total_cards"`
	UniqueCards int `json:"unique_cards"`
}

// CollectionWithCards is a collection with its cards.
type CollectionWithCards struct {
	Collection *models.Collection       `json:"collection"`
	Cards      []*models.CollectionCard `json:"cards"`
	Summary    CollectionSummary        `json:"summary"`
}

// CollectionRequest creates or renames a collection.
type CollectionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// ListCollections returns the calling user's collections.
func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.collections.List(r.Context(), UserID(r))
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if collections == nil {
		collections = []*models.Collection{}
	}
	response.Success(w, collections)
}

// CreateCollection creates a collection for the calling user.
func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.BadRequest(w, errors.New("collection name is required"))
		return
	}

	now := time.Now().UTC()
	collection := &models.Collection{
		ID:          uuid.New().String(),
		UserID:      UserID(r),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if err := h.collections.Create(r.Context(), collection); err != nil {
		response.InternalError(w, err)
		return
	}

	response.Created(w, collection)
}

func (h *CollectionHandler) loadCollection(w http.ResponseWriter, r *http.Request) *models.Collection {
	id := chi.URLParam(r, "collectionID")
	if id == "" {
		response.BadRequest(w, errors.New("collection ID is required"))
		return nil
	}

	collection, err := h.collections.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w, err)
		return nil
	}
	if collection == nil {
		response.NotFound(w, errCollectionNotFound)
		return nil
	}
	return collection
}

// GetCollection returns a collection with its cards and totals.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collection := h.loadCollection(w, r)
	if collection == nil {
		return
	}

	entries, err := h.collections.GetCards(r.Context(), collection.ID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.CollectionCard{}
	}

	summary := CollectionSummary{UniqueCards: len(entries)}
	for _, e := range entries {
		summary.TotalCards += e.Quantity
	}
	response.Success(w, CollectionWithCards{Collection: collection, Cards: entries, Summary: summary})
}

// UpdateCollection renames a collection or changes its description.
func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}

	collection := h.loadCollection(w, r)
	if collection == nil {
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		collection.Name = name
	}
	if req.Description != nil {
		collection.Description = req.Description
	}
	collection.ModifiedAt = time.Now().UTC()

	if err := h.collections.Update(r.Context(), collection); err != nil {
		response.InternalError(w, err)
		return
	}
	h.changed(collection.ID)
	response.Success(w, collection)
}

// DeleteCollection deletes a collection and its cards.
func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	collection := h.loadCollection(w, r)
	if collection == nil {
		return
	}

	if err := h.collections.Delete(r.Context(), collection.ID); err != nil {
		response.InternalError(w, err)
		return
	}
	h.changed(collection.ID)
	response.NoContent(w)
}

// AddCollectionCardRequest adds copies of a printing.
type AddCollectionCardRequest struct {
	CardID    string  `json:"scryfall_id"`
	Quantity  int     `json:"quantity"`
	Condition *string `json:"condition,omitempty"`
	Foil      bool    `json:"foil"`
}

// AddCard adds copies of a printing, merging with an existing entry for the
// same printing and finish. Quantity defaults to 1.
func (h *CollectionHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req AddCollectionCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}
	if req.CardID == "" {
		response.BadRequest(w, errors.New("scryfall_id is required"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		response.BadRequest(w, errors.New("quantity must be positive"))
		return
	}

	collection := h.loadCollection(w, r)
	if collection == nil {
		return
	}

	now := time.Now().UTC()
	card := &models.CollectionCard{
		CollectionID: collection.ID,
		CardID:       req.CardID,
		Quantity:     req.Quantity,
		Condition:    req.Condition,
		Foil:         req.Foil,
		AddedAt:      now,
	}
	if err := h.collections.AddCard(r.Context(), card); err != nil {
		response.InternalError(w, err)
		return
	}
	h.touch(r.Context(), collection.ID, now)

	response.Created(w, card)
}

// UpdateCollectionCardRequest changes an entry. Omitted fields are kept.
type UpdateCollectionCardRequest struct {
	Quantity  *int    `json:"quantity,omitempty"`
	Condition *string `json:"condition,omitempty"`
	Foil      *bool   `json:"foil,omitempty"`
}

// UpdateCard changes an entry. A quantity of zero or less removes it.
func (h *CollectionHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req UpdateCollectionCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errInvalidBody)
		return
	}

	collection, entry := h.loadEntry(w, r)
	if entry == nil {
		return
	}

	if req.Quantity != nil && *req.Quantity <= 0 {
		if err := h.collections.RemoveCard(r.Context(), entry.ID); err != nil {
			response.InternalError(w, err)
			return
		}
		h.touch(r.Context(), collection.ID, time.Now().UTC())
		response.NoContent(w)
		return
	}

	if req.Quantity != nil {
		entry.Quantity = *req.Quantity
	}
	if req.Condition != nil {
		if *req.Condition == "" {
			entry.Condition = nil
		} else {
			entry.Condition = req.Condition
		}
	}
	if req.Foil != nil {
		entry.Foil = *req.Foil
	}

	if err := h.collections.UpdateCard(r.Context(), entry); err != nil {
		response.InternalError(w, err)
		return
	}
	h.touch(r.Context(), collection.ID, time.Now().UTC())
	response.Success(w, entry)
}

// RemoveCard deletes an entry.
func (h *CollectionHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	collection, entry := h.loadEntry(w, r)
	if entry == nil {
		return
	}

	if err := h.collections.RemoveCard(r.Context(), entry.ID); err != nil {
		response.InternalError(w, err)
		return
	}
	h.touch(r.Context(), collection.ID, time.Now().UTC())
	response.NoContent(w)
}

// loadEntry resolves the entryID URL parameter within the collection named
// by the request.
func (h *CollectionHandler) loadEntry(w http.ResponseWriter, r *http.Request) (*models.Collection, *models.CollectionCard) {
	entryID, err := strconv.Atoi(chi.URLParam(r, "entryID"))
	if err != nil {
		response.BadRequest(w, errors.New("entry ID must be an integer"))
		return nil, nil
	}

	collection := h.loadCollection(w, r)
	if collection == nil {
		return nil, nil
	}

	entry, err := h.collections.GetCard(r.Context(), entryID)
	if err != nil {
		response.InternalError(w, err)
		return nil, nil
	}
	if entry == nil || entry.CollectionID != collection.ID {
		response.NotFound(w, errEntryNotFound)
		return nil, nil
	}
	return collection, entry
}

// DeckOwnership reports which cards of a deck the calling user is missing
// across all of their collections.
func (h *CollectionHandler) DeckOwnership(w http.ResponseWriter, r *http.Request) {
	deck := loadDeck(w, r, h.decks)
	if deck == nil {
		return
	}

	entries, err := h.decks.GetCards(r.Context(), deck.ID)
	if err != nil {
		response.InternalError(w, err)
		return
	}
	owned, err := h.collections.Owned(r.Context(), UserID(r))
	if err != nil {
		response.InternalError(w, err)
		return
	}

	response.Success(w, deckstats.CompareOwned(entries, owned))
}

func (h *CollectionHandler) touch(ctx context.Context, id string, at time.Time) {
	if err := h.collections.Touch(ctx, id, at); err != nil {
		log.Printf("Warning: failed to touch collection %s: %v", id, err)
	}
	h.changed(id)
}

func (h *CollectionHandler) changed(id string) {
	h.publisher.BroadcastEvent(websocket.Event{
		Type: websocket.EventCollectionChanged,
		Data: map[string]string{"collection_id": id},
	})
}
