package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/manaforge/internal/api/response"
	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/cards/scryfall"
	"github.com/ramonehamilton/manaforge/internal/commit"
)

// CardSearcher runs full-text card searches against the card database.
type CardSearcher interface {
	Search(ctx context.Context, query string, page int) (*scryfall.SearchResult, error)
}

// CardHandler serves card search and single-card lookups.
type CardHandler struct {
	searcher CardSearcher
	cards    commit.CardResolver
}

// NewCardHandler creates a new CardHandler. Either dependency may be nil, in
// which case its routes answer 503.
func NewCardHandler(searcher CardSearcher, resolver commit.CardResolver) *CardHandler {
	return &CardHandler{searcher: searcher, cards: resolver}
}

// CardSearchResponse is one page of search results.
type CardSearchResponse struct {
	Cards      []*cards.Card `json:"cards"`
	TotalCards int           `json:"total_cards"`
	Page       int           `json:"page"`
	HasMore    bool          `json:"has_more"`
}

// Search handles GET /cards/search?q=&page=.
func (h *CardHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.searcher == nil {
		response.ServiceUnavailable(w, errors.New("card search is not available"))
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		response.BadRequest(w, errors.New("q is required"))
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(w, errors.New("page must be a positive integer"))
			return
		}
		page = n
	}

	result, err := h.searcher.Search(r.Context(), query, page)
	if err != nil {
		response.Error(w, http.StatusBadGateway, err)
		return
	}

	found := make([]*cards.Card, 0, len(result.Data))
	for i := range result.Data {
		card, err := scryfall.ToCard(&result.Data[i])
		if err != nil {
			log.Printf("Warning: skipping malformed search result %s: %v", result.Data[i].ID, err)
			continue
		}
		found = append(found, card)
	}

	response.Success(w, CardSearchResponse{
		Cards:      found,
		TotalCards: result.TotalCards,
		Page:       page,
		HasMore:    result.HasMore,
	})
}

// GetCard handles GET /cards/{cardID}. Cards are served from the local
// cache when fresh.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	if h.cards == nil {
		response.ServiceUnavailable(w, errors.New("card data is not available"))
		return
	}

	id := chi.URLParam(r, "cardID")
	lookup, err := h.cards.Resolve(r.Context(), []string{id})
	if err != nil {
		response.InternalError(w, err)
		return
	}

	card, ok := lookup.Card(id)
	if !ok {
		response.NotFound(w, fmt.Errorf("card %s not found", id))
		return
	}
	response.Success(w, card)
}
