// Package cardlookup resolves printing ids into card data, serving from the
// local card cache and falling back to the card provider for misses.
package cardlookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/cards/scryfall"
	"github.com/ramonehamilton/manaforge/internal/metrics"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
	"github.com/ramonehamilton/manaforge/internal/storage/repository"
)

// DefaultTTL is how long a cached card is considered fresh.
const DefaultTTL = 7 * 24 * time.Hour

// Provider fetches cards in bulk from the upstream card database.
type Provider interface {
	GetCardsByIDs(ctx context.Context, ids []string) (found []scryfall.Card, notFound []string, err error)
}

// singleProvider is implemented by providers with a cheaper path for one
// card than the bulk endpoint.
type singleProvider interface {
	GetCard(ctx context.Context, id string) (*scryfall.Card, error)
}

var _ singleProvider = (*scryfall.Client)(nil)

// Service resolves cards cache-first.
type Service struct {
	cache    repository.CardCacheRepository
	provider Provider
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Collector
}

// NewService creates a lookup service. A nil provider makes the service
// cache-only; ttl <= 0 uses DefaultTTL.
func NewService(cache repository.CardCacheRepository, provider Provider, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		cache:    cache,
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithMetrics makes the service record cache hits and lookup latency on m.
func (s *Service) WithMetrics(m *metrics.Collector) *Service {
	s.metrics = m
	return s
}

// Resolve returns card data for ids. Ids that cannot be resolved from the
// cache or the provider are absent from the result. Stale cache entries are
// served when the provider cannot be reached.
func (s *Service) Resolve(ctx context.Context, ids []string) (cards.MapLookup, error) {
	ids = dedupe(ids)
	result := make(cards.MapLookup, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	start := time.Now()
	cached, err := s.cache.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read card cache: %w", err)
	}

	now := s.now().UTC()
	stale := make(map[string]*cards.Card)
	var misses []string
	for _, id := range ids {
		entry, ok := cached[id]
		if !ok {
			misses = append(misses, id)
			continue
		}
		card, err := decode(entry)
		if err != nil {
			log.Printf("Warning: discarding cached card %s: %v", id, err)
			misses = append(misses, id)
			continue
		}
		if now.Sub(entry.FetchedAt) > s.ttl {
			stale[id] = card
			misses = append(misses, id)
			continue
		}
		result[id] = card
	}

	if len(misses) > 0 && s.provider != nil {
		fetched, err := s.fetch(ctx, misses, now)
		if err != nil {
			s.metrics.RecordProviderError()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Warning: card provider unavailable, serving %d cached cards: %v", len(stale), err)
		}
		for id, card := range fetched {
			result[id] = card
		}
	}

	for id, card := range stale {
		if _, ok := result[id]; !ok {
			result[id] = card
		}
	}

	s.metrics.RecordResolve(time.Since(start), len(ids)-len(misses), len(misses))
	return result, nil
}

// fetch loads ids from the provider and writes them to the cache.
func (s *Service) fetch(ctx context.Context, ids []string, now time.Time) (map[string]*cards.Card, error) {
	found, notFound, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(notFound) > 0 {
		log.Printf("Card provider could not find %d cards", len(notFound))
	}

	fetched := make(map[string]*cards.Card, len(found))
	entries := make([]*models.CachedCard, 0, len(found))
	for i := range found {
		card, err := scryfall.ToCard(&found[i])
		if err != nil {
			log.Printf("Warning: skipping malformed card %s: %v", found[i].ID, err)
			continue
		}
		payload, err := json.Marshal(card)
		if err != nil {
			return nil, fmt.Errorf("failed to encode card %s: %w", card.ID, err)
		}
		fetched[card.ID] = card
		entries = append(entries, &models.CachedCard{CardID: card.ID, Payload: payload, FetchedAt: now})
	}

	if err := s.cache.Put(ctx, entries...); err != nil {
		log.Printf("Warning: failed to cache %d cards: %v", len(entries), err)
	}
	return fetched, nil
}

// load asks the provider for ids, using the single-card endpoint when only
// one id is missing and the provider has one.
func (s *Service) load(ctx context.Context, ids []string) ([]scryfall.Card, []string, error) {
	single, ok := s.provider.(singleProvider)
	if !ok || len(ids) != 1 {
		return s.provider.GetCardsByIDs(ctx, ids)
	}

	card, err := single.GetCard(ctx, ids[0])
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, ids, nil
		}
		return nil, nil, err
	}
	return []scryfall.Card{*card}, nil, nil
}

// Prune removes cache entries older than maxAge.
func (s *Service) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.cache.DeleteOlderThan(ctx, s.now().UTC().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("Pruned %d cached cards", n)
	}
	return n, nil
}

func decode(entry *models.CachedCard) (*cards.Card, error) {
	var card cards.Card
	if err := json.Unmarshal(entry.Payload, &card); err != nil {
		return nil, err
	}
	if card.ID == "" {
		card.ID = entry.CardID
	}
	return &card, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
