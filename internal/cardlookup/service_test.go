package cardlookup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/cards/scryfall"
	"github.com/ramonehamilton/manaforge/internal/metrics"
	"github.com/ramonehamilton/manaforge/internal/storage"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
	"github.com/ramonehamilton/manaforge/internal/storage/repository"
)

type fakeProvider struct {
	cards []scryfall.Card
	err   error
	calls [][]string
}

func (p *fakeProvider) GetCardsByIDs(_ context.Context, ids []string) ([]scryfall.Card, []string, error) {
	p.calls = append(p.calls, append([]string(nil), ids...))
	if p.err != nil {
		return nil, nil, p.err
	}
	byID := make(map[string]scryfall.Card, len(p.cards))
	for _, c := range p.cards {
		byID[c.ID] = c
	}
	var found []scryfall.Card
	var notFound []string
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			found = append(found, c)
		} else {
			notFound = append(notFound, id)
		}
	}
	return found, notFound, nil
}

// singleFakeProvider also serves the single-card endpoint.
type singleFakeProvider struct {
	fakeProvider
	singles []string
}

func (p *singleFakeProvider) GetCard(_ context.Context, id string) (*scryfall.Card, error) {
	p.singles = append(p.singles, id)
	if p.err != nil {
		return nil, p.err
	}
	for i := range p.cards {
		if p.cards[i].ID == id {
			return &p.cards[i], nil
		}
	}
	return nil, &scryfall.NotFoundError{URL: "/cards/" + id}
}

func setupCache(t *testing.T) repository.CardCacheRepository {
	t.Helper()
	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewCardCacheRepository(db.Conn())
}

func putCached(t *testing.T, cache repository.CardCacheRepository, card *cards.Card, fetchedAt time.Time) {
	t.Helper()
	payload, err := json.Marshal(card)
	require.NoError(t, err)
	require.NoError(t, cache.Put(context.Background(), &models.CachedCard{
		CardID:    card.ID,
		Payload:   payload,
		FetchedAt: fetchedAt.UTC(),
	}))
}

func TestResolve_FetchesAndCachesMisses(t *testing.T) {
	cache := setupCache(t)
	provider := &fakeProvider{cards: []scryfall.Card{
		{ID: "bolt", Name: "Lightning Bolt", ManaCost: "{R}", ColorIdentity: []string{"R"}},
	}}
	svc := NewService(cache, provider, time.Hour)

	lookup, err := svc.Resolve(context.Background(), []string{"bolt", "bolt", "missing"})
	require.NoError(t, err)

	card, ok := lookup.Card("bolt")
	require.True(t, ok)
	assert.Equal(t, "Lightning Bolt", card.Name)
	_, ok = lookup.Card("missing")
	assert.False(t, ok, "unresolvable ids are absent")
	assert.Equal(t, [][]string{{"bolt", "missing"}}, provider.calls)

	// Second resolve is served from the cache
	_, err = svc.Resolve(context.Background(), []string{"bolt"})
	require.NoError(t, err)
	assert.Len(t, provider.calls, 1)

	cached, err := cache.Get(context.Background(), "bolt")
	require.NoError(t, err)
	require.NotNil(t, cached)
}

func TestResolve_RefreshesStaleEntries(t *testing.T) {
	cache := setupCache(t)
	putCached(t, cache, &cards.Card{ID: "bolt", Name: "Old Name"}, time.Now().Add(-2*time.Hour))

	provider := &fakeProvider{cards: []scryfall.Card{{ID: "bolt", Name: "Lightning Bolt"}}}
	svc := NewService(cache, provider, time.Hour)

	lookup, err := svc.Resolve(context.Background(), []string{"bolt"})
	require.NoError(t, err)
	card, _ := lookup.Card("bolt")
	assert.Equal(t, "Lightning Bolt", card.Name)
	assert.Len(t, provider.calls, 1)
}

func TestResolve_ServesStaleWhenProviderFails(t *testing.T) {
	cache := setupCache(t)
	putCached(t, cache, &cards.Card{ID: "bolt", Name: "Lightning Bolt"}, time.Now().Add(-2*time.Hour))

	provider := &fakeProvider{err: errors.New("connection refused")}
	svc := NewService(cache, provider, time.Hour)

	lookup, err := svc.Resolve(context.Background(), []string{"bolt", "other"})
	require.NoError(t, err)
	card, ok := lookup.Card("bolt")
	require.True(t, ok)
	assert.Equal(t, "Lightning Bolt", card.Name)
	_, ok = lookup.Card("other")
	assert.False(t, ok)
}

func TestResolve_RecordsMetrics(t *testing.T) {
	cache := setupCache(t)
	putCached(t, cache, &cards.Card{ID: "bolt", Name: "Lightning Bolt"}, time.Now())

	collector := metrics.NewCollector()
	svc := NewService(cache, &fakeProvider{err: errors.New("timeout")}, time.Hour).WithMetrics(collector)

	_, err := svc.Resolve(context.Background(), []string{"bolt", "giant"})
	require.NoError(t, err)

	snap := collector.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.Equal(t, uint64(1), snap.ProviderErrors)
	assert.Equal(t, 1, snap.ResolveLatency.Count)
}

func TestResolve_CacheOnly(t *testing.T) {
	cache := setupCache(t)
	putCached(t, cache, &cards.Card{ID: "bolt", Name: "Lightning Bolt"}, time.Now())

	svc := NewService(cache, nil, 0)
	lookup, err := svc.Resolve(context.Background(), []string{"bolt", "other"})
	require.NoError(t, err)
	assert.Len(t, lookup, 1)
}

func TestResolve_SkipsMalformedProviderCards(t *testing.T) {
	cache := setupCache(t)
	provider := &fakeProvider{cards: []scryfall.Card{
		{ID: "weird", Name: "Weird", ColorIdentity: []string{"P"}},
	}}
	svc := NewService(cache, provider, time.Hour)

	lookup, err := svc.Resolve(context.Background(), []string{"weird"})
	require.NoError(t, err)
	assert.Empty(t, lookup)
}

func TestResolve_Empty(t *testing.T) {
	svc := NewService(setupCache(t), &fakeProvider{}, time.Hour)
	lookup, err := svc.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, lookup)
}

func TestPrune(t *testing.T) {
	cache := setupCache(t)
	putCached(t, cache, &cards.Card{ID: "old"}, time.Now().Add(-48*time.Hour))
	putCached(t, cache, &cards.Card{ID: "new"}, time.Now())

	svc := NewService(cache, nil, time.Hour)
	n, err := svc.Prune(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestResolve_SingleMissUsesSingleCardEndpoint(t *testing.T) {
	cache := setupCache(t)
	provider := &singleFakeProvider{fakeProvider: fakeProvider{cards: []scryfall.Card{
		{ID: "bolt", Name: "Lightning Bolt", ManaCost: "{R}", ColorIdentity: []string{"R"}},
		{ID: "shock", Name: "Shock", ManaCost: "{R}", ColorIdentity: []string{"R"}},
	}}}
	svc := NewService(cache, provider, time.Hour)

	lookup, err := svc.Resolve(context.Background(), []string{"bolt"})
	require.NoError(t, err)
	_, ok := lookup.Card("bolt")
	assert.True(t, ok)
	assert.Equal(t, []string{"bolt"}, provider.singles)
	assert.Empty(t, provider.calls, "bulk endpoint must not be used for one card")

	// Cached now.
	_, err = svc.Resolve(context.Background(), []string{"bolt"})
	require.NoError(t, err)
	assert.Len(t, provider.singles, 1)

	lookup, err = svc.Resolve(context.Background(), []string{"missing"})
	require.NoError(t, err)
	assert.Empty(t, lookup)

	_, err = svc.Resolve(context.Background(), []string{"shock", "other"})
	require.NoError(t, err)
	assert.Len(t, provider.calls, 1, "several misses use the bulk endpoint")
}
