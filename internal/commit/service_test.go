package commit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/manaforge/internal/cards"
	"github.com/ramonehamilton/manaforge/internal/metrics"
	"github.com/ramonehamilton/manaforge/internal/staging"
	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// memDecks serves decks and entries from a memStore.
type memDecks struct {
	decks map[string]*models.Deck
	store *memStore
}

func (m *memDecks) GetByID(_ context.Context, id string) (*models.Deck, error) {
	return m.decks[id], nil
}

func (m *memDecks) GetCards(_ context.Context, deckID string) ([]*models.DeckCard, error) {
	return m.store.cards(deckID), nil
}

type memHistory struct{ store *memStore }

func (m memHistory) GetByID(_ context.Context, id string) (*models.HistoryEntry, error) {
	for _, h := range m.store.history {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, nil
}

type staticCards struct{ lookup cards.MapLookup }

func (s staticCards) Resolve(context.Context, []string) (cards.MapLookup, error) {
	return s.lookup, nil
}

// rollbackTransactor restores the store when fn fails.
type rollbackTransactor struct{ store *memStore }

func (r rollbackTransactor) InTx(_ context.Context, fn func(Stores) error) error {
	saved := make(map[int]models.DeckCard, len(r.store.entries))
	for id, e := range r.store.entries {
		saved[id] = *e
	}
	history := len(r.store.history)

	if err := fn(Stores{Entries: r.store, History: r.store}); err != nil {
		r.store.entries = make(map[int]*models.DeckCard, len(saved))
		for id, e := range saved {
			e := e
			r.store.entries[id] = &e
		}
		r.store.history = r.store.history[:history]
		return err
	}
	return nil
}

func newTestService(store *memStore, atomic bool) *Service {
	decks := &memDecks{decks: map[string]*models.Deck{
		"deck-1": {ID: "deck-1", UserID: "user-1", Format: "limited"},
	}, store: store}

	opts := Options{
		Stores:  Stores{Entries: store, History: store},
		Decks:   decks,
		History: memHistory{store},
	}
	if atomic {
		opts.Transactor = rollbackTransactor{store}
	}
	svc := NewService(opts)
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_CommitChanges(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, false)

	changes := []models.StagedChange{
		{ID: "c1", Action: models.ActionAdd, CardID: "A", Quantity: 2, Category: models.CategoryMainboard},
		{ID: "c2", Action: models.ActionUpdate, CardID: "A", Quantity: 5, OldQuantity: intPtr(2), Category: models.CategoryMainboard},
	}

	out, err := svc.CommitChanges(context.Background(), "deck-1", "user-1", changes, "  Initial build ")
	require.NoError(t, err)
	require.NotNil(t, out.History)

	assert.Equal(t, "id-1", out.History.ID)
	assert.Equal(t, "deck-1", out.History.DeckID)
	assert.Equal(t, "user-1", out.History.UserID)
	assert.Equal(t, "Initial build", out.History.Message)
	require.Len(t, out.History.Changes, 2)
	for i, c := range out.History.Changes {
		assert.Equal(t, changes[i].ID, c.ID)
		require.NotNil(t, c.Applied, "history records the applied state")
	}
	assert.Equal(t, 0, out.History.Changes[0].Applied.PriorQuantity)
	assert.Equal(t, 2, out.History.Changes[1].Applied.PriorQuantity)
	assert.Equal(t, 2, out.Result.Applied)
	assert.Zero(t, out.Result.Skipped)
	assert.Nil(t, out.Validation, "no validation without a card resolver")

	require.Len(t, store.history, 1)
	cards := store.cards("deck-1")
	require.Len(t, cards, 1)
	assert.Equal(t, 5, cards[0].Quantity)
}

func TestService_CommitPreconditions(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, false)
	ctx := context.Background()
	change := []models.StagedChange{{Action: models.ActionAdd, CardID: "A", Quantity: 1}}

	_, err := svc.CommitChanges(ctx, "deck-1", "user-1", nil, "msg")
	assert.ErrorIs(t, err, staging.ErrNoChanges)

	_, err = svc.CommitChanges(ctx, "deck-1", "user-1", change, " ")
	assert.ErrorIs(t, err, staging.ErrMessageRequired)

	_, err = svc.CommitChanges(ctx, "missing", "user-1", change, "msg")
	assert.ErrorIs(t, err, ErrDeckNotFound)

	assert.Empty(t, store.operations, "nothing is written when preconditions fail")
}

func TestService_HistoryFailureSequential(t *testing.T) {
	store := newMemStore()
	store.appendErr = errors.New("history table unavailable")
	svc := newTestService(store, false)

	_, err := svc.CommitChanges(context.Background(), "deck-1", "user-1",
		[]models.StagedChange{{Action: models.ActionAdd, CardID: "A", Quantity: 1}}, "msg")
	require.ErrorIs(t, err, store.appendErr)

	// Without a transactor the applied change stays
	assert.Len(t, store.cards("deck-1"), 1)
}

func TestService_HistoryFailureAtomic(t *testing.T) {
	store := newMemStore()
	store.appendErr = errors.New("history table unavailable")
	svc := newTestService(store, true)

	_, err := svc.CommitChanges(context.Background(), "deck-1", "user-1",
		[]models.StagedChange{{Action: models.ActionAdd, CardID: "A", Quantity: 1}}, "msg")
	require.ErrorIs(t, err, store.appendErr)

	assert.Empty(t, store.cards("deck-1"), "applied changes roll back with the history write")
	assert.Empty(t, store.history)
}

func TestService_PostCommitValidation(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, false)
	svc.opts.Cards = staticCards{cards.NewMapLookup(&cards.Card{
		ID: "A", Name: "Grizzly Bears", TypeLine: "Creature — Bear",
		Legalities: map[string]cards.Legality{"limited": cards.Legal},
	})}

	out, err := svc.CommitChanges(context.Background(), "deck-1", "user-1",
		[]models.StagedChange{{Action: models.ActionAdd, CardID: "A", Quantity: 4}}, "msg")
	require.NoError(t, err)
	require.NotNil(t, out.Validation)
	assert.False(t, out.Validation.IsValid)
	assert.Equal(t, []string{"Deck must have at least 40 cards (currently 4)"}, out.Validation.Errors)
}

func TestService_Revert(t *testing.T) {
	store := newMemStore()
	store.seed("deck-1", "B", 1, models.CategoryMainboard)
	svc := newTestService(store, true)
	ctx := context.Background()

	first, err := svc.CommitChanges(ctx, "deck-1", "user-1", []models.StagedChange{
		{ID: "c1", Action: models.ActionAdd, CardID: "A", Quantity: 2, Category: models.CategoryMainboard},
		{ID: "c2", Action: models.ActionUpdate, CardID: "B", Quantity: 3, OldQuantity: intPtr(1), Category: models.CategoryMainboard},
	}, "Add A")
	require.NoError(t, err)

	out, err := svc.Revert(ctx, first.History.ID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, `Revert "Add A"`, out.History.Message)
	assert.Equal(t, "user-2", out.History.UserID)
	for _, c := range out.History.Changes {
		assert.NotEmpty(t, c.ID)
		assert.NotEqual(t, "c1", c.ID)
	}

	cards := store.cards("deck-1")
	require.Len(t, cards, 1)
	assert.Equal(t, "B", cards[0].CardID)
	assert.Equal(t, 1, cards[0].Quantity)

	// History is append-only: both entries remain
	assert.Len(t, store.history, 2)

	_, err = svc.Revert(ctx, "missing", "user-1")
	assert.ErrorIs(t, err, ErrHistoryNotFound)
}

func TestService_RevertAddKeepsPriorCopies(t *testing.T) {
	store := newMemStore()
	store.seed("deck-1", "A", 3, models.CategoryMainboard)
	svc := newTestService(store, true)
	ctx := context.Background()

	first, err := svc.CommitChanges(ctx, "deck-1", "user-1", []models.StagedChange{
		{Action: models.ActionAdd, CardID: "A", Quantity: 1, Category: models.CategoryMainboard},
	}, "One more")
	require.NoError(t, err)

	_, err = svc.Revert(ctx, first.History.ID, "user-1")
	require.NoError(t, err)

	cards := store.cards("deck-1")
	require.Len(t, cards, 1)
	assert.Equal(t, 3, cards[0].Quantity)
}

func TestService_RevertMergedMoveSplitsEntries(t *testing.T) {
	store := newMemStore()
	store.seed("deck-1", "A", 2, models.CategoryMainboard)
	store.seed("deck-1", "A", 1, models.CategorySideboard)
	svc := newTestService(store, true)
	ctx := context.Background()

	first, err := svc.CommitChanges(ctx, "deck-1", "user-1", []models.StagedChange{
		{Action: models.ActionMove, CardID: "A", OldCategory: models.CategorySideboard, Category: models.CategoryMainboard},
	}, "Main it")
	require.NoError(t, err)
	assert.Equal(t, map[entryKey]int{{"A", models.CategoryMainboard}: 3}, snapshot(store.cards("deck-1")))

	_, err = svc.Revert(ctx, first.History.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[entryKey]int{
		{"A", models.CategoryMainboard}: 2,
		{"A", models.CategorySideboard}: 1,
	}, snapshot(store.cards("deck-1")))
}

func TestService_RevertRefusesWhenDeckChanged(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, true)
	ctx := context.Background()

	first, err := svc.CommitChanges(ctx, "deck-1", "user-1", []models.StagedChange{
		{Action: models.ActionAdd, CardID: "A", Quantity: 2},
	}, "Add A")
	require.NoError(t, err)
	_, err = svc.CommitChanges(ctx, "deck-1", "user-1", []models.StagedChange{
		{Action: models.ActionAdd, CardID: "A", Quantity: 2},
	}, "More A")
	require.NoError(t, err)

	_, err = svc.Revert(ctx, first.History.ID, "user-1")
	require.ErrorIs(t, err, ErrRevertConflict)

	cards := store.cards("deck-1")
	require.Len(t, cards, 1)
	assert.Equal(t, 4, cards[0].Quantity, "a refused revert writes nothing")
	assert.Len(t, store.history, 2)
}

func TestService_RevertWithoutAppliedState(t *testing.T) {
	store := newMemStore()
	store.history = append(store.history, &models.HistoryEntry{
		ID: "legacy", DeckID: "deck-1", Message: "old",
		Changes: []models.StagedChange{{Action: models.ActionAdd, CardID: "A", Quantity: 1}},
	})
	svc := newTestService(store, true)

	_, err := svc.Revert(context.Background(), "legacy", "user-1")
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestService_RecordsMetrics(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, true)
	collector := metrics.NewCollector()
	svc.opts.Metrics = collector
	ctx := context.Background()

	first, err := svc.CommitChanges(ctx, "deck-1", "user-1", []models.StagedChange{
		{Action: models.ActionAdd, CardID: "A", Quantity: 1},
		{Action: models.ActionRemove, CardID: "Z"},
	}, "msg")
	require.NoError(t, err)

	_, err = svc.Revert(ctx, first.History.ID, "user-1")
	require.NoError(t, err)

	store.appendErr = errors.New("disk full")
	_, err = svc.CommitChanges(ctx, "deck-1", "user-1",
		[]models.StagedChange{{Action: models.ActionAdd, CardID: "B", Quantity: 1}}, "msg")
	require.Error(t, err)

	snap := collector.Snapshot()
	assert.Equal(t, uint64(2), snap.Commits, "the revert is a commit too")
	assert.Equal(t, uint64(1), snap.CommitFailures)
	assert.Equal(t, uint64(1), snap.Reverts)
	assert.Equal(t, 3, snap.CommitLatency.Count)
}

func TestCardIDs(t *testing.T) {
	cmdr := "cmdr"
	deck := &models.Deck{CommanderID: &cmdr}
	ids := CardIDs(deck, []*models.DeckCard{
		{CardID: "a"}, {CardID: "cmdr"}, {CardID: "a"}, {CardID: "b"},
	})
	assert.Equal(t, []string{"cmdr", "a", "b"}, ids)
}
