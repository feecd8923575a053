package commit

import (
	"context"
	"errors"
	"sort"

	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

// memStore is an in-memory EntryStore and HistoryStore.
type memStore struct {
	nextID  int
	entries map[int]*models.DeckCard
	history []*models.HistoryEntry

	failOn     string // operation name that returns failErr
	failErr    error
	appendErr  error
	operations []string
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[int]*models.DeckCard)}
}

func (m *memStore) op(name string) error {
	m.operations = append(m.operations, name)
	if m.failOn == name {
		return m.failErr
	}
	return nil
}

func (m *memStore) FindCard(_ context.Context, deckID, cardID string, category models.Category) (*models.DeckCard, error) {
	if err := m.op("find"); err != nil {
		return nil, err
	}
	for _, e := range m.entries {
		if e.DeckID == deckID && e.CardID == cardID && e.Category == category {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertCard(_ context.Context, card *models.DeckCard) error {
	if err := m.op("insert"); err != nil {
		return err
	}
	m.nextID++
	card.ID = m.nextID
	c := *card
	m.entries[c.ID] = &c
	return nil
}

func (m *memStore) UpdateQuantity(_ context.Context, id int, quantity int) error {
	if err := m.op("update"); err != nil {
		return err
	}
	e, ok := m.entries[id]
	if !ok {
		return errors.New("no such entry")
	}
	e.Quantity = quantity
	return nil
}

func (m *memStore) UpdateCategory(_ context.Context, id int, category models.Category) error {
	if err := m.op("move"); err != nil {
		return err
	}
	e, ok := m.entries[id]
	if !ok {
		return errors.New("no such entry")
	}
	e.Category = category
	return nil
}

func (m *memStore) DeleteCard(_ context.Context, id int) error {
	if err := m.op("delete"); err != nil {
		return err
	}
	delete(m.entries, id)
	return nil
}

func (m *memStore) Append(_ context.Context, entry *models.HistoryEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.history = append(m.history, entry)
	return nil
}

// cards returns the deck's entries ordered by id.
func (m *memStore) cards(deckID string) []*models.DeckCard {
	var out []*models.DeckCard
	for _, e := range m.entries {
		if e.DeckID == deckID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) seed(deckID, cardID string, qty int, category models.Category) {
	m.nextID++
	m.entries[m.nextID] = &models.DeckCard{ID: m.nextID, DeckID: deckID, CardID: cardID, Quantity: qty, Category: category}
}
