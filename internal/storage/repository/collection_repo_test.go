package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/manaforge/internal/storage/models"
)

func createTestCollection(t *testing.T, repo CollectionRepository, id, userID string) *models.Collection {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	collection := &models.Collection{
		ID:         id,
		UserID:     userID,
		Name:       "Collection " + id,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := repo.Create(context.Background(), collection); err != nil {
		t.Fatalf("failed to create collection: %v", err)
	}
	return collection
}

func TestCollectionRepository_CRUD(t *testing.T) {
	repo := NewCollectionRepository(setupTestDB(t))
	ctx := context.Background()

	a := createTestCollection(t, repo, "a", "user-1")
	b := createTestCollection(t, repo, "b", "user-1")
	createTestCollection(t, repo, "c", "user-2")

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Collection a", got.Name)
	assert.True(t, got.CreatedAt.Equal(a.CreatedAt))

	desc := "Binder"
	b.Name = "Trade binder"
	b.Description = &desc
	b.ModifiedAt = b.ModifiedAt.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, b))

	list, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "most recently modified first")
	require.NotNil(t, list[0].Description)
	assert.Equal(t, "Binder", *list[0].Description)

	require.NoError(t, repo.Delete(ctx, "a"))
	missing, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCollectionRepository_AddCardMerges(t *testing.T) {
	repo := NewCollectionRepository(setupTestDB(t))
	ctx := context.Background()
	createTestCollection(t, repo, "col", "user-1")
	now := time.Now().UTC().Truncate(time.Second)

	first := &models.CollectionCard{CollectionID: "col", CardID: "bolt", Quantity: 2, AddedAt: now}
	require.NoError(t, repo.AddCard(ctx, first))
	assert.NotZero(t, first.ID)
	assert.Equal(t, 2, first.Quantity)

	again := &models.CollectionCard{CollectionID: "col", CardID: "bolt", Quantity: 3, AddedAt: now}
	require.NoError(t, repo.AddCard(ctx, again))
	assert.Equal(t, first.ID, again.ID, "same printing merges into one row")
	assert.Equal(t, 5, again.Quantity)

	foil := &models.CollectionCard{CollectionID: "col", CardID: "bolt", Quantity: 1, Foil: true, AddedAt: now}
	require.NoError(t, repo.AddCard(ctx, foil))
	assert.NotEqual(t, first.ID, foil.ID, "foils are kept apart")

	cards, err := repo.GetCards(ctx, "col")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.False(t, cards[0].Foil)
	assert.True(t, cards[1].Foil)
}

func TestCollectionRepository_UpdateAndRemoveCard(t *testing.T) {
	repo := NewCollectionRepository(setupTestDB(t))
	ctx := context.Background()
	createTestCollection(t, repo, "col", "user-1")

	card := &models.CollectionCard{CollectionID: "col", CardID: "bolt", Quantity: 1, AddedAt: time.Now().UTC()}
	require.NoError(t, repo.AddCard(ctx, card))

	condition := "LP"
	card.Quantity = 4
	card.Condition = &condition
	require.NoError(t, repo.UpdateCard(ctx, card))

	got, err := repo.GetCard(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Quantity)
	require.NotNil(t, got.Condition)
	assert.Equal(t, "LP", *got.Condition)

	require.NoError(t, repo.RemoveCard(ctx, card.ID))
	got, err = repo.GetCard(ctx, card.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = repo.RemoveCard(ctx, card.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows), "expected ErrNoRows, got %v", err)
	err = repo.UpdateCard(ctx, card)
	assert.True(t, errors.Is(err, sql.ErrNoRows), "expected ErrNoRows, got %v", err)
}

func TestCollectionRepository_RejectsNonPositiveQuantity(t *testing.T) {
	repo := NewCollectionRepository(setupTestDB(t))
	createTestCollection(t, repo, "col", "user-1")

	err := repo.AddCard(context.Background(), &models.CollectionCard{CollectionID: "col", CardID: "bolt", Quantity: 0, AddedAt: time.Now().UTC()})
	assert.Error(t, err)
}

func TestCollectionRepository_Owned(t *testing.T) {
	repo := NewCollectionRepository(setupTestDB(t))
	ctx := context.Background()
	createTestCollection(t, repo, "one", "user-1")
	createTestCollection(t, repo, "two", "user-1")
	createTestCollection(t, repo, "other", "user-2")
	now := time.Now().UTC()

	for _, c := range []*models.CollectionCard{
		{CollectionID: "one", CardID: "bolt", Quantity: 2, AddedAt: now},
		{CollectionID: "one", CardID: "bolt", Quantity: 1, Foil: true, AddedAt: now},
		{CollectionID: "two", CardID: "bolt", Quantity: 1, AddedAt: now},
		{CollectionID: "two", CardID: "island", Quantity: 10, AddedAt: now},
		{CollectionID: "other", CardID: "bolt", Quantity: 50, AddedAt: now},
	} {
		require.NoError(t, repo.AddCard(ctx, c))
	}

	owned, err := repo.Owned(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"bolt": 4, "island": 10}, owned)

	// Deleting a collection drops its cards
	require.NoError(t, repo.Delete(ctx, "two"))
	owned, err = repo.Owned(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"bolt": 3}, owned)
}

func TestCollectionRepository_DatabaseErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCollectionRepository(db.Conn())
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT (.+) FROM collection_cards").WillReturnError(boom)
	_, err := repo.GetCards(context.Background(), "col")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to get collection cards")

	mock.ExpectQuery("INSERT INTO collection_cards").WillReturnError(boom)
	err = repo.AddCard(context.Background(), &models.CollectionCard{CollectionID: "col", CardID: "x", Quantity: 1})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
