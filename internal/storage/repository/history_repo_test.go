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

func TestHistoryRepository_AppendAndList(t *testing.T) {
	db := setupTestDB(t)
	decks := NewDeckRepository(db)
	repo := NewHistoryRepository(db)
	ctx := context.Background()
	createTestDeck(t, decks, "deck-1")

	old := 2
	base := time.Now().UTC().Truncate(time.Second)
	first := &models.HistoryEntry{
		ID:     "h1",
		DeckID: "deck-1",
		UserID: "user-1",
		Changes: []models.StagedChange{
			{ID: "c1", Action: models.ActionAdd, CardID: "bolt", Quantity: 2, Category: models.CategoryMainboard, Timestamp: 1},
			{ID: "c2", Action: models.ActionUpdate, CardID: "bolt", Quantity: 4, OldQuantity: &old, Category: models.CategoryMainboard, Timestamp: 2},
		},
		Message:     "Initial list",
		CommittedAt: base,
	}
	second := &models.HistoryEntry{
		ID:          "h2",
		DeckID:      "deck-1",
		UserID:      "user-1",
		Changes:     []models.StagedChange{{ID: "c3", Action: models.ActionRemove, CardID: "bolt", Quantity: 4}},
		Message:     "Cut bolts",
		CommittedAt: base.Add(time.Minute),
	}
	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))

	got, err := repo.GetByID(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Initial list", got.Message)
	require.Len(t, got.Changes, 2)
	assert.Equal(t, first.Changes[0], got.Changes[0])
	require.NotNil(t, got.Changes[1].OldQuantity)
	assert.Equal(t, 2, *got.Changes[1].OldQuantity)

	list, err := repo.ListByDeck(ctx, "deck-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "h2", list[0].ID, "newest first")

	limited, err := repo.ListByDeck(ctx, "deck-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHistoryRepository_AppendRequiresDeck(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t))

	err := repo.Append(context.Background(), &models.HistoryEntry{
		ID: "h1", DeckID: "ghost", UserID: "u", Message: "m", CommittedAt: time.Now().UTC(),
	})
	assert.Error(t, err, "foreign key to decks must be enforced")
}

func TestHistoryRepository_AppendError(t *testing.T) {
	db, mock := setupMockDB(t)

	boom := errors.New("constraint failed")
	mock.ExpectExec("INSERT INTO deck_history").WillReturnError(boom)

	err := NewHistoryRepository(db.Conn()).Append(context.Background(), &models.HistoryEntry{ID: "h1", DeckID: "d"})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_AppendRollsBackInTransaction(t *testing.T) {
	db, mock := setupMockDB(t)

	boom := errors.New("constraint failed")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO deck_history").WillReturnError(boom)
	mock.ExpectRollback()

	err := db.WithTransaction(context.Background(), func(tx *sql.Tx) error {
		return NewHistoryRepository(tx).Append(context.Background(), &models.HistoryEntry{ID: "h1", DeckID: "d"})
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
