package commit

import (
	"context"
	"database/sql"

	"github.com/ramonehamilton/manaforge/internal/storage"
	"github.com/ramonehamilton/manaforge/internal/storage/repository"
)

// sqlTransactor binds repositories to a database transaction per commit.
type sqlTransactor struct {
	db      *storage.DB
	decks   repository.DeckRepository
	history repository.HistoryRepository
}

// NewSQLTransactor returns a Transactor backed by db. Busy databases are
// retried with backoff.
func NewSQLTransactor(db *storage.DB) Transactor {
	return &sqlTransactor{
		db:      db,
		decks:   repository.NewDeckRepository(db.Conn()),
		history: repository.NewHistoryRepository(db.Conn()),
	}
}

func (t *sqlTransactor) InTx(ctx context.Context, fn func(Stores) error) error {
	return storage.RetryOnBusy(ctx, func() error {
		return t.db.WithTransaction(ctx, func(tx *sql.Tx) error {
			return fn(Stores{
				Entries: t.decks.WithTx(tx),
				History: t.history.WithTx(tx),
			})
		})
	})
}
