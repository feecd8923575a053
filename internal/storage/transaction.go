package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TxFunc is a function that runs within a transaction.
type TxFunc func(*sql.Tx) error

// WithTransaction executes fn within a database transaction. It commits when
// fn returns nil and rolls back otherwise. A panic in fn rolls back and is
// re-raised.
func (db *DB) WithTransaction(ctx context.Context, fn TxFunc) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
			}
		} else {
			err = tx.Commit()
			if err != nil {
				err = fmt.Errorf("failed to commit transaction: %w", err)
			}
		}
	}()

	err = fn(tx)
	return err
}

// Busy retry settings.
const (
	busyRetries   = 5
	busyBaseDelay = 20 * time.Millisecond
)

// IsBusy reports whether err is SQLite's database-locked condition.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// RetryOnBusy runs fn, retrying with exponential backoff while it fails
// with a busy error. Other errors are returned immediately.
func RetryOnBusy(ctx context.Context, fn func() error) error {
	delay := busyBaseDelay
	var err error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		err = fn()
		if !IsBusy(err) {
			return err
		}
		if attempt == busyRetries {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("database busy after %d retries: %w", busyRetries, err)
}
