package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	sqldb "github.com/focus-md/focus/internal/database/sqlc"
)

// UpgradeReport describes the upgrade an Open performed before returning its handle.
type UpgradeReport struct {
	From  int
	To    int
	Gates []int
	Steps int
}

// Upgraded reports whether any gate ran.
func (r UpgradeReport) Upgraded() bool {
	return len(r.Gates) > 0
}

// Handle is one exclusively owned connection holding a slot of the readiness gate.
// A handle runs one transaction at a time and must be closed.
type Handle struct {
	id       uint64
	c        *Context
	conn     *sql.Conn
	queries  *sqldb.Queries
	version  int
	upgrade  UpgradeReport
	openedAt time.Time

	mu        sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// Version returns the schema version the handle was opened at.
func (h *Handle) Version() int {
	return h.version
}

// Upgrade returns the upgrade performed while opening this handle.
func (h *Handle) Upgrade() UpgradeReport {
	return h.upgrade
}

// Close returns the connection to the pool and releases the gate slot. It is safe to call twice.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.closed.Store(true)
		err = h.conn.Close()
		h.c.handles.Delete(h.id)
		h.c.gate.Release(1)
		h.c.log.Debugf("handle %d closed after %s", h.id, time.Since(h.openedAt))
	})
	return err
}

// View runs fn inside a read-only transaction.
func (h *Handle) View(ctx context.Context, fn func(tx *Tx) error) error {
	return h.run(ctx, false, fn)
}

// Update runs fn inside a read-write transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (h *Handle) Update(ctx context.Context, fn func(tx *Tx) error) error {
	return h.run(ctx, true, fn)
}

func (h *Handle) run(ctx context.Context, writable bool, fn func(tx *Tx) error) (err error) {
	op, code, begin := "view", CodeReadError, "BEGIN DEFERRED"
	if writable {
		op, code, begin = "update", CodeWriteError, "BEGIN IMMEDIATE"
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed.Load() {
		return newError(code, op, "", ErrHandleClosed)
	}

	// Once started, a transaction runs to completion regardless of the caller.
	ctx = context.WithoutCancel(ctx)

	if _, err := h.conn.ExecContext(ctx, begin); err != nil {
		if isBusy(err) {
			return newError(CodeBlocked, op, "", err)
		}
		return newError(code, op, "", fmt.Errorf("failed to begin transaction: %w", err))
	}

	tx := &Tx{
		ctx:      ctx,
		h:        h,
		q:        h.queries,
		store:    h.c.registry.Name(),
		writable: writable,
		meta:     map[string]*collectionMeta{},
	}

	defer func() {
		if p := recover(); p != nil {
			tx.finish()
			_ = h.rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.finish()
		if rbErr := h.rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback error: %w)", err, rbErr)
		}
		return err
	}

	tx.finish()
	if _, err := h.conn.ExecContext(ctx, "COMMIT"); err != nil {
		commitErr := newError(code, op, "", fmt.Errorf("failed to commit transaction: %w", err))
		if rbErr := h.rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback error: %w)", commitErr, rbErr)
		}
		return commitErr
	}
	return nil
}

// rollback aborts the open transaction. A connection whose rollback fails is
// discarded so it never returns to the pool mid-transaction.
func (h *Handle) rollback(ctx context.Context) error {
	if _, err := h.conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		_ = h.conn.Raw(func(any) error { return driver.ErrBadConn })
		return err
	}
	return nil
}

func isBusy(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}
