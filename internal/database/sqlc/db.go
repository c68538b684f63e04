package sqldb

import (
	"context"
	"database/sql"
)

// DBTX matches the interface sqlc generates for database access objects.
// Both *sql.DB and *sql.Conn satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries wraps a DBTX and exposes the statements of the document engine.
type Queries struct {
	db DBTX
}

// New constructs a new Queries helper around the provided DB interface.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithConn returns a copy of the Queries helper pinned to a single connection.
func (q *Queries) WithConn(conn *sql.Conn) *Queries {
	return &Queries{db: conn}
}
