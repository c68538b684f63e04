package sqldb

import (
	"context"
	"database/sql"
)

const insertIndexEntry = `INSERT INTO index_entries (store, collection, index_name, value, pk) VALUES (?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING`

type InsertIndexEntryParams struct {
	Store      string
	Collection string
	IndexName  string
	Value      any
	Pk         any
}

func (q *Queries) InsertIndexEntry(ctx context.Context, arg InsertIndexEntryParams) error {
	_, err := q.db.ExecContext(ctx, insertIndexEntry, arg.Store, arg.Collection, arg.IndexName, arg.Value, arg.Pk)
	return err
}

const deleteRecordIndexEntries = `DELETE FROM index_entries WHERE store = ? AND collection = ? AND pk = ?`

func (q *Queries) DeleteRecordIndexEntries(ctx context.Context, arg RecordKeyParams) error {
	_, err := q.db.ExecContext(ctx, deleteRecordIndexEntries, arg.Store, arg.Collection, arg.Pk)
	return err
}

const deleteCollectionIndexEntries = `DELETE FROM index_entries WHERE store = ? AND collection = ?`

func (q *Queries) DeleteCollectionIndexEntries(ctx context.Context, arg CollectionParams) error {
	_, err := q.db.ExecContext(ctx, deleteCollectionIndexEntries, arg.Store, arg.Collection)
	return err
}

const findIndexConflict = `SELECT pk FROM index_entries
WHERE store = ? AND collection = ? AND index_name = ? AND value = ? AND pk <> ?
LIMIT 1`

// FindIndexConflict returns the key of another record holding value, or sql.ErrNoRows.
func (q *Queries) FindIndexConflict(ctx context.Context, arg InsertIndexEntryParams) (any, error) {
	row := q.db.QueryRowContext(ctx, findIndexConflict, arg.Store, arg.Collection, arg.IndexName, arg.Value, arg.Pk)
	var pk any
	err := row.Scan(&pk)
	return pk, err
}

const countIndexEntries = `SELECT COUNT(*) FROM index_entries WHERE store = ? AND collection = ? AND index_name = ?`

type IndexParams struct {
	Store      string
	Collection string
	IndexName  string
}

func (q *Queries) CountIndexEntries(ctx context.Context, arg IndexParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countIndexEntries, arg.Store, arg.Collection, arg.IndexName)
	var n int64
	err := row.Scan(&n)
	return n, err
}

// A nil bound leaves that side of the range open-ended. Values compare by SQLite
// storage class first, so numbers sort before text.
const indexRange = `SELECT e.value, e.pk, r.data
FROM index_entries e
JOIN records r ON r.store = e.store AND r.collection = e.collection AND r.pk = e.pk
WHERE e.store = ?1 AND e.collection = ?2 AND e.index_name = ?3
  AND (?4 IS NULL OR e.value > ?4 OR (?5 = 0 AND e.value = ?4))
  AND (?6 IS NULL OR e.value < ?6 OR (?7 = 0 AND e.value = ?6))
ORDER BY e.value, e.pk`

type IndexRangeParams struct {
	Store      string
	Collection string
	IndexName  string
	Lower      any
	LowerOpen  bool
	Upper      any
	UpperOpen  bool
}

// IndexRangeRows streams matching entries joined with their records. The caller closes the rows.
func (q *Queries) IndexRangeRows(ctx context.Context, arg IndexRangeParams) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, indexRange,
		arg.Store, arg.Collection, arg.IndexName, arg.Lower, arg.LowerOpen, arg.Upper, arg.UpperOpen)
}
