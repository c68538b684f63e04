package sqldb

import "context"

const getRecord = `SELECT data FROM records WHERE store = ? AND collection = ? AND pk = ?`

type RecordKeyParams struct {
	Store      string
	Collection string
	Pk         any
}

func (q *Queries) GetRecord(ctx context.Context, arg RecordKeyParams) (string, error) {
	row := q.db.QueryRowContext(ctx, getRecord, arg.Store, arg.Collection, arg.Pk)
	var data string
	err := row.Scan(&data)
	return data, err
}

const recordExists = `SELECT EXISTS (SELECT 1 FROM records WHERE store = ? AND collection = ? AND pk = ?)`

func (q *Queries) RecordExists(ctx context.Context, arg RecordKeyParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, recordExists, arg.Store, arg.Collection, arg.Pk)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const upsertRecord = `INSERT INTO records (store, collection, pk, data) VALUES (?, ?, ?, ?)
ON CONFLICT (store, collection, pk) DO UPDATE SET data = excluded.data`

type UpsertRecordParams struct {
	Store      string
	Collection string
	Pk         any
	Data       string
}

func (q *Queries) UpsertRecord(ctx context.Context, arg UpsertRecordParams) error {
	_, err := q.db.ExecContext(ctx, upsertRecord, arg.Store, arg.Collection, arg.Pk, arg.Data)
	return err
}

const deleteRecord = `DELETE FROM records WHERE store = ? AND collection = ? AND pk = ?`

func (q *Queries) DeleteRecord(ctx context.Context, arg RecordKeyParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecord, arg.Store, arg.Collection, arg.Pk)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listRecords = `SELECT pk, data FROM records WHERE store = ? AND collection = ? ORDER BY pk`

type CollectionParams struct {
	Store      string
	Collection string
}

func (q *Queries) ListRecords(ctx context.Context, arg CollectionParams) ([]Record, error) {
	rows, err := q.db.QueryContext(ctx, listRecords, arg.Store, arg.Collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Pk, &r.Data); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRecords = `DELETE FROM records WHERE store = ? AND collection = ?`

func (q *Queries) DeleteRecords(ctx context.Context, arg CollectionParams) error {
	_, err := q.db.ExecContext(ctx, deleteRecords, arg.Store, arg.Collection)
	return err
}

const countRecords = `SELECT COUNT(*) FROM records WHERE store = ? AND collection = ?`

func (q *Queries) CountRecords(ctx context.Context, arg CollectionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRecords, arg.Store, arg.Collection)
	var n int64
	err := row.Scan(&n)
	return n, err
}
