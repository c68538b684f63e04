package sqldb

import "context"

const deleteAllIndexEntries = `DELETE FROM index_entries WHERE store = ?`

func (q *Queries) DeleteAllIndexEntries(ctx context.Context, store string) error {
	_, err := q.db.ExecContext(ctx, deleteAllIndexEntries, store)
	return err
}

const deleteAllRecords = `DELETE FROM records WHERE store = ?`

func (q *Queries) DeleteAllRecords(ctx context.Context, store string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAllRecords, store)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const sqliteVersion = `SELECT sqlite_version()`

func (q *Queries) SQLiteVersion(ctx context.Context) (string, error) {
	row := q.db.QueryRowContext(ctx, sqliteVersion)
	var v string
	err := row.Scan(&v)
	return v, err
}
