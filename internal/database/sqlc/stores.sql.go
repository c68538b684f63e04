package sqldb

import "context"

const getStoreVersion = `SELECT version FROM stores WHERE name = ?`

func (q *Queries) GetStoreVersion(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getStoreVersion, name)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const insertStore = `INSERT INTO stores (name, version) VALUES (?, 0) ON CONFLICT (name) DO NOTHING`

func (q *Queries) InsertStore(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, insertStore, name)
	return err
}

const setStoreVersion = `UPDATE stores SET version = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ? AND version <= ?`

type SetStoreVersionParams struct {
	Name    string
	Version int64
}

// SetStoreVersion only ever raises the version; it reports whether a row changed.
func (q *Queries) SetStoreVersion(ctx context.Context, arg SetStoreVersionParams) (bool, error) {
	result, err := q.db.ExecContext(ctx, setStoreVersion, arg.Version, arg.Name, arg.Version)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}
