package sqldb

import "context"

const insertMigrationLog = `INSERT INTO migration_log (store, version, steps) VALUES (?, ?, ?)`

type InsertMigrationLogParams struct {
	Store   string
	Version int64
	Steps   int64
}

func (q *Queries) InsertMigrationLog(ctx context.Context, arg InsertMigrationLogParams) error {
	_, err := q.db.ExecContext(ctx, insertMigrationLog, arg.Store, arg.Version, arg.Steps)
	return err
}

const listMigrationLog = `SELECT id, store, version, steps, applied_at FROM migration_log WHERE store = ? ORDER BY id`

func (q *Queries) ListMigrationLog(ctx context.Context, store string) ([]MigrationLog, error) {
	rows, err := q.db.QueryContext(ctx, listMigrationLog, store)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MigrationLog
	for rows.Next() {
		var m MigrationLog
		if err := rows.Scan(&m.ID, &m.Store, &m.Version, &m.Steps, &m.AppliedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
