package sqldb

import "context"

const getCollection = `SELECT store, name, key_path, auto_increment, next_key, created_version
FROM collections WHERE store = ? AND name = ?`

type GetCollectionParams struct {
	Store string
	Name  string
}

func (q *Queries) GetCollection(ctx context.Context, arg GetCollectionParams) (Collection, error) {
	row := q.db.QueryRowContext(ctx, getCollection, arg.Store, arg.Name)
	var c Collection
	err := row.Scan(&c.Store, &c.Name, &c.KeyPath, &c.AutoIncrement, &c.NextKey, &c.CreatedVersion)
	return c, err
}

const listCollections = `SELECT store, name, key_path, auto_increment, next_key, created_version
FROM collections WHERE store = ? ORDER BY name`

func (q *Queries) ListCollections(ctx context.Context, store string) ([]Collection, error) {
	rows, err := q.db.QueryContext(ctx, listCollections, store)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.Store, &c.Name, &c.KeyPath, &c.AutoIncrement, &c.NextKey, &c.CreatedVersion); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertCollection = `INSERT INTO collections (store, name, key_path, auto_increment, next_key, created_version)
VALUES (?, ?, ?, ?, 1, ?)`

type InsertCollectionParams struct {
	Store          string
	Name           string
	KeyPath        string
	AutoIncrement  bool
	CreatedVersion int64
}

func (q *Queries) InsertCollection(ctx context.Context, arg InsertCollectionParams) error {
	_, err := q.db.ExecContext(ctx, insertCollection, arg.Store, arg.Name, arg.KeyPath, arg.AutoIncrement, arg.CreatedVersion)
	return err
}

const raiseNextKey = `UPDATE collections SET next_key = MAX(next_key, ?) WHERE store = ? AND name = ?`

type RaiseNextKeyParams struct {
	Store   string
	Name    string
	NextKey int64
}

// RaiseNextKey moves the key generator forward; it never moves it back.
func (q *Queries) RaiseNextKey(ctx context.Context, arg RaiseNextKeyParams) error {
	_, err := q.db.ExecContext(ctx, raiseNextKey, arg.NextKey, arg.Store, arg.Name)
	return err
}

const getIndex = `SELECT store, collection, name, key_path, multi_entry, is_unique, created_version
FROM collection_indexes WHERE store = ? AND collection = ? AND name = ?`

type GetIndexParams struct {
	Store      string
	Collection string
	Name       string
}

func (q *Queries) GetIndex(ctx context.Context, arg GetIndexParams) (CollectionIndex, error) {
	row := q.db.QueryRowContext(ctx, getIndex, arg.Store, arg.Collection, arg.Name)
	var i CollectionIndex
	err := row.Scan(&i.Store, &i.Collection, &i.Name, &i.KeyPath, &i.MultiEntry, &i.IsUnique, &i.CreatedVersion)
	return i, err
}

const listIndexes = `SELECT store, collection, name, key_path, multi_entry, is_unique, created_version
FROM collection_indexes WHERE store = ? AND collection = ? ORDER BY name`

type ListIndexesParams struct {
	Store      string
	Collection string
}

func (q *Queries) ListIndexes(ctx context.Context, arg ListIndexesParams) ([]CollectionIndex, error) {
	rows, err := q.db.QueryContext(ctx, listIndexes, arg.Store, arg.Collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CollectionIndex
	for rows.Next() {
		var i CollectionIndex
		if err := rows.Scan(&i.Store, &i.Collection, &i.Name, &i.KeyPath, &i.MultiEntry, &i.IsUnique, &i.CreatedVersion); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertIndex = `INSERT INTO collection_indexes (store, collection, name, key_path, multi_entry, is_unique, created_version)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type InsertIndexParams struct {
	Store          string
	Collection     string
	Name           string
	KeyPath        string
	MultiEntry     bool
	IsUnique       bool
	CreatedVersion int64
}

func (q *Queries) InsertIndex(ctx context.Context, arg InsertIndexParams) error {
	_, err := q.db.ExecContext(ctx, insertIndex,
		arg.Store, arg.Collection, arg.Name, arg.KeyPath, arg.MultiEntry, arg.IsUnique, arg.CreatedVersion)
	return err
}
