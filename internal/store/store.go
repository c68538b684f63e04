// Package store is the typed accessor layer of the focus document store. Every
// call opens its own handle, runs one transaction and closes the handle again.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/focus-md/focus/internal/database"
)

// Collection binds a collection name to the record type stored in it.
type Collection[T any] struct {
	name string
}

// NewCollection declares that name stores records of type T.
func NewCollection[T any](name string) Collection[T] {
	return Collection[T]{name: name}
}

// Name returns the collection name.
func (c Collection[T]) Name() string {
	return c.name
}

// Index returns a typed handle on one of the collection's secondary indexes.
func (c Collection[T]) Index(name string) Index[T] {
	return Index[T]{collection: c.name, name: name}
}

// Index is a secondary index on a collection of T.
type Index[T any] struct {
	collection string
	name       string
}

// Name returns the index name.
func (i Index[T]) Name() string {
	return i.name
}

// Collection returns the name of the indexed collection.
func (i Index[T]) Collection() string {
	return i.collection
}

// Table runs accessor operations for one collection against a store.
type Table[T any] struct {
	db         *database.Context
	collection Collection[T]
}

// Of returns the accessor for collection c in db.
func Of[T any](db *database.Context, c Collection[T]) *Table[T] {
	return &Table[T]{db: db, collection: c}
}

// Add inserts rec and returns the key it was stored under. Auto-increment
// collections assign the key when rec carries none.
func (t *Table[T]) Add(ctx context.Context, rec *T) (database.Key, error) {
	const op = "add"
	data, err := t.encode(op, rec)
	if err != nil {
		return database.Key{}, err
	}

	var key database.Key
	err = t.db.Update(ctx, func(tx *database.Tx) error {
		var err error
		key, err = tx.Add(t.collection.name, data)
		return err
	})
	return key, err
}

// Get returns the record stored under key.
func (t *Table[T]) Get(ctx context.Context, key database.Key) (*T, error) {
	const op = "get"
	var data json.RawMessage
	err := t.db.View(ctx, func(tx *database.Tx) error {
		var err error
		data, err = tx.Get(t.collection.name, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t.decode(op, data)
}

// Update stores rec under its key, creating it when absent. Concurrent updates
// of the same key are not detected; the last commit wins.
func (t *Table[T]) Update(ctx context.Context, rec *T) error {
	const op = "update"
	data, err := t.encode(op, rec)
	if err != nil {
		return err
	}
	return t.db.Update(ctx, func(tx *database.Tx) error {
		_, err := tx.Put(t.collection.name, data)
		return err
	})
}

// Remove deletes the record stored under key. Removing a missing key succeeds.
func (t *Table[T]) Remove(ctx context.Context, key database.Key) error {
	return t.db.Update(ctx, func(tx *database.Tx) error {
		return tx.Delete(t.collection.name, key)
	})
}

// GetAll returns every record ordered by primary key.
func (t *Table[T]) GetAll(ctx context.Context) ([]T, error) {
	var docs []database.Document
	err := t.db.View(ctx, func(tx *database.Tx) error {
		var err error
		docs, err = tx.GetAll(t.collection.name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t.decodeAll("getAll", docs)
}

// Clear deletes every record of the collection.
func (t *Table[T]) Clear(ctx context.Context) error {
	return t.db.Update(ctx, func(tx *database.Tx) error {
		return tx.Clear(t.collection.name)
	})
}

// Count returns the number of records in the collection.
func (t *Table[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := t.db.View(ctx, func(tx *database.Tx) error {
		var err error
		n, err = tx.Count(t.collection.name)
		return err
	})
	return n, err
}

// GetByIndex returns the records whose value on idx falls within r, ordered by
// index value then primary key.
func (t *Table[T]) GetByIndex(ctx context.Context, idx Index[T], r database.KeyRange) ([]T, error) {
	return t.GetByIndexName(ctx, idx.name, r)
}

// GetByIndexName is GetByIndex for an index named at runtime.
func (t *Table[T]) GetByIndexName(ctx context.Context, index string, r database.KeyRange) ([]T, error) {
	const op = "getByIndex"
	if err := t.checkIndex(op, index); err != nil {
		return nil, err
	}

	var docs []database.Document
	err := t.db.View(ctx, func(tx *database.Tx) error {
		var err error
		docs, err = tx.GetByIndex(t.collection.name, index, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t.decodeAll(op, docs)
}

// checkIndex rejects index names the registry does not declare at the store's
// target version, before any handle is opened.
func (t *Table[T]) checkIndex(op, index string) error {
	layout, err := t.db.Registry().At(t.db.TargetVersion())
	if err != nil {
		return database.Wrap(database.CodeReadError, op, t.collection.name, err)
	}
	if _, ok := layout.Collection(t.collection.name); !ok {
		return &database.Error{Code: database.CodeNotFound, Op: op, Collection: t.collection.name, Err: database.ErrCollectionNotFound}
	}
	if _, ok := layout.Index(t.collection.name, index); !ok {
		return &database.Error{Code: database.CodeIndexNotFound, Op: op, Collection: t.collection.name, Err: fmt.Errorf("index %q", index)}
	}
	return nil
}

func (t *Table[T]) encode(op string, rec *T) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, database.Wrap(database.CodeWriteError, op, t.collection.name, err)
	}
	return data, nil
}

func (t *Table[T]) decode(op string, data []byte) (*T, error) {
	rec := new(T)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, database.Wrap(database.CodeReadError, op, t.collection.name, fmt.Errorf("failed to decode record: %w", err))
	}
	return rec, nil
}

func (t *Table[T]) decodeAll(op string, docs []database.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		rec, err := t.decode(op, doc.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}
