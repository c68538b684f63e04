package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqldb "github.com/focus-md/focus/internal/database/sqlc"
)

// Tx is a transaction on one handle. Its methods operate on raw JSON documents;
// the store package layers typed records on top.
type Tx struct {
	ctx      context.Context
	h        *Handle
	q        *sqldb.Queries
	store    string
	writable bool
	done     bool
	meta     map[string]*collectionMeta
	cursors  []*Cursor
}

type collectionMeta struct {
	sqldb.Collection
	indexes []sqldb.CollectionIndex
}

func (m *collectionMeta) index(name string) (sqldb.CollectionIndex, bool) {
	for _, idx := range m.indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return sqldb.CollectionIndex{}, false
}

// CollectionInfo describes a persisted collection.
type CollectionInfo struct {
	Name           string      `json:"name"`
	KeyPath        string      `json:"keyPath"`
	AutoIncrement  bool        `json:"autoIncrement"`
	CreatedVersion int         `json:"createdVersion"`
	Indexes        []IndexInfo `json:"indexes"`
}

// IndexInfo describes a persisted secondary index.
type IndexInfo struct {
	Name           string `json:"name"`
	KeyPath        string `json:"keyPath"`
	MultiEntry     bool   `json:"multiEntry"`
	Unique         bool   `json:"unique"`
	CreatedVersion int    `json:"createdVersion"`
}

// Writable reports whether the transaction may modify records.
func (tx *Tx) Writable() bool {
	return tx.writable
}

// Version returns the schema version of the handle running the transaction.
func (tx *Tx) Version() int {
	return tx.h.version
}

func (tx *Tx) finish() {
	for _, c := range tx.cursors {
		_ = c.Close()
	}
	tx.cursors = nil
	tx.done = true
}

func (tx *Tx) check(op, collection string, write bool) error {
	code := CodeReadError
	if write {
		code = CodeWriteError
	}
	if tx.done {
		return newError(code, op, collection, ErrTxDone)
	}
	if write && !tx.writable {
		return newError(code, op, collection, ErrReadOnly)
	}
	return nil
}

func (tx *Tx) observe(op, collection string, start time.Time, err error) {
	tx.h.c.metrics.observe(op, collection, start, err)
	if err != nil {
		tx.h.c.log.Debugf("%s %s failed: %v", op, collection, err)
	}
}

// collection loads the persisted definition of name, caching it for the transaction.
func (tx *Tx) collection(op, name string, code Code) (*collectionMeta, error) {
	if m, ok := tx.meta[name]; ok {
		return m, nil
	}
	c, err := tx.q.GetCollection(tx.ctx, sqldb.GetCollectionParams{Store: tx.store, Name: name})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(CodeNotFound, op, name, ErrCollectionNotFound)
	}
	if err != nil {
		return nil, newError(code, op, name, err)
	}
	indexes, err := tx.q.ListIndexes(tx.ctx, sqldb.ListIndexesParams{Store: tx.store, Collection: name})
	if err != nil {
		return nil, newError(code, op, name, err)
	}
	m := &collectionMeta{Collection: c, indexes: indexes}
	tx.meta[name] = m
	return m, nil
}

// Add inserts a new document and returns its key. Auto-increment collections
// assign the next key when the document has none.
func (tx *Tx) Add(collection string, doc []byte) (Key, error) {
	start := time.Now()
	key, err := tx.put("add", collection, doc, false)
	tx.observe("add", collection, start, err)
	return key, err
}

// Put inserts or replaces the document stored under its key.
func (tx *Tx) Put(collection string, doc []byte) (Key, error) {
	start := time.Now()
	key, err := tx.put("put", collection, doc, true)
	tx.observe("put", collection, start, err)
	return key, err
}

type pendingEntry struct {
	index string
	value any
}

func (tx *Tx) put(op, collection string, data []byte, overwrite bool) (Key, error) {
	if err := tx.check(op, collection, true); err != nil {
		return Key{}, err
	}
	meta, err := tx.collection(op, collection, CodeWriteError)
	if err != nil {
		return Key{}, err
	}
	doc, err := decodeDoc(data)
	if err != nil {
		return Key{}, newError(CodeWriteError, op, collection, err)
	}

	var key Key
	generated := false
	raw, present := lookupPath(doc, meta.KeyPath)
	switch {
	case present && raw != nil:
		k, ok := keyFromDoc(raw)
		if !ok {
			return Key{}, newError(CodeWriteError, op, collection, fmt.Errorf("%w: %s must be an integer or string", ErrInvalidKey, meta.KeyPath))
		}
		key = k
	case meta.AutoIncrement:
		key = IntKey(meta.NextKey)
		generated = true
	default:
		return Key{}, newError(CodeWriteError, op, collection, fmt.Errorf("%w %q", ErrMissingKey, meta.KeyPath))
	}
	pk := key.Value()

	exists, err := tx.q.RecordExists(tx.ctx, sqldb.RecordKeyParams{Store: tx.store, Collection: collection, Pk: pk})
	if err != nil {
		return Key{}, newError(CodeWriteError, op, collection, err)
	}
	if exists && !overwrite {
		return Key{}, newError(CodeDuplicateKey, op, collection, fmt.Errorf("key %s already exists", key))
	}

	var stored string
	if generated {
		if err := setPath(doc, meta.KeyPath, keyNumber(key)); err != nil {
			return Key{}, newError(CodeWriteError, op, collection, err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return Key{}, newError(CodeWriteError, op, collection, err)
		}
		stored = string(b)
	} else if stored, err = compactDoc(data); err != nil {
		return Key{}, newError(CodeWriteError, op, collection, err)
	}

	// Unique constraints are checked before anything is written.
	var entries []pendingEntry
	for _, idx := range meta.indexes {
		for _, v := range indexValues(doc, idx) {
			if idx.IsUnique {
				other, err := tx.q.FindIndexConflict(tx.ctx, sqldb.InsertIndexEntryParams{
					Store: tx.store, Collection: collection, IndexName: idx.Name, Value: v, Pk: pk,
				})
				if err == nil {
					return Key{}, newError(CodeDuplicateKey, op, collection,
						fmt.Errorf("index %s value %v already used by key %v", idx.Name, v, other))
				}
				if !errors.Is(err, sql.ErrNoRows) {
					return Key{}, newError(CodeWriteError, op, collection, err)
				}
			}
			entries = append(entries, pendingEntry{index: idx.Name, value: v})
		}
	}

	recordKey := sqldb.RecordKeyParams{Store: tx.store, Collection: collection, Pk: pk}
	if exists {
		if err := tx.q.DeleteRecordIndexEntries(tx.ctx, recordKey); err != nil {
			return Key{}, newError(CodeWriteError, op, collection, err)
		}
	}
	if err := tx.q.UpsertRecord(tx.ctx, sqldb.UpsertRecordParams{Store: tx.store, Collection: collection, Pk: pk, Data: stored}); err != nil {
		return Key{}, newError(CodeWriteError, op, collection, err)
	}
	for _, e := range entries {
		if err := tx.q.InsertIndexEntry(tx.ctx, sqldb.InsertIndexEntryParams{
			Store: tx.store, Collection: collection, IndexName: e.index, Value: e.value, Pk: pk,
		}); err != nil {
			return Key{}, newError(CodeWriteError, op, collection, err)
		}
	}

	if meta.AutoIncrement && !key.IsString() && key.Int() >= meta.NextKey {
		if err := tx.q.RaiseNextKey(tx.ctx, sqldb.RaiseNextKeyParams{Store: tx.store, Name: collection, NextKey: key.Int() + 1}); err != nil {
			return Key{}, newError(CodeWriteError, op, collection, err)
		}
		meta.NextKey = key.Int() + 1
	}

	return key, nil
}

// Get returns the document stored under key.
func (tx *Tx) Get(collection string, key Key) (json.RawMessage, error) {
	const op = "get"
	start := time.Now()
	data, err := tx.get(op, collection, key)
	tx.observe(op, collection, start, err)
	return data, err
}

func (tx *Tx) get(op, collection string, key Key) (json.RawMessage, error) {
	if err := tx.check(op, collection, false); err != nil {
		return nil, err
	}
	if _, err := tx.collection(op, collection, CodeReadError); err != nil {
		return nil, err
	}
	data, err := tx.q.GetRecord(tx.ctx, sqldb.RecordKeyParams{Store: tx.store, Collection: collection, Pk: key.Value()})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(CodeNotFound, op, collection, fmt.Errorf("key %s", key))
	}
	if err != nil {
		return nil, newError(CodeReadError, op, collection, err)
	}
	return json.RawMessage(data), nil
}

// Delete removes the document stored under key. Deleting a missing key succeeds.
func (tx *Tx) Delete(collection string, key Key) error {
	const op = "delete"
	start := time.Now()
	err := tx.delete(op, collection, key)
	tx.observe(op, collection, start, err)
	return err
}

func (tx *Tx) delete(op, collection string, key Key) error {
	if err := tx.check(op, collection, true); err != nil {
		return err
	}
	if _, err := tx.collection(op, collection, CodeWriteError); err != nil {
		return err
	}
	recordKey := sqldb.RecordKeyParams{Store: tx.store, Collection: collection, Pk: key.Value()}
	if err := tx.q.DeleteRecordIndexEntries(tx.ctx, recordKey); err != nil {
		return newError(CodeWriteError, op, collection, err)
	}
	if _, err := tx.q.DeleteRecord(tx.ctx, recordKey); err != nil {
		return newError(CodeWriteError, op, collection, err)
	}
	return nil
}

// GetAll returns every document of the collection ordered by primary key.
func (tx *Tx) GetAll(collection string) ([]Document, error) {
	const op = "getAll"
	start := time.Now()
	docs, err := tx.getAll(op, collection)
	tx.observe(op, collection, start, err)
	return docs, err
}

func (tx *Tx) getAll(op, collection string) ([]Document, error) {
	if err := tx.check(op, collection, false); err != nil {
		return nil, err
	}
	if _, err := tx.collection(op, collection, CodeReadError); err != nil {
		return nil, err
	}
	rows, err := tx.q.ListRecords(tx.ctx, sqldb.CollectionParams{Store: tx.store, Collection: collection})
	if err != nil {
		return nil, newError(CodeReadError, op, collection, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		key, err := keyFromSQL(row.Pk)
		if err != nil {
			return nil, newError(CodeReadError, op, collection, err)
		}
		docs = append(docs, Document{Key: key, Data: json.RawMessage(row.Data)})
	}
	return docs, nil
}

// Clear deletes every document of the collection. The key generator is kept.
func (tx *Tx) Clear(collection string) error {
	const op = "clear"
	start := time.Now()
	err := tx.clear(op, collection)
	tx.observe(op, collection, start, err)
	return err
}

func (tx *Tx) clear(op, collection string) error {
	if err := tx.check(op, collection, true); err != nil {
		return err
	}
	if _, err := tx.collection(op, collection, CodeWriteError); err != nil {
		return err
	}
	params := sqldb.CollectionParams{Store: tx.store, Collection: collection}
	if err := tx.q.DeleteCollectionIndexEntries(tx.ctx, params); err != nil {
		return newError(CodeWriteError, op, collection, err)
	}
	if err := tx.q.DeleteRecords(tx.ctx, params); err != nil {
		return newError(CodeWriteError, op, collection, err)
	}
	return nil
}

// Count returns the number of documents in the collection.
func (tx *Tx) Count(collection string) (int64, error) {
	const op = "count"
	if err := tx.check(op, collection, false); err != nil {
		return 0, err
	}
	if _, err := tx.collection(op, collection, CodeReadError); err != nil {
		return 0, err
	}
	n, err := tx.q.CountRecords(tx.ctx, sqldb.CollectionParams{Store: tx.store, Collection: collection})
	if err != nil {
		return 0, newError(CodeReadError, op, collection, err)
	}
	return n, nil
}

// HasCollection reports whether the collection exists in the persisted catalog.
func (tx *Tx) HasCollection(collection string) (bool, error) {
	_, err := tx.collection("lookup", collection, CodeReadError)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Collections returns the persisted catalog ordered by collection name.
func (tx *Tx) Collections() ([]CollectionInfo, error) {
	const op = "collections"
	if err := tx.check(op, "", false); err != nil {
		return nil, err
	}
	cols, err := tx.q.ListCollections(tx.ctx, tx.store)
	if err != nil {
		return nil, newError(CodeReadError, op, "", err)
	}
	infos := make([]CollectionInfo, 0, len(cols))
	for _, c := range cols {
		indexes, err := tx.q.ListIndexes(tx.ctx, sqldb.ListIndexesParams{Store: tx.store, Collection: c.Name})
		if err != nil {
			return nil, newError(CodeReadError, op, c.Name, err)
		}
		info := CollectionInfo{
			Name:           c.Name,
			KeyPath:        c.KeyPath,
			AutoIncrement:  c.AutoIncrement,
			CreatedVersion: int(c.CreatedVersion),
			Indexes:        make([]IndexInfo, 0, len(indexes)),
		}
		for _, idx := range indexes {
			info.Indexes = append(info.Indexes, IndexInfo{
				Name:           idx.Name,
				KeyPath:        idx.KeyPath,
				MultiEntry:     idx.MultiEntry,
				Unique:         idx.IsUnique,
				CreatedVersion: int(idx.CreatedVersion),
			})
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// MigrationLog returns the gates applied to the store, oldest first.
func (tx *Tx) MigrationLog() ([]sqldb.MigrationLog, error) {
	const op = "migrationLog"
	if err := tx.check(op, "", false); err != nil {
		return nil, err
	}
	entries, err := tx.q.ListMigrationLog(tx.ctx, tx.store)
	if err != nil {
		return nil, newError(CodeReadError, op, "", err)
	}
	return entries, nil
}
