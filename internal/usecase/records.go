package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/focus-md/focus/internal/database"
)

// Records reads and writes documents of collections named at runtime. It backs
// the CLI and the MCP tools, which only know collection names as strings.
type Records struct {
	db *database.Context
}

func NewRecords(dbCtx *database.Context) *Records {
	return &Records{db: dbCtx}
}

// KeyFor reads a key typed on a command line for collection. Collections keyed
// by an application string always get a string key, even when raw is digits.
func (u *Records) KeyFor(collection, raw string) database.Key {
	if layout, err := u.db.Registry().At(u.db.TargetVersion()); err == nil {
		if def, ok := layout.Collection(collection); ok && !def.AutoIncrement {
			return database.StringKey(raw)
		}
	}
	return database.ParseKey(raw)
}

// Get returns the document stored under key.
func (u *Records) Get(ctx context.Context, collection string, key database.Key) (json.RawMessage, error) {
	var data json.RawMessage
	err := u.db.View(ctx, func(tx *database.Tx) error {
		var err error
		data, err = tx.Get(collection, key)
		return err
	})
	return data, err
}

// List returns up to limit documents ordered by key. A limit of zero returns all.
func (u *Records) List(ctx context.Context, collection string, limit int) ([]database.Document, error) {
	var docs []database.Document
	err := u.db.View(ctx, func(tx *database.Tx) error {
		var err error
		docs, err = tx.GetAll(collection)
		return err
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

type QueryInput struct {
	Collection string
	Index      string
	Range      database.KeyRange
	Limit      int
}

// Query returns the documents whose index value falls within the range.
func (u *Records) Query(ctx context.Context, input QueryInput) ([]database.Document, error) {
	layout, err := u.db.Registry().At(u.db.TargetVersion())
	if err != nil {
		return nil, err
	}
	if _, ok := layout.Index(input.Collection, input.Index); !ok {
		if _, ok := layout.Collection(input.Collection); !ok {
			return nil, &database.Error{Code: database.CodeNotFound, Op: "query", Collection: input.Collection, Err: database.ErrCollectionNotFound}
		}
		return nil, &database.Error{Code: database.CodeIndexNotFound, Op: "query", Collection: input.Collection, Err: fmt.Errorf("index %q", input.Index)}
	}

	var docs []database.Document
	err = u.db.View(ctx, func(tx *database.Tx) error {
		c, err := tx.Cursor(input.Collection, input.Index, input.Range)
		if err != nil {
			return err
		}
		defer c.Close()
		for c.Next() {
			docs = append(docs, c.Document())
			if input.Limit > 0 && len(docs) == input.Limit {
				break
			}
		}
		return c.Err()
	})
	return docs, err
}

// Put stores a document, replacing any document with the same key.
func (u *Records) Put(ctx context.Context, collection string, data []byte) (database.Key, error) {
	var key database.Key
	err := u.db.Update(ctx, func(tx *database.Tx) error {
		var err error
		key, err = tx.Put(collection, data)
		return err
	})
	return key, err
}

// Delete removes the document stored under key. It reports whether the
// document existed before the delete.
func (u *Records) Delete(ctx context.Context, collection string, key database.Key) (bool, error) {
	existed := false
	err := u.db.Update(ctx, func(tx *database.Tx) error {
		if _, err := tx.Get(collection, key); err == nil {
			existed = true
		} else if database.CodeOf(err) != database.CodeNotFound {
			return err
		}
		return tx.Delete(collection, key)
	})
	return existed, err
}

// Clear removes every document from the named collections. No names clears the
// whole store. Everything happens in one transaction.
func (u *Records) Clear(ctx context.Context, collections ...string) (int64, error) {
	if len(collections) == 0 {
		return database.ClearDatabase(u.db)
	}

	var removed int64
	err := u.db.Update(ctx, func(tx *database.Tx) error {
		for _, name := range collections {
			n, err := tx.Count(name)
			if err != nil {
				return err
			}
			if err := tx.Clear(name); err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	return removed, err
}

type CollectionStats struct {
	database.CollectionInfo
	Records int64 `json:"records"`
}

type StoreStats struct {
	Name             string            `json:"name"`
	PersistedVersion int               `json:"persistedVersion"`
	TargetVersion    int               `json:"targetVersion"`
	LatestVersion    int               `json:"latestVersion"`
	Collections      []CollectionStats `json:"collections"`
	AppliedGates     []int64           `json:"appliedGates"`
}

// Stats describes the persisted catalog together with record counts.
func (u *Records) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{
		Name:          u.db.Registry().Name(),
		TargetVersion: u.db.TargetVersion(),
		LatestVersion: u.db.Registry().Latest(),
	}
	err := u.db.View(ctx, func(tx *database.Tx) error {
		cols, err := tx.Collections()
		if err != nil {
			return err
		}
		for _, c := range cols {
			n, err := tx.Count(c.Name)
			if err != nil {
				return err
			}
			stats.Collections = append(stats.Collections, CollectionStats{CollectionInfo: c, Records: n})
		}
		log, err := tx.MigrationLog()
		if err != nil {
			return err
		}
		for _, entry := range log {
			stats.AppliedGates = append(stats.AppliedGates, entry.Version)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if stats.PersistedVersion, err = u.db.PersistedVersion(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
