package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/focus-md/focus/internal/database"
)

// Backup is the export file format: collection name to the records of that
// collection, each record exactly as stored.
type Backup map[string][]json.RawMessage

// Collections returns the collection names in the backup, sorted.
func (b Backup) Collections() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns the total number of records in the backup.
func (b Backup) Records() int {
	n := 0
	for _, recs := range b {
		n += len(recs)
	}
	return n
}

// Export snapshots every collection of the store in one read transaction.
// Empty collections are exported as empty arrays.
func Export(ctx context.Context, db *database.Context) (Backup, error) {
	backup := Backup{}
	err := db.View(ctx, func(tx *database.Tx) error {
		cols, err := tx.Collections()
		if err != nil {
			return err
		}
		for _, col := range cols {
			docs, err := tx.GetAll(col.Name)
			if err != nil {
				return err
			}
			recs := make([]json.RawMessage, 0, len(docs))
			for _, doc := range docs {
				recs = append(recs, doc.Data)
			}
			backup[col.Name] = recs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return backup, nil
}

// Import replaces the contents of every collection named in b with its records,
// in one read-write transaction. Collections absent from b are left alone. Any
// failure rolls back the whole import, including collections already replaced.
func Import(ctx context.Context, db *database.Context, b Backup) error {
	const op = "import"
	return db.Update(ctx, func(tx *database.Tx) error {
		names := b.Collections()
		for _, name := range names {
			ok, err := tx.HasCollection(name)
			if err != nil {
				return err
			}
			if !ok {
				return &database.Error{Code: database.CodeNotFound, Op: op, Collection: name, Err: database.ErrCollectionNotFound}
			}
		}

		for _, name := range names {
			if err := tx.Clear(name); err != nil {
				return err
			}
			for i, rec := range b[name] {
				if _, err := tx.Put(name, rec); err != nil {
					return fmt.Errorf("record %d: %w", i, err)
				}
			}
		}
		return nil
	})
}

// ParseBackup decodes an export file.
func ParseBackup(data []byte) (Backup, error) {
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("invalid backup: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("invalid backup: not a JSON object")
	}
	return b, nil
}
