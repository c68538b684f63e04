package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sqldb "github.com/focus-md/focus/internal/database/sqlc"
)

// Cursor is a forward-only iterator over an index range, ordered by index value
// then primary key. Records reached through several values of a multi-entry
// index are yielded once. A cursor is only valid inside its transaction.
type Cursor struct {
	rows       *sql.Rows
	collection string
	index      string
	multiEntry bool
	seen       map[string]struct{}
	doc        Document
	value      any
	err        error
	closed     bool
}

// Cursor opens a cursor over the documents whose index value falls within r.
func (tx *Tx) Cursor(collection, index string, r KeyRange) (*Cursor, error) {
	const op = "cursor"
	start := time.Now()
	c, err := tx.cursor(op, collection, index, r)
	tx.observe(op, collection, start, err)
	return c, err
}

func (tx *Tx) cursor(op, collection, index string, r KeyRange) (*Cursor, error) {
	if err := tx.check(op, collection, false); err != nil {
		return nil, err
	}
	meta, err := tx.collection(op, collection, CodeReadError)
	if err != nil {
		return nil, err
	}
	idx, ok := meta.index(index)
	if !ok {
		return nil, newError(CodeIndexNotFound, op, collection, fmt.Errorf("index %q", index))
	}
	bounds, err := r.normalize()
	if err != nil {
		return nil, newError(CodeReadError, op, collection, err)
	}

	rows, err := tx.q.IndexRangeRows(tx.ctx, sqldb.IndexRangeParams{
		Store:      tx.store,
		Collection: collection,
		IndexName:  index,
		Lower:      bounds.Lower,
		LowerOpen:  bounds.LowerOpen,
		Upper:      bounds.Upper,
		UpperOpen:  bounds.UpperOpen,
	})
	if err != nil {
		return nil, newError(CodeReadError, op, collection, err)
	}

	c := &Cursor{
		rows:       rows,
		collection: collection,
		index:      index,
		multiEntry: idx.MultiEntry,
	}
	if idx.MultiEntry {
		c.seen = map[string]struct{}{}
	}
	tx.cursors = append(tx.cursors, c)
	return c, nil
}

// Next advances to the next document. It returns false at the end of the range or on error.
func (c *Cursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	for c.rows.Next() {
		var value, pk any
		var data string
		if err := c.rows.Scan(&value, &pk, &data); err != nil {
			c.err = newError(CodeReadError, "cursor", c.collection, err)
			return false
		}
		key, err := keyFromSQL(pk)
		if err != nil {
			c.err = newError(CodeReadError, "cursor", c.collection, err)
			return false
		}
		if c.multiEntry {
			id := dedupeKey(key)
			if _, dup := c.seen[id]; dup {
				continue
			}
			c.seen[id] = struct{}{}
		}
		c.doc = Document{Key: key, Data: json.RawMessage(data)}
		c.value = value
		return true
	}
	if err := c.rows.Err(); err != nil {
		c.err = newError(CodeReadError, "cursor", c.collection, err)
	}
	return false
}

// Document returns the current document.
func (c *Cursor) Document() Document {
	return c.doc
}

// Value returns the index value the current document was reached through.
func (c *Cursor) Value() any {
	return c.value
}

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Close releases the cursor. It is called automatically when the transaction ends.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

// GetByIndex returns every document whose index value falls within r.
func (tx *Tx) GetByIndex(collection, index string, r KeyRange) ([]Document, error) {
	c, err := tx.Cursor(collection, index, r)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	var docs []Document
	for c.Next() {
		docs = append(docs, c.Document())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
