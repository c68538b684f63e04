package store

import (
	"context"
	"errors"
	"iter"

	"github.com/focus-md/focus/internal/database"
)

// errStop ends a scan transaction early when the consumer stops ranging.
var errStop = errors.New("scan stopped")

// Scan returns a lazy iterator over the records whose value on idx falls within
// r and for which keep returns true. A nil keep yields every record in range.
//
// Every range over the returned sequence opens its own handle and read
// transaction, so the sequence can be ranged over again and reflects the state
// committed at that time. Records are decoded one at a time. Errors are yielded
// once, with a nil record, and end the iteration.
//
// The handle stays open while the loop body runs. The body must not call back
// into the same database.Context: with a single handle slot, or with an upgrade
// waiting on the readiness gate, such a call fails with a Blocked error once the
// blocked timeout expires. Collect first when the records feed further writes.
func (t *Table[T]) Scan(ctx context.Context, idx Index[T], r database.KeyRange, keep func(*T) bool) iter.Seq2[*T, error] {
	const op = "scan"
	return func(yield func(*T, error) bool) {
		if err := t.checkIndex(op, idx.name); err != nil {
			yield(nil, err)
			return
		}

		err := t.db.View(ctx, func(tx *database.Tx) error {
			c, err := tx.Cursor(t.collection.name, idx.name, r)
			if err != nil {
				return err
			}
			defer c.Close()

			for c.Next() {
				rec, err := t.decode(op, c.Document().Data)
				if err != nil {
					return err
				}
				if keep != nil && !keep(rec) {
					continue
				}
				if !yield(rec, nil) {
					return errStop
				}
			}
			return c.Err()
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(nil, err)
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[*T, error]) ([]T, error) {
	var out []T
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}
