package usecase

import (
	"fmt"

	"github.com/focus-md/focus/internal/database"
)

// Bounds collects the comparison operators a caller supplied for an index query.
// Nil operators are unset.
type Bounds struct {
	Eq  any
	Gt  any
	Gte any
	Lt  any
	Lte any
}

// Range converts the operators into a key range. No operators selects the whole index.
func (b Bounds) Range() (database.KeyRange, error) {
	if b.Eq != nil {
		if b.Gt != nil || b.Gte != nil || b.Lt != nil || b.Lte != nil {
			return database.KeyRange{}, fmt.Errorf("eq cannot be combined with other operators")
		}
		return database.Only(b.Eq), nil
	}
	if b.Gt != nil && b.Gte != nil {
		return database.KeyRange{}, fmt.Errorf("gt and gte are mutually exclusive")
	}
	if b.Lt != nil && b.Lte != nil {
		return database.KeyRange{}, fmt.Errorf("lt and lte are mutually exclusive")
	}

	var r database.KeyRange
	switch {
	case b.Gt != nil:
		r.Lower, r.LowerOpen = b.Gt, true
	case b.Gte != nil:
		r.Lower = b.Gte
	}
	switch {
	case b.Lt != nil:
		r.Upper, r.UpperOpen = b.Lt, true
	case b.Lte != nil:
		r.Upper = b.Lte
	}
	return r, nil
}
