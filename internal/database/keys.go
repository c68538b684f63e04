package database

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Key is a primary key: either an integer or a string.
type Key struct {
	num   int64
	str   string
	isStr bool
}

// IntKey returns an integer key.
func IntKey(n int64) Key {
	return Key{num: n}
}

// StringKey returns a string key.
func StringKey(s string) Key {
	return Key{str: s, isStr: true}
}

// ParseKey reads an integer key when s parses as one, a string key otherwise.
func ParseKey(s string) Key {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntKey(n)
	}
	return StringKey(s)
}

// IsString reports whether the key is a string key.
func (k Key) IsString() bool {
	return k.isStr
}

// Int returns the integer value of an integer key.
func (k Key) Int() int64 {
	return k.num
}

func (k Key) String() string {
	if k.isStr {
		return k.str
	}
	return strconv.FormatInt(k.num, 10)
}

// Value returns the SQL argument for the key.
func (k Key) Value() any {
	if k.isStr {
		return k.str
	}
	return k.num
}

// MarshalJSON encodes the key as a JSON number or string.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value())
}

func keyFromSQL(v any) (Key, error) {
	switch x := v.(type) {
	case int64:
		return IntKey(x), nil
	case string:
		return StringKey(x), nil
	case []byte:
		return StringKey(string(x)), nil
	case float64:
		if x == math.Trunc(x) {
			return IntKey(int64(x)), nil
		}
	}
	return Key{}, fmt.Errorf("%w: unexpected stored key %T", ErrInvalidKey, v)
}

// keyFromDoc reads a key value out of a decoded document.
func keyFromDoc(v any) (Key, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return Key{}, false
		}
		return IntKey(n), true
	case string:
		return StringKey(x), true
	}
	return Key{}, false
}

// KeyRange selects index values between optional bounds.
type KeyRange struct {
	Lower     any
	Upper     any
	LowerOpen bool
	UpperOpen bool
}

// Only matches exactly v.
func Only(v any) KeyRange {
	return KeyRange{Lower: v, Upper: v}
}

// LowerBound matches values above v (or equal when open is false).
func LowerBound(v any, open bool) KeyRange {
	return KeyRange{Lower: v, LowerOpen: open}
}

// UpperBound matches values below v (or equal when open is false).
func UpperBound(v any, open bool) KeyRange {
	return KeyRange{Upper: v, UpperOpen: open}
}

// Bound matches values between lower and upper with independent open flags.
func Bound(lower, upper any, lowerOpen, upperOpen bool) KeyRange {
	return KeyRange{Lower: lower, Upper: upper, LowerOpen: lowerOpen, UpperOpen: upperOpen}
}

// All matches every indexed value.
func All() KeyRange {
	return KeyRange{}
}

func (r KeyRange) String() string {
	var b strings.Builder
	if r.Lower == nil {
		b.WriteString("(-inf")
	} else {
		if r.LowerOpen {
			b.WriteString("(")
		} else {
			b.WriteString("[")
		}
		fmt.Fprintf(&b, "%v", r.Lower)
	}
	b.WriteString(", ")
	if r.Upper == nil {
		b.WriteString("+inf)")
	} else {
		fmt.Fprintf(&b, "%v", r.Upper)
		if r.UpperOpen {
			b.WriteString(")")
		} else {
			b.WriteString("]")
		}
	}
	return b.String()
}

// normalize converts bounds to SQL values and checks lower <= upper.
func (r KeyRange) normalize() (KeyRange, error) {
	var err error
	out := r
	if r.Lower != nil {
		if out.Lower, err = normalizeBound(r.Lower); err != nil {
			return KeyRange{}, err
		}
	}
	if r.Upper != nil {
		if out.Upper, err = normalizeBound(r.Upper); err != nil {
			return KeyRange{}, err
		}
	}
	if out.Lower != nil && out.Upper != nil {
		c := compareValues(out.Lower, out.Upper)
		if c > 0 || (c == 0 && (out.LowerOpen || out.UpperOpen)) {
			return KeyRange{}, fmt.Errorf("%w: %s", ErrInvalidRange, r)
		}
	}
	return out, nil
}

func normalizeBound(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case string:
		return x, nil
	case Key:
		return x.Value(), nil
	case json.Number:
		return numberValue(x)
	}
	return nil, fmt.Errorf("%w: unsupported bound type %T", ErrInvalidRange, v)
}

func normalizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite bound", ErrInvalidRange)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f), nil
	}
	return f, nil
}

func numberValue(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return normalizeFloat(f)
}

// compareValues orders normalized values: numbers before strings.
func compareValues(a, b any) int {
	as, aStr := a.(string)
	bs, bStr := b.(string)
	switch {
	case aStr && bStr:
		return strings.Compare(as, bs)
	case aStr:
		return 1
	case bStr:
		return -1
	}
	af, bf := toFloat(a), toFloat(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return 0
}
