package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	sqldb "github.com/focus-md/focus/internal/database/sqlc"
)

// Document is a stored record together with its primary key.
type Document struct {
	Key  Key
	Data json.RawMessage
}

func decodeDoc(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if doc == nil {
		return nil, ErrInvalidRecord
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidRecord)
	}
	return doc, nil
}

func compactDoc(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return buf.String(), nil
}

// lookupPath resolves a dotted key path such as "meta.createdAt".
func lookupPath(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(doc map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part]
		if !ok || next == nil {
			m := map[string]any{}
			cur[part] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not an object", ErrInvalidKey, part)
		}
		cur = m
	}
	cur[parts[len(parts)-1]] = value
	return nil
}

// indexValue converts a document value into an index value. Only numbers and
// strings are indexable; everything else excludes the record from the index.
func indexValue(v any) (any, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := numberValue(x)
		if err != nil {
			return nil, false
		}
		return n, true
	case string:
		return x, true
	}
	return nil, false
}

// indexValues returns the distinct values a document contributes to idx.
func indexValues(doc map[string]any, idx sqldb.CollectionIndex) []any {
	raw, ok := lookupPath(doc, idx.KeyPath)
	if !ok {
		return nil
	}
	if arr, isArr := raw.([]any); isArr {
		if !idx.MultiEntry {
			return nil
		}
		var out []any
		for _, elem := range arr {
			v, ok := indexValue(elem)
			if !ok || containsValue(out, v) {
				continue
			}
			out = append(out, v)
		}
		return out
	}
	v, ok := indexValue(raw)
	if !ok {
		return nil
	}
	return []any{v}
}

func containsValue(values []any, v any) bool {
	for _, existing := range values {
		if compareValues(existing, v) == 0 {
			return true
		}
	}
	return false
}

func keyNumber(k Key) json.Number {
	return json.Number(strconv.FormatInt(k.Int(), 10))
}

// dedupeKey identifies a primary key inside a cursor's seen set.
func dedupeKey(k Key) string {
	if k.IsString() {
		return "s:" + k.String()
	}
	return "i:" + k.String()
}
