// Package schema declares the versioned collection and index layout of a store.
//
// A Registry is an ordered table of versions. Each version lists the collections
// and indexes it introduces; the database package diffs that table against the
// persisted catalog instead of hand-writing existence checks per version.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidRegistry is returned when a registry definition is inconsistent.
var ErrInvalidRegistry = errors.New("schema: invalid registry")

// IndexDef describes a secondary index over one field of a collection's records.
type IndexDef struct {
	Collection string
	Name       string
	KeyPath    string
	MultiEntry bool
	Unique     bool
}

// CollectionDef describes a collection and the indexes it is created with.
type CollectionDef struct {
	Name          string
	KeyPath       string
	AutoIncrement bool
	Indexes       []IndexDef
}

// Version is one migration gate: the collections and indexes added at Number.
type Version struct {
	Number      int
	Collections []CollectionDef
	Indexes     []IndexDef
}

// StepKind identifies a structural step.
type StepKind int

const (
	StepCreateCollection StepKind = iota + 1
	StepCreateIndex
)

func (k StepKind) String() string {
	switch k {
	case StepCreateCollection:
		return "create-collection"
	case StepCreateIndex:
		return "create-index"
	default:
		return "unknown"
	}
}

// Step is a single idempotent structural change.
type Step struct {
	Kind       StepKind
	Collection CollectionDef
	Index      IndexDef
}

func (s Step) String() string {
	if s.Kind == StepCreateIndex {
		return fmt.Sprintf("%s %s.%s(%s)", s.Kind, s.Index.Collection, s.Index.Name, s.Index.KeyPath)
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Collection.Name)
}

// Steps flattens the version into ordered steps: each collection followed by its
// own indexes, then indexes added to existing collections.
func (v Version) Steps() []Step {
	var steps []Step
	for _, c := range v.Collections {
		def := c
		def.Indexes = nil
		steps = append(steps, Step{Kind: StepCreateCollection, Collection: def})
		for _, idx := range c.Indexes {
			idx.Collection = c.Name
			steps = append(steps, Step{Kind: StepCreateIndex, Index: idx})
		}
	}
	for _, idx := range v.Indexes {
		steps = append(steps, Step{Kind: StepCreateIndex, Index: idx})
	}
	return steps
}

// Registry is a validated, ordered list of versions for a named store.
type Registry struct {
	name     string
	versions []Version
	// layouts[i] is the cumulative layout after version i+1.
	layouts []*Layout
}

// NewRegistry validates the versions and returns a registry. Versions must be
// numbered 1..N without gaps, collection names must be unique, and every index
// must reference a collection created at the same or an earlier version.
func NewRegistry(name string, versions ...Version) (*Registry, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty store name", ErrInvalidRegistry)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: no versions", ErrInvalidRegistry)
	}

	r := &Registry{name: name}
	layout := &Layout{Version: 0, collections: map[string]*CollectionDef{}}

	for i, v := range versions {
		if v.Number != i+1 {
			return nil, fmt.Errorf("%w: version %d at position %d, versions must be 1..N in order", ErrInvalidRegistry, v.Number, i+1)
		}
		if len(v.Collections) == 0 && len(v.Indexes) == 0 {
			return nil, fmt.Errorf("%w: version %d has no steps", ErrInvalidRegistry, v.Number)
		}

		layout = layout.clone(v.Number)
		for _, step := range v.Steps() {
			if err := layout.apply(step); err != nil {
				return nil, fmt.Errorf("%w: version %d: %w", ErrInvalidRegistry, v.Number, err)
			}
		}

		r.versions = append(r.versions, v)
		r.layouts = append(r.layouts, layout)
	}

	return r, nil
}

// MustRegistry is like NewRegistry but panics on an invalid definition.
func MustRegistry(name string, versions ...Version) *Registry {
	r, err := NewRegistry(name, versions...)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the store name.
func (r *Registry) Name() string {
	return r.name
}

// Latest returns the highest declared version.
func (r *Registry) Latest() int {
	return len(r.versions)
}

// Gates returns the versions in (from, to], in ascending order.
func (r *Registry) Gates(from, to int) ([]Version, error) {
	if from < 0 || to > r.Latest() || from > to {
		return nil, fmt.Errorf("schema: no gates between %d and %d (latest %d)", from, to, r.Latest())
	}
	gates := make([]Version, 0, to-from)
	gates = append(gates, r.versions[from:to]...)
	return gates, nil
}

// At returns the cumulative layout after applying versions 1..v.
func (r *Registry) At(v int) (*Layout, error) {
	if v < 0 || v > r.Latest() {
		return nil, fmt.Errorf("schema: unknown version %d (latest %d)", v, r.Latest())
	}
	if v == 0 {
		return &Layout{collections: map[string]*CollectionDef{}}, nil
	}
	return r.layouts[v-1], nil
}

// Current returns the layout at the latest version.
func (r *Registry) Current() *Layout {
	return r.layouts[len(r.layouts)-1]
}

// Layout is the full set of collections and indexes at one version.
type Layout struct {
	Version     int
	collections map[string]*CollectionDef
}

// Collection returns the named collection definition.
func (l *Layout) Collection(name string) (CollectionDef, bool) {
	c, ok := l.collections[name]
	if !ok {
		return CollectionDef{}, false
	}
	return *c, true
}

// Index returns the named index of a collection.
func (l *Layout) Index(collection, name string) (IndexDef, bool) {
	c, ok := l.collections[collection]
	if !ok {
		return IndexDef{}, false
	}
	for _, idx := range c.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDef{}, false
}

// Collections returns every collection sorted by name, indexes sorted by name.
func (l *Layout) Collections() []CollectionDef {
	out := make([]CollectionDef, 0, len(l.collections))
	for _, c := range l.collections {
		def := *c
		def.Indexes = append([]IndexDef(nil), c.Indexes...)
		sort.Slice(def.Indexes, func(i, j int) bool { return def.Indexes[i].Name < def.Indexes[j].Name })
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l *Layout) clone(version int) *Layout {
	next := &Layout{Version: version, collections: make(map[string]*CollectionDef, len(l.collections))}
	for name, c := range l.collections {
		def := *c
		def.Indexes = append([]IndexDef(nil), c.Indexes...)
		next.collections[name] = &def
	}
	return next
}

func (l *Layout) apply(step Step) error {
	switch step.Kind {
	case StepCreateCollection:
		c := step.Collection
		if c.Name == "" {
			return errors.New("collection with empty name")
		}
		if c.KeyPath == "" {
			return fmt.Errorf("collection %s has no key path", c.Name)
		}
		if _, exists := l.collections[c.Name]; exists {
			return fmt.Errorf("collection %s declared twice", c.Name)
		}
		l.collections[c.Name] = &CollectionDef{Name: c.Name, KeyPath: c.KeyPath, AutoIncrement: c.AutoIncrement}
	case StepCreateIndex:
		idx := step.Index
		c, ok := l.collections[idx.Collection]
		if !ok {
			return fmt.Errorf("index %s references unknown collection %q", idx.Name, idx.Collection)
		}
		if idx.Name == "" || idx.KeyPath == "" {
			return fmt.Errorf("index on %s needs a name and key path", idx.Collection)
		}
		for _, existing := range c.Indexes {
			if existing.Name == idx.Name {
				return fmt.Errorf("index %s.%s declared twice", idx.Collection, idx.Name)
			}
		}
		c.Indexes = append(c.Indexes, idx)
	default:
		return fmt.Errorf("unknown step kind %d", step.Kind)
	}
	return nil
}
