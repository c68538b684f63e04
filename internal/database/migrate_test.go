package database

import (
	"context"
	"errors"
	"reflect"
	"testing"

	sqldb "github.com/focus-md/focus/internal/database/sqlc"
	"github.com/focus-md/focus/internal/schema"
)

func TestUpgradePathIndependence(t *testing.T) {
	bg := context.Background()

	direct := openTestDB(t, Config{})
	h, err := direct.Open(bg, schema.Focus.Latest())
	if err != nil {
		t.Fatalf("direct Open returned error: %v", err)
	}
	_ = h.Close()

	stepwise := openTestDB(t, Config{})
	for v := 1; v <= schema.Focus.Latest(); v++ {
		h, err := stepwise.Open(bg, v)
		if err != nil {
			t.Fatalf("Open(%d) returned error: %v", v, err)
		}
		if got := h.Upgrade().Gates; len(got) != 1 || got[0] != v {
			t.Fatalf("expected only gate %d, got %v", v, got)
		}
		_ = h.Close()
	}

	want, err := direct.Describe(bg)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	got, err := stepwise.Describe(bg)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("catalogs differ:\ndirect:   %+v\nstepwise: %+v", want, got)
	}

	// The persisted catalog converges to the registry's current layout.
	layout := schema.Focus.Current().Collections()
	if len(layout) != len(got) {
		t.Fatalf("expected %d collections, got %d", len(layout), len(got))
	}
	for i, def := range layout {
		info := got[i]
		if info.Name != def.Name || info.KeyPath != def.KeyPath || info.AutoIncrement != def.AutoIncrement {
			t.Fatalf("collection %d: want %+v, got %+v", i, def, info)
		}
		if len(info.Indexes) != len(def.Indexes) {
			t.Fatalf("collection %s: want %d indexes, got %d", def.Name, len(def.Indexes), len(info.Indexes))
		}
		for j, idx := range def.Indexes {
			if info.Indexes[j].Name != idx.Name || info.Indexes[j].MultiEntry != idx.MultiEntry {
				t.Fatalf("collection %s index %d: want %+v, got %+v", def.Name, j, idx, info.Indexes[j])
			}
		}
	}
}

func TestUpgradeAcrossSkippedVersionsRunsGatesInOrder(t *testing.T) {
	ctx := openTestDB(t, Config{})
	bg := context.Background()

	h, err := ctx.Open(bg, 2)
	if err != nil {
		t.Fatalf("Open(2) returned error: %v", err)
	}
	_ = h.Close()

	h, err = ctx.Open(bg, 8)
	if err != nil {
		t.Fatalf("Open(8) returned error: %v", err)
	}
	defer h.Close()

	report := h.Upgrade()
	if !reflect.DeepEqual(report.Gates, []int{3, 4, 5, 6, 7, 8}) {
		t.Fatalf("expected gates 3..8, got %v", report.Gates)
	}
	if report.From != 2 || report.To != 8 {
		t.Fatalf("unexpected range %d -> %d", report.From, report.To)
	}
	if want := totalSteps(schema.Focus, 2, 8); report.Steps != want {
		t.Fatalf("expected %d steps, got %d", want, report.Steps)
	}

	if got := migrationVersions(t, ctx); !reflect.DeepEqual(got, []int64{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("unexpected migration log %v", got)
	}

	// Collections from intermediate gates exist, the version 9 collection does not.
	err = h.View(bg, func(tx *Tx) error {
		for _, name := range []string{schema.Events, schema.TimeLogs, schema.Milestones, schema.FixedBreakRules} {
			ok, err := tx.HasCollection(name)
			if err != nil {
				return err
			}
			if !ok {
				t.Fatalf("expected collection %s after upgrade", name)
			}
		}
		ok, err := tx.HasCollection(schema.InboxItems)
		if err != nil {
			return err
		}
		if ok {
			t.Fatalf("inboxItems arrives at version 9")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}
}

var notesRegistry = schema.MustRegistry("notes",
	schema.Version{
		Number:      1,
		Collections: []schema.CollectionDef{{Name: "notes", KeyPath: "id", AutoIncrement: true}},
	},
	schema.Version{
		Number:      2,
		Collections: []schema.CollectionDef{{Name: "labels", KeyPath: "name"}},
		Indexes:     []schema.IndexDef{{Collection: "notes", Name: "byTitle", KeyPath: "title", Unique: true}},
	},
)

func TestFailedUpgradeRollsBackEveryGate(t *testing.T) {
	ctx := openTestDB(t, Config{Registry: notesRegistry})
	bg := context.Background()

	h, err := ctx.Open(bg, 1)
	if err != nil {
		t.Fatalf("Open(1) returned error: %v", err)
	}
	var firstKey Key
	err = h.Update(bg, func(tx *Tx) error {
		var err error
		if firstKey, err = tx.Add("notes", []byte(`{"title":"same"}`)); err != nil {
			return err
		}
		_, err = tx.Add("notes", []byte(`{"title":"same"}`))
		return err
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	_ = h.Close()

	_, err = ctx.Open(bg, 2)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected migration failure, got %v", err)
	}
	if CodeOf(err) != CodeMigrationFailed {
		t.Fatalf("expected code migration failed, got %s", CodeOf(err))
	}

	v, err := ctx.PersistedVersion(bg)
	if err != nil {
		t.Fatalf("PersistedVersion returned error: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected version to stay at 1, got %d", v)
	}

	h, err = ctx.Open(bg, 1)
	if err != nil {
		t.Fatalf("Open(1) after failure returned error: %v", err)
	}
	err = h.View(bg, func(tx *Tx) error {
		infos, err := tx.Collections()
		if err != nil {
			return err
		}
		if len(infos) != 1 || infos[0].Name != "notes" || len(infos[0].Indexes) != 0 {
			t.Fatalf("partial upgrade leaked into catalog: %+v", infos)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}
	if got := migrationVersions(t, ctx); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("unexpected migration log %v", got)
	}

	// Once the data no longer violates the index, the same gate succeeds.
	err = h.Update(bg, func(tx *Tx) error {
		return tx.Delete("notes", firstKey)
	})
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	_ = h.Close()

	h, err = ctx.Open(bg, 2)
	if err != nil {
		t.Fatalf("Open(2) after fix returned error: %v", err)
	}
	defer h.Close()
	if h.Upgrade().Steps != 2 {
		t.Fatalf("expected 2 steps, got %d", h.Upgrade().Steps)
	}

	err = h.View(bg, func(tx *Tx) error {
		docs, err := tx.GetByIndex("notes", "byTitle", Only("same"))
		if err != nil {
			return err
		}
		if len(docs) != 1 {
			t.Fatalf("expected existing record to be indexed, got %d", len(docs))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}
}

func TestStepsSkipExistingDefinitions(t *testing.T) {
	ctx := openTestDB(t, Config{})
	bg := context.Background()
	q := sqldb.New(ctx.DB)

	// A catalog left behind by an interrupted upgrade from another client.
	if err := q.InsertStore(bg, schema.StoreName); err != nil {
		t.Fatalf("InsertStore returned error: %v", err)
	}
	if err := q.InsertCollection(bg, sqldb.InsertCollectionParams{
		Store: schema.StoreName, Name: schema.Tasks, KeyPath: "id", AutoIncrement: true, CreatedVersion: 1,
	}); err != nil {
		t.Fatalf("InsertCollection returned error: %v", err)
	}

	h, err := ctx.Open(bg, 0)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer h.Close()

	if want := totalSteps(schema.Focus, 0, schema.Focus.Latest()) - 1; h.Upgrade().Steps != want {
		t.Fatalf("expected %d steps, got %d", want, h.Upgrade().Steps)
	}
}

func TestConflictingDefinitionFailsUpgrade(t *testing.T) {
	ctx := openTestDB(t, Config{})
	bg := context.Background()
	q := sqldb.New(ctx.DB)

	if err := q.InsertStore(bg, schema.StoreName); err != nil {
		t.Fatalf("InsertStore returned error: %v", err)
	}
	if err := q.InsertCollection(bg, sqldb.InsertCollectionParams{
		Store: schema.StoreName, Name: schema.Tasks, KeyPath: "uuid", CreatedVersion: 1,
	}); err != nil {
		t.Fatalf("InsertCollection returned error: %v", err)
	}

	_, err := ctx.Open(bg, 0)
	if !errors.Is(err, ErrMigrationFailed) || !errors.Is(err, ErrSchemaConflict) {
		t.Fatalf("expected schema conflict, got %v", err)
	}
	assertCount(t, ctx.DB, "collections", 1)
}

func TestNewIndexCoversExistingRecords(t *testing.T) {
	ctx := openTestDB(t, Config{})
	bg := context.Background()

	h, err := ctx.Open(bg, 1)
	if err != nil {
		t.Fatalf("Open(1) returned error: %v", err)
	}
	err = h.Update(bg, func(tx *Tx) error {
		_, err := tx.Add(schema.Tasks, []byte(`{"title":"old","priority":3,"isDeleted":0}`))
		return err
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	_ = h.Close()

	err = ctx.View(bg, func(tx *Tx) error {
		byPriority, err := tx.GetByIndex(schema.Tasks, "byPriority", Only(3))
		if err != nil {
			return err
		}
		byDeleted, err := tx.GetByIndex(schema.Tasks, "byIsDeleted", Only(0))
		if err != nil {
			return err
		}
		if len(byPriority) != 1 || len(byDeleted) != 1 {
			t.Fatalf("expected indexes created later to include existing record, got %d and %d", len(byPriority), len(byDeleted))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}
}
