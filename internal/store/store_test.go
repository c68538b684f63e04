package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/model"
	"github.com/focus-md/focus/internal/store"
)

const now = "2024-03-01T09:00:00Z"

func newTestDB(t *testing.T) *database.Context {
	t.Helper()
	db, err := database.CreateDatabase(database.Config{Path: filepath.Join(t.TempDir(), "focus.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.CloseDatabase(db))
	})
	return db
}

func ptr[T any](v T) *T {
	return &v
}

func TestBuyMilkScenario(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tasks := store.Of(db, model.Tasks)

	milk := model.Task{Title: "Buy milk", CreatedAt: now, UpdatedAt: now}
	key, err := tasks.Add(ctx, &milk)
	require.NoError(t, err)
	require.Equal(t, int64(1), key.Int())

	got, err := tasks.Get(ctx, key)
	require.NoError(t, err)
	milk.ID = 1
	require.Equal(t, milk, *got)

	deleted, err := tasks.GetByIndex(ctx, model.TasksByIsDeleted, database.Only(0))
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	require.Equal(t, "Buy milk", deleted[0].Title)

	require.NoError(t, tasks.Remove(ctx, key))
	require.NoError(t, tasks.Remove(ctx, key))

	all, err := tasks.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestAddAddRemove(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	goals := store.Of(db, model.Goals)

	a, err := goals.Add(ctx, &model.Goal{Title: "A", Status: "active", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	_, err = goals.Add(ctx, &model.Goal{Title: "B", Status: "active", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.NoError(t, goals.Remove(ctx, a))

	all, err := goals.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "B", all[0].Title)
	require.Equal(t, int64(2), all[0].ID)
}

func TestStringKeyedCollections(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tags := store.Of(db, model.Tags)

	key, err := tags.Add(ctx, &model.Tag{Name: "work", Color: "red"})
	require.NoError(t, err)
	require.True(t, key.IsString())
	require.Equal(t, "work", key.String())

	_, err = tags.Add(ctx, &model.Tag{Name: "work"})
	require.ErrorIs(t, err, database.ErrDuplicateKey)

	require.NoError(t, tags.Update(ctx, &model.Tag{Name: "work", Color: "blue"}))
	got, err := tags.Get(ctx, database.StringKey("work"))
	require.NoError(t, err)
	require.Equal(t, "blue", got.Color)

	settings := store.Of(db, model.Settings)
	require.NoError(t, settings.Update(ctx, &model.Setting{Key: "theme", Value: json.RawMessage(`"dark"`)}))
	setting, err := settings.Get(ctx, database.StringKey("theme"))
	require.NoError(t, err)
	require.JSONEq(t, `"dark"`, string(setting.Value))
}

func TestGetMissingRecord(t *testing.T) {
	db := newTestDB(t)

	_, err := store.Of(db, model.Projects).Get(context.Background(), database.IntKey(7))
	require.ErrorIs(t, err, database.ErrNotFound)
	require.Equal(t, database.CodeNotFound, database.CodeOf(err))
}

func TestUnknownIndexFailsBeforeEngine(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tasks := store.Of(db, model.Tasks)

	_, err := tasks.GetByIndexName(ctx, "byColour", database.Only("red"))
	require.ErrorIs(t, err, database.ErrIndexNotFound)

	_, err = tasks.GetByIndex(ctx, model.Tasks.Index("byMood"), database.All())
	require.ErrorIs(t, err, database.ErrIndexNotFound)

	_, err = store.Of(db, store.NewCollection[model.Task]("chores")).GetByIndexName(ctx, "byTitle", database.All())
	require.ErrorIs(t, err, database.ErrCollectionNotFound)
}

func TestIndexAtOlderTargetVersion(t *testing.T) {
	db, err := database.CreateDatabase(database.Config{Path: filepath.Join(t.TempDir(), "focus.db"), Version: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDatabase(db) })

	// byTags is declared at version 6.
	_, err = store.Of(db, model.Tasks).GetByIndex(context.Background(), model.TasksByTags, database.Only("x"))
	require.ErrorIs(t, err, database.ErrIndexNotFound)
}

func TestRangeAndMultiEntryQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tasks := store.Of(db, model.Tasks)

	seed := []model.Task{
		{Title: "report", Priority: ptr(3), DueDate: ptr("2024-03-10"), Tags: []string{"work", "writing"}},
		{Title: "groceries", Priority: ptr(1), DueDate: ptr("2024-03-02"), Tags: []string{"home"}},
		{Title: "taxes", Priority: ptr(2), DueDate: ptr("2024-04-15"), Tags: []string{"home", "work"}},
		{Title: "someday"},
	}
	for i := range seed {
		seed[i].CreatedAt, seed[i].UpdatedAt = now, now
		_, err := tasks.Add(ctx, &seed[i])
		require.NoError(t, err)
	}

	titles := func(ts []model.Task) []string {
		out := make([]string, 0, len(ts))
		for _, task := range ts {
			out = append(out, task.Title)
		}
		return out
	}

	march, err := tasks.GetByIndex(ctx, model.TasksByDueDate, database.Bound("2024-03-01", "2024-04-01", false, true))
	require.NoError(t, err)
	require.Equal(t, []string{"groceries", "report"}, titles(march))

	urgent, err := tasks.GetByIndex(ctx, model.TasksByPriority, database.LowerBound(2, false))
	require.NoError(t, err)
	require.Equal(t, []string{"taxes", "report"}, titles(urgent))

	work, err := tasks.GetByIndex(ctx, model.TasksByTags, database.Only("work"))
	require.NoError(t, err)
	require.Equal(t, []string{"report", "taxes"}, titles(work))

	anyTag, err := tasks.GetByIndex(ctx, model.TasksByTags, database.All())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"report", "groceries", "taxes"}, titles(anyTag))

	_, err = tasks.GetByIndex(ctx, model.TasksByPriority, database.Bound(3, 1, false, false))
	require.ErrorIs(t, err, database.ErrInvalidRange)

	n, err := tasks.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}

func TestConcurrentUpdatesLastCommitWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tasks := store.Of(db, model.Tasks)

	key, err := tasks.Add(ctx, &model.Task{Title: "draft", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
	)
	versions := []string{"left", "right"}
	var wg sync.WaitGroup
	errs := make(chan error, len(versions))
	for _, title := range versions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := json.Marshal(model.Task{ID: key.Int(), Title: title, CreatedAt: now, UpdatedAt: now})
			if err != nil {
				errs <- err
				return
			}
			// The write transaction is exclusive until commit, so the body order is the commit order.
			errs <- db.Update(ctx, func(tx *database.Tx) error {
				if _, err := tx.Put(model.Tasks.Name(), data); err != nil {
					return err
				}
				mu.Lock()
				order = append(order, title)
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, order, len(versions))

	got, err := tasks.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, order[len(order)-1], got.Title)
}

func TestClearKeepsKeyGenerator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	inbox := store.Of(db, model.InboxItems)

	for i := 0; i < 3; i++ {
		_, err := inbox.Add(ctx, &model.InboxItem{Content: fmt.Sprintf("thought %d", i), CreatedAt: now})
		require.NoError(t, err)
	}
	require.NoError(t, inbox.Clear(ctx))

	n, err := inbox.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	key, err := inbox.Add(ctx, &model.InboxItem{Content: "after clear", CreatedAt: now})
	require.NoError(t, err)
	require.Equal(t, int64(4), key.Int())
}
