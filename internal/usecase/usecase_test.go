package usecase

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/schema"
)

func setupTestDB(t *testing.T) *database.Context {
	t.Helper()
	t.Setenv("FOCUS_DIR", t.TempDir())
	t.Setenv("XDG_DATA_HOME", "")

	dbCtx, err := database.CreateDatabase(database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.CloseDatabase(dbCtx))
	})
	return dbCtx
}

func seed(t *testing.T, records *Records) {
	t.Helper()
	ctx := context.Background()
	for _, doc := range []string{
		`{"title":"plan","priority":1,"tags":["work"]}`,
		`{"title":"ship","priority":3,"tags":["work","release"]}`,
		`{"title":"rest","priority":2}`,
	} {
		_, err := records.Put(ctx, schema.Tasks, []byte(doc))
		require.NoError(t, err)
	}
	_, err := records.Put(ctx, schema.Tags, []byte(`{"name":"work"}`))
	require.NoError(t, err)
}

func titles(t *testing.T, docs []database.Document) []string {
	t.Helper()
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		var rec struct {
			Title string `json:"title"`
		}
		require.NoError(t, json.Unmarshal(d.Data, &rec))
		out = append(out, rec.Title)
	}
	return out
}

func TestRecordsQueryAndList(t *testing.T) {
	dbCtx := setupTestDB(t)
	records := NewRecords(dbCtx)
	seed(t, records)
	ctx := context.Background()

	docs, err := records.Query(ctx, QueryInput{Collection: schema.Tasks, Index: "byPriority", Range: database.LowerBound(2, false)})
	require.NoError(t, err)
	require.Equal(t, []string{"rest", "ship"}, titles(t, docs))

	docs, err = records.Query(ctx, QueryInput{Collection: schema.Tasks, Index: "byTags", Range: database.Only("work"), Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"plan"}, titles(t, docs))

	_, err = records.Query(ctx, QueryInput{Collection: schema.Tasks, Index: "byMood", Range: database.All()})
	require.ErrorIs(t, err, database.ErrIndexNotFound)

	_, err = records.Query(ctx, QueryInput{Collection: "chores", Index: "byTitle", Range: database.All()})
	require.ErrorIs(t, err, database.ErrCollectionNotFound)

	listed, err := records.List(ctx, schema.Tasks, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"plan", "ship"}, titles(t, listed))

	data, err := records.Get(ctx, schema.Tags, database.StringKey("work"))
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"work"}`, string(data))
}

func TestRecordsDeleteAndClear(t *testing.T) {
	dbCtx := setupTestDB(t)
	records := NewRecords(dbCtx)
	seed(t, records)
	ctx := context.Background()

	existed, err := records.Delete(ctx, schema.Tasks, database.IntKey(1))
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = records.Delete(ctx, schema.Tasks, database.IntKey(1))
	require.NoError(t, err)
	require.False(t, existed)

	removed, err := records.Clear(ctx, schema.Tasks)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	removed, err = records.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, err = records.Clear(ctx, "widgets")
	require.ErrorIs(t, err, database.ErrCollectionNotFound)
}

func TestKeyForNumericLookingStringKeys(t *testing.T) {
	dbCtx := setupTestDB(t)
	records := NewRecords(dbCtx)
	ctx := context.Background()

	_, err := records.Put(ctx, schema.Tags, []byte(`{"name":"2024","color":"blue"}`))
	require.NoError(t, err)

	key := records.KeyFor(schema.Tags, "2024")
	require.True(t, key.IsString())
	require.False(t, records.KeyFor(schema.Tasks, "2024").IsString())
	require.True(t, records.KeyFor(schema.AppSettings, "7").IsString())

	data, err := records.Get(ctx, schema.Tags, key)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"2024","color":"blue"}`, string(data))

	existed, err := records.Delete(ctx, schema.Tags, key)
	require.NoError(t, err)
	require.True(t, existed)

	docs, err := records.List(ctx, schema.Tags, 0)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestRecordsStats(t *testing.T) {
	dbCtx := setupTestDB(t)
	records := NewRecords(dbCtx)
	seed(t, records)

	stats, err := records.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, schema.StoreName, stats.Name)
	require.Equal(t, schema.Focus.Latest(), stats.PersistedVersion)
	require.Len(t, stats.Collections, len(schema.Focus.Current().Collections()))
	require.Len(t, stats.AppliedGates, schema.Focus.Latest())

	counts := map[string]int64{}
	for _, c := range stats.Collections {
		counts[c.Name] = c.Records
	}
	require.Equal(t, int64(3), counts[schema.Tasks])
	require.Equal(t, int64(1), counts[schema.Tags])
}

func TestBackupCreateAndRestore(t *testing.T) {
	dbCtx := setupTestDB(t)
	records := NewRecords(dbCtx)
	seed(t, records)
	ctx := context.Background()

	backups := NewBackup(dbCtx)
	backups.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	result, err := backups.Create(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, result.Records)
	require.Equal(t, len(schema.Focus.Current().Collections()), result.Collections)

	listed, err := backups.List()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, result.Hash, listed[0].Hash)

	_, err = records.Clear(ctx)
	require.NoError(t, err)

	restored, err := backups.Restore(ctx, result.Path)
	require.NoError(t, err)
	require.Equal(t, 4, restored.Records)

	docs, err := records.List(ctx, schema.Tasks, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"plan", "ship", "rest"}, titles(t, docs))
}

func TestBackupRestoreRejectsTamperedFile(t *testing.T) {
	dbCtx := setupTestDB(t)
	records := NewRecords(dbCtx)
	seed(t, records)
	ctx := context.Background()

	backups := NewBackup(dbCtx)
	result, err := backups.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(result.Path, []byte(`{"tasks":[]}`), 0o600))

	_, err = backups.Restore(ctx, result.Path)
	require.ErrorContains(t, err, "integrity check failed")

	docs, err := records.List(ctx, schema.Tasks, 0)
	require.NoError(t, err)
	require.Len(t, docs, 3, "a rejected restore must not touch the store")

	pruned, err := backups.Prune(0)
	require.NoError(t, err)
	require.Equal(t, 1, pruned)
}

func TestBoundsRange(t *testing.T) {
	r, err := Bounds{Gte: 2, Lt: 5}.Range()
	require.NoError(t, err)
	require.Equal(t, database.Bound(2, 5, false, true), r)

	r, err = Bounds{Eq: "work"}.Range()
	require.NoError(t, err)
	require.Equal(t, database.Only("work"), r)

	r, err = Bounds{}.Range()
	require.NoError(t, err)
	require.Equal(t, database.All(), r)

	for _, b := range []Bounds{{Eq: 1, Gt: 0}, {Gt: 1, Gte: 1}, {Lt: 1, Lte: 1}} {
		_, err := b.Range()
		require.Error(t, err)
	}
}
