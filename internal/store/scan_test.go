package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/focus-md/focus/internal/database"
	"github.com/focus-md/focus/internal/model"
	"github.com/focus-md/focus/internal/store"
)

func seedTimeLogs(t *testing.T, logs *store.Table[model.TimeLog]) {
	t.Helper()
	entries := []model.TimeLog{
		{Date: "2024-03-01", DurationMinutes: 30, IsLogged: 1},
		{Date: "2024-03-02", DurationMinutes: 45, IsLogged: 0},
		{Date: "2024-03-03", DurationMinutes: 60, IsLogged: 1},
		{Date: "2024-03-09", DurationMinutes: 15, IsLogged: 1},
		{Date: "2024-02-28", DurationMinutes: 90, IsLogged: 1},
	}
	for i := range entries {
		_, err := logs.Add(context.Background(), &entries[i])
		require.NoError(t, err)
	}
}

func TestScanAppliesResidualPredicate(t *testing.T) {
	db := newTestDB(t)
	logs := store.Of(db, model.TimeLogs)
	seedTimeLogs(t, logs)

	week := database.Bound("2024-03-01", "2024-03-07", false, false)
	logged := func(l *model.TimeLog) bool { return l.IsLogged == 1 }

	got, err := store.Collect(logs.Scan(context.Background(), model.TimeLogsByDate, week, logged))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "2024-03-01", got[0].Date)
	require.Equal(t, "2024-03-03", got[1].Date)

	all, err := store.Collect(logs.Scan(context.Background(), model.TimeLogsByDate, database.All(), nil))
	require.NoError(t, err)
	require.Len(t, all, 5)
	require.Equal(t, "2024-02-28", all[0].Date)
}

func TestScanIsRestartable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	logs := store.Of(db, model.TimeLogs)
	seedTimeLogs(t, logs)

	seq := logs.Scan(ctx, model.TimeLogsByIsLogged, database.Only(1), nil)

	first := 0
	for rec, err := range seq {
		require.NoError(t, err)
		require.Equal(t, 1, rec.IsLogged)
		first++
		if first == 2 {
			break
		}
	}
	require.Equal(t, 2, first)
	require.Zero(t, db.LiveHandles(), "stopping early must release the handle")

	_, err := logs.Add(ctx, &model.TimeLog{Date: "2024-03-10", IsLogged: 1})
	require.NoError(t, err)

	second := 0
	for _, err := range seq {
		require.NoError(t, err)
		second++
	}
	require.Equal(t, 5, second, "a new range sees the latest committed state")
}

func TestScanReportsErrors(t *testing.T) {
	db := newTestDB(t)
	logs := store.Of(db, model.TimeLogs)

	_, err := store.Collect(logs.Scan(context.Background(), model.TimeLogs.Index("byMood"), database.All(), nil))
	require.ErrorIs(t, err, database.ErrIndexNotFound)

	_, err = store.Collect(logs.Scan(context.Background(), model.TimeLogsByDate, database.Bound("b", "a", false, false), nil))
	require.ErrorIs(t, err, database.ErrInvalidRange)
}

func TestScanHoldsItsHandleWhileRanging(t *testing.T) {
	db, err := database.CreateDatabase(database.Config{Path: ":memory:", BlockedTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.CloseDatabase(db))
	})
	logs := store.Of(db, model.TimeLogs)
	seedTimeLogs(t, logs)

	var nested error
	for rec, err := range logs.Scan(context.Background(), model.TimeLogsByDate, database.All(), nil) {
		require.NoError(t, err)
		require.NotNil(t, rec)
		_, nested = logs.Count(context.Background())
		break
	}
	require.ErrorIs(t, nested, database.ErrBlocked)
	require.Equal(t, 0, db.LiveHandles())

	// Collected records can feed further calls once the scan has released its handle.
	all, err := store.Collect(logs.Scan(context.Background(), model.TimeLogsByDate, database.All(), nil))
	require.NoError(t, err)
	n, err := logs.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(len(all)), n)
}
