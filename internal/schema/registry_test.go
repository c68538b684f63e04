package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFocusRegistryCurrentLayout(t *testing.T) {
	assert.Equal(t, 9, Focus.Latest())
	assert.Equal(t, "focus", Focus.Name())

	collections := Focus.Current().Collections()
	names := make([]string, 0, len(collections))
	for _, c := range collections {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{
		Tasks, Categories, Sessions, Settings, Goals, Projects, Events, TimeLogs,
		Tags, AppSettings, Milestones, TimeBlocks, FixedBreakRules, ActivityCategories, InboxItems,
	}, names)

	tasks, ok := Focus.Current().Collection(Tasks)
	require.True(t, ok)
	assert.True(t, tasks.AutoIncrement)
	assert.Equal(t, "id", tasks.KeyPath)

	taskIndexes := make([]string, 0, len(tasks.Indexes))
	for _, idx := range tasks.Indexes {
		taskIndexes = append(taskIndexes, idx.Name)
	}
	assert.ElementsMatch(t, []string{
		"byTitle", "byDueDate", "byCompleted", "byPriority", "byProjectId",
		"byGoalId", "byIsFrog", "byTags", "byPlannedDate", "byIsDeleted",
	}, taskIndexes)

	byTags, ok := Focus.Current().Index(Tasks, "byTags")
	require.True(t, ok)
	assert.True(t, byTags.MultiEntry)
}

func TestFocusStoreNames(t *testing.T) {
	same, err := FocusStore(StoreName)
	require.NoError(t, err)
	assert.Same(t, Focus, same)

	work, err := FocusStore("work")
	require.NoError(t, err)
	assert.Equal(t, "work", work.Name())
	assert.Equal(t, Focus.Latest(), work.Latest())
	assert.Len(t, work.Current().Collections(), len(Focus.Current().Collections()))

	_, err = FocusStore(" ")
	assert.ErrorIs(t, err, ErrInvalidRegistry)
}

func TestStringKeyedCollections(t *testing.T) {
	for name, keyPath := range map[string]string{Settings: "key", AppSettings: "key", Tags: "name"} {
		c, ok := Focus.Current().Collection(name)
		require.True(t, ok, name)
		assert.False(t, c.AutoIncrement, name)
		assert.Equal(t, keyPath, c.KeyPath, name)
	}
}

func TestLayoutAtIntermediateVersion(t *testing.T) {
	v2, err := Focus.At(2)
	require.NoError(t, err)

	_, ok := v2.Collection(Goals)
	assert.True(t, ok)
	_, ok = v2.Collection(Projects)
	assert.False(t, ok, "projects arrive at version 3")
	_, ok = v2.Index(Tasks, "byPriority")
	assert.True(t, ok)
	_, ok = v2.Index(Tasks, "byIsDeleted")
	assert.False(t, ok)

	v0, err := Focus.At(0)
	require.NoError(t, err)
	assert.Empty(t, v0.Collections())

	_, err = Focus.At(10)
	assert.Error(t, err)
}

func TestGatesAreOrdered(t *testing.T) {
	gates, err := Focus.Gates(2, 8)
	require.NoError(t, err)

	numbers := make([]int, 0, len(gates))
	for _, g := range gates {
		numbers = append(numbers, g.Number)
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, numbers)

	none, err := Focus.Gates(9, 9)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = Focus.Gates(5, 3)
	assert.Error(t, err)
	_, err = Focus.Gates(0, 12)
	assert.Error(t, err)
}

func TestVersionStepsOrder(t *testing.T) {
	steps := FocusVersions[1].Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, StepCreateCollection, steps[0].Kind)
	assert.Equal(t, Goals, steps[0].Collection.Name)
	assert.Empty(t, steps[0].Collection.Indexes)
	assert.Equal(t, Goals, steps[1].Index.Collection)
	assert.Equal(t, "byStatus", steps[1].Index.Name)
	assert.Equal(t, Tasks, steps[3].Index.Collection)
	assert.Equal(t, "byPriority", steps[3].Index.Name)
}

func TestNewRegistryValidation(t *testing.T) {
	notes := CollectionDef{Name: "notes", KeyPath: "id", AutoIncrement: true}

	cases := []struct {
		name     string
		versions []Version
	}{
		{"no versions", nil},
		{"gap", []Version{{Number: 1, Collections: []CollectionDef{notes}}, {Number: 3, Indexes: []IndexDef{{Collection: "notes", Name: "a", KeyPath: "a"}}}}},
		{"starts at two", []Version{{Number: 2, Collections: []CollectionDef{notes}}}},
		{"empty version", []Version{{Number: 1}}},
		{"duplicate collection", []Version{{Number: 1, Collections: []CollectionDef{notes}}, {Number: 2, Collections: []CollectionDef{notes}}}},
		{"unknown collection", []Version{{Number: 1, Indexes: []IndexDef{{Collection: "missing", Name: "a", KeyPath: "a"}}}}},
		{"index before collection", []Version{
			{Number: 1, Indexes: []IndexDef{{Collection: "notes", Name: "a", KeyPath: "a"}}},
			{Number: 2, Collections: []CollectionDef{notes}},
		}},
		{"duplicate index", []Version{{Number: 1, Collections: []CollectionDef{{
			Name: "notes", KeyPath: "id",
			Indexes: []IndexDef{{Name: "a", KeyPath: "a"}, {Name: "a", KeyPath: "b"}},
		}}}}},
		{"missing key path", []Version{{Number: 1, Collections: []CollectionDef{{Name: "notes"}}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry("test", tc.versions...)
			assert.ErrorIs(t, err, ErrInvalidRegistry)
		})
	}

	assert.Panics(t, func() {
		MustRegistry("")
	})
}
