package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/focus-md/focus/internal/schema"
)

type indexRef interface {
	Collection() string
	Name() string
}

func TestIndexesAreDeclared(t *testing.T) {
	layout := schema.Focus.Current()
	refs := []indexRef{
		TasksByTitle, TasksByDueDate, TasksByCompleted, TasksByPriority, TasksByProjectID,
		TasksByGoalID, TasksByIsFrog, TasksByTags, TasksByPlannedDate, TasksByIsDeleted,
		CategoriesByName, SessionsByTaskID, SessionsByDate, GoalsByStatus, GoalsByDeadline,
		ProjectsByStatus, ProjectsByGoalID, EventsByStartDate, EventsByEndDate, EventsByTaskID,
		TimeLogsByDate, TimeLogsByTaskID, TimeLogsByIsLogged, TimeLogsByActivityCategoryID,
		MilestonesByProjectID, MilestonesByDueDate, MilestonesByCompleted,
		TimeBlocksByDate, TimeBlocksByTaskID, FixedBreakRulesByIsActive, FixedBreakRulesByDaysOfWeek,
		ActivityCategoriesByName, InboxItemsByIsProcessed, InboxItemsByCreatedAt,
	}

	declared := 0
	for _, col := range layout.Collections() {
		declared += len(col.Indexes)
	}
	require.Len(t, refs, declared)

	for _, ref := range refs {
		_, ok := layout.Index(ref.Collection(), ref.Name())
		require.Truef(t, ok, "%s.%s is not declared", ref.Collection(), ref.Name())
	}
}

func TestTaskEncodingMatchesIndexes(t *testing.T) {
	task := Task{Title: "Buy milk", CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z"}
	data, err := json.Marshal(task)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	require.NotContains(t, doc, "id", "unset key must be omitted so the store assigns one")
	require.NotContains(t, doc, "dueDate")
	require.NotContains(t, doc, "priority")
	for _, flag := range []string{"completed", "isFrog", "isDeleted", "isRecurring"} {
		require.Equal(t, float64(0), doc[flag], flag)
	}
}
