package model

import (
	"github.com/focus-md/focus/internal/schema"
	"github.com/focus-md/focus/internal/store"
)

// Typed collections.
var (
	Tasks              = store.NewCollection[Task](schema.Tasks)
	Categories         = store.NewCollection[Category](schema.Categories)
	Sessions           = store.NewCollection[Session](schema.Sessions)
	Settings           = store.NewCollection[Setting](schema.Settings)
	Goals              = store.NewCollection[Goal](schema.Goals)
	Projects           = store.NewCollection[Project](schema.Projects)
	Events             = store.NewCollection[Event](schema.Events)
	TimeLogs           = store.NewCollection[TimeLog](schema.TimeLogs)
	Tags               = store.NewCollection[Tag](schema.Tags)
	AppSettings        = store.NewCollection[AppSetting](schema.AppSettings)
	Milestones         = store.NewCollection[Milestone](schema.Milestones)
	TimeBlocks         = store.NewCollection[TimeBlock](schema.TimeBlocks)
	FixedBreakRules    = store.NewCollection[FixedBreakRule](schema.FixedBreakRules)
	ActivityCategories = store.NewCollection[ActivityCategory](schema.ActivityCategories)
	InboxItems         = store.NewCollection[InboxItem](schema.InboxItems)
)

// Task indexes.
var (
	TasksByTitle       = Tasks.Index("byTitle")
	TasksByDueDate     = Tasks.Index("byDueDate")
	TasksByCompleted   = Tasks.Index("byCompleted")
	TasksByPriority    = Tasks.Index("byPriority")
	TasksByProjectID   = Tasks.Index("byProjectId")
	TasksByGoalID      = Tasks.Index("byGoalId")
	TasksByIsFrog      = Tasks.Index("byIsFrog")
	TasksByTags        = Tasks.Index("byTags")
	TasksByPlannedDate = Tasks.Index("byPlannedDate")
	TasksByIsDeleted   = Tasks.Index("byIsDeleted")
)

var (
	CategoriesByName = Categories.Index("byName")

	SessionsByTaskID = Sessions.Index("byTaskId")
	SessionsByDate   = Sessions.Index("byDate")

	GoalsByStatus   = Goals.Index("byStatus")
	GoalsByDeadline = Goals.Index("byDeadline")

	ProjectsByStatus = Projects.Index("byStatus")
	ProjectsByGoalID = Projects.Index("byGoalId")

	EventsByStartDate = Events.Index("byStartDate")
	EventsByEndDate   = Events.Index("byEndDate")
	EventsByTaskID    = Events.Index("byTaskId")

	TimeLogsByDate               = TimeLogs.Index("byDate")
	TimeLogsByTaskID             = TimeLogs.Index("byTaskId")
	TimeLogsByIsLogged           = TimeLogs.Index("byIsLogged")
	TimeLogsByActivityCategoryID = TimeLogs.Index("byActivityCategoryId")

	MilestonesByProjectID = Milestones.Index("byProjectId")
	MilestonesByDueDate   = Milestones.Index("byDueDate")
	MilestonesByCompleted = Milestones.Index("byCompleted")

	TimeBlocksByDate   = TimeBlocks.Index("byDate")
	TimeBlocksByTaskID = TimeBlocks.Index("byTaskId")

	FixedBreakRulesByIsActive   = FixedBreakRules.Index("byIsActive")
	FixedBreakRulesByDaysOfWeek = FixedBreakRules.Index("byDaysOfWeek")

	ActivityCategoriesByName = ActivityCategories.Index("byName")

	InboxItemsByIsProcessed = InboxItems.Index("byIsProcessed")
	InboxItemsByCreatedAt   = InboxItems.Index("byCreatedAt")
)
