package schema

// StoreName is the name of the focus document store.
const StoreName = "focus"

// Collection names.
const (
	Tasks              = "tasks"
	Categories         = "categories"
	Sessions           = "sessions"
	Settings           = "settings"
	Goals              = "goals"
	Projects           = "projects"
	Events             = "events"
	TimeLogs           = "timeLogs"
	Tags               = "tags"
	AppSettings        = "appSettings"
	Milestones         = "milestones"
	TimeBlocks         = "timeBlocks"
	FixedBreakRules    = "fixedBreakRules"
	ActivityCategories = "activityCategories"
	InboxItems         = "inboxItems"
)

func autoID(name string, indexes ...IndexDef) CollectionDef {
	return CollectionDef{Name: name, KeyPath: "id", AutoIncrement: true, Indexes: indexes}
}

func keyed(name, keyPath string, indexes ...IndexDef) CollectionDef {
	return CollectionDef{Name: name, KeyPath: keyPath, Indexes: indexes}
}

func by(name, keyPath string) IndexDef {
	return IndexDef{Name: name, KeyPath: keyPath}
}

func multi(name, keyPath string) IndexDef {
	return IndexDef{Name: name, KeyPath: keyPath, MultiEntry: true}
}

func on(collection string, idx IndexDef) IndexDef {
	idx.Collection = collection
	return idx
}

// FocusVersions is the version table of the focus store.
var FocusVersions = []Version{
	{
		Number: 1,
		Collections: []CollectionDef{
			autoID(Tasks, by("byTitle", "title"), by("byDueDate", "dueDate"), by("byCompleted", "completed")),
			autoID(Categories, by("byName", "name")),
			autoID(Sessions, by("byTaskId", "taskId"), by("byDate", "date")),
			keyed(Settings, "key"),
		},
	},
	{
		Number:      2,
		Collections: []CollectionDef{autoID(Goals, by("byStatus", "status"), by("byDeadline", "deadline"))},
		Indexes:     []IndexDef{on(Tasks, by("byPriority", "priority"))},
	},
	{
		Number:      3,
		Collections: []CollectionDef{autoID(Projects, by("byStatus", "status"), by("byGoalId", "goalId"))},
		Indexes: []IndexDef{
			on(Tasks, by("byProjectId", "projectId")),
			on(Tasks, by("byGoalId", "goalId")),
		},
	},
	{
		Number:      4,
		Collections: []CollectionDef{autoID(Events, by("byStartDate", "startDate"), by("byEndDate", "endDate"), by("byTaskId", "taskId"))},
		Indexes:     []IndexDef{on(Tasks, by("byIsFrog", "isFrog"))},
	},
	{
		Number: 5,
		Collections: []CollectionDef{
			autoID(TimeLogs, by("byDate", "date"), by("byTaskId", "taskId"), by("byIsLogged", "isLogged")),
			keyed(Tags, "name"),
		},
	},
	{
		Number:      6,
		Collections: []CollectionDef{keyed(AppSettings, "key")},
		Indexes:     []IndexDef{on(Tasks, multi("byTags", "tags"))},
	},
	{
		Number: 7,
		Collections: []CollectionDef{
			autoID(Milestones, by("byProjectId", "projectId"), by("byDueDate", "dueDate"), by("byCompleted", "completed")),
			autoID(TimeBlocks, by("byDate", "date"), by("byTaskId", "taskId")),
		},
	},
	{
		Number: 8,
		Collections: []CollectionDef{
			autoID(FixedBreakRules, by("byIsActive", "isActive"), multi("byDaysOfWeek", "daysOfWeek")),
			autoID(ActivityCategories, by("byName", "name")),
		},
		Indexes: []IndexDef{
			on(Tasks, by("byPlannedDate", "plannedDate")),
			on(TimeLogs, by("byActivityCategoryId", "activityCategoryId")),
		},
	},
	{
		Number:      9,
		Collections: []CollectionDef{autoID(InboxItems, by("byIsProcessed", "isProcessed"), by("byCreatedAt", "createdAt"))},
		Indexes:     []IndexDef{on(Tasks, by("byIsDeleted", "isDeleted"))},
	},
}

// Focus is the registry every focus command opens the store against.
var Focus = MustRegistry(StoreName, FocusVersions...)

// FocusStore returns the focus layout under another store name. Stores with
// different names share a database file but keep separate records and versions.
func FocusStore(name string) (*Registry, error) {
	if name == StoreName {
		return Focus, nil
	}
	return NewRegistry(name, FocusVersions...)
}
