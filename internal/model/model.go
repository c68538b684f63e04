// Package model declares the record types of the focus store and binds each of
// them to its collection and indexes.
//
// Flags that are indexed (completed, isFrog, isDeleted, ...) are stored as 0/1
// integers because booleans are not indexable. Timestamps are RFC 3339 strings
// and calendar dates are YYYY-MM-DD strings, so both sort correctly in range
// queries. Optional indexed fields are pointers: a nil field keeps the record
// out of that index.
package model

import "encoding/json"

// Task is a to-do item.
type Task struct {
	ID               int64    `json:"id,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Completed        int      `json:"completed"`
	CompletedAt      string   `json:"completedAt,omitempty"`
	DueDate          *string  `json:"dueDate,omitempty"`
	PlannedDate      *string  `json:"plannedDate,omitempty"`
	Priority         *int     `json:"priority,omitempty"`
	CategoryID       *int64   `json:"categoryId,omitempty"`
	ProjectID        *int64   `json:"projectId,omitempty"`
	GoalID           *int64   `json:"goalId,omitempty"`
	MilestoneID      *int64   `json:"milestoneId,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	IsFrog           int      `json:"isFrog"`
	IsDeleted        int      `json:"isDeleted"`
	DeletedAt        string   `json:"deletedAt,omitempty"`
	IsRecurring      int      `json:"isRecurring"`
	RecurrenceRule   string   `json:"recurrenceRule,omitempty"`
	EstimatedMinutes int      `json:"estimatedMinutes,omitempty"`
	ParentTaskID     *int64   `json:"parentTaskId,omitempty"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

// Category groups tasks.
type Category struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Session is one pomodoro work or break interval.
type Session struct {
	ID              int64  `json:"id,omitempty"`
	TaskID          *int64 `json:"taskId,omitempty"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	Type            string `json:"type"`
	Completed       int    `json:"completed"`
	Interrupted     int    `json:"interrupted,omitempty"`
}

// Setting is a user preference keyed by name.
type Setting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Goal is a long-term objective.
type Goal struct {
	ID          int64   `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	Deadline    *string `json:"deadline,omitempty"`
	Progress    int     `json:"progress,omitempty"`
	Color       string  `json:"color,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// Project groups tasks toward a goal.
type Project struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	GoalID      *int64  `json:"goalId,omitempty"`
	Color       string  `json:"color,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// Event is a calendar entry.
type Event struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	AllDay      int    `json:"allDay,omitempty"`
	TaskID      *int64 `json:"taskId,omitempty"`
	Color       string `json:"color,omitempty"`
	Location    string `json:"location,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// TimeLog is time spent on a task or activity.
type TimeLog struct {
	ID                 int64  `json:"id,omitempty"`
	TaskID             *int64 `json:"taskId,omitempty"`
	ActivityCategoryID *int64 `json:"activityCategoryId,omitempty"`
	Date               string `json:"date"`
	StartTime          string `json:"startTime,omitempty"`
	EndTime            string `json:"endTime,omitempty"`
	DurationMinutes    int    `json:"durationMinutes"`
	Note               string `json:"note,omitempty"`
	IsLogged           int    `json:"isLogged"`
	CreatedAt          string `json:"createdAt,omitempty"`
}

// Tag is a label keyed by its name.
type Tag struct {
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// AppSetting is an application-level setting keyed by name.
type AppSetting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

// Milestone is a checkpoint inside a project.
type Milestone struct {
	ID          int64   `json:"id,omitempty"`
	ProjectID   int64   `json:"projectId"`
	Title       string  `json:"title"`
	DueDate     *string `json:"dueDate,omitempty"`
	Completed   int     `json:"completed"`
	CompletedAt string  `json:"completedAt,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// TimeBlock reserves part of a day for a task.
type TimeBlock struct {
	ID        int64  `json:"id,omitempty"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	TaskID    *int64 `json:"taskId,omitempty"`
	Title     string `json:"title,omitempty"`
	Color     string `json:"color,omitempty"`
}

// FixedBreakRule is a recurring break such as lunch.
type FixedBreakRule struct {
	ID         int64  `json:"id,omitempty"`
	Name       string `json:"name"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	DaysOfWeek []int  `json:"daysOfWeek"`
	IsActive   int    `json:"isActive"`
}

// ActivityCategory classifies time logs that are not tied to a task.
type ActivityCategory struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// InboxItem is a captured thought waiting to be processed.
type InboxItem struct {
	ID          int64  `json:"id,omitempty"`
	Content     string `json:"content"`
	IsProcessed int    `json:"isProcessed"`
	ProcessedAt string `json:"processedAt,omitempty"`
	TaskID      *int64 `json:"taskId,omitempty"`
	CreatedAt   string `json:"createdAt"`
}
