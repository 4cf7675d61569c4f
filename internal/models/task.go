// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// DueBucket classifies a task by its due date relative to now.
type DueBucket string

const (
	BucketOverdue DueBucket = "overdue"
	BucketDueSoon DueBucket = "due_soon"
)

// DueSoonWindow is how far ahead the due_soon bucket looks.
const DueSoonWindow = 5 * 24 * time.Hour

// Task represents the structure of a task in the system.
// A task belongs to exactly one user; only that user may see or change it.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TaskFilter defines the available parameters for filtering a listing.
// Request-scoped, never persisted.
type TaskFilter struct {
	Search     string
	Statuses   []TaskStatus
	DueBuckets []DueBucket
}

// StatusCounts are aggregate counts over a filtered listing. Total always
// equals the number of tasks returned by the same call.
type StatusCounts struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// TaskListing is the result of a filtered list call.
type TaskListing struct {
	Tasks        []Task       `json:"tasks"`
	StatusCounts StatusCounts `json:"statusCounts"`
}
