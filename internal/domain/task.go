package domain

import (
	"errors"
	"strings"
	"time"
)

// Status - workflow column a task lives in
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Priority - task priority
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var (
	ErrEmptyTitle    = errors.New("task title is empty")
	ErrReservedTitle = errors.New("task title matches a column name")
)

// Task - shared unit of work. Version is the optimistic concurrency token:
// it starts at 1 and every accepted mutation increments it by exactly 1.
type Task struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Status      Status    `db:"status" json:"status"`
	Priority    Priority  `db:"priority" json:"priority"`
	AssignedTo  *int64    `db:"assigned_to" json:"assigned_to,omitempty"`
	Version     int64     `db:"version" json:"version"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TaskPatch is a single structured patch applied atomically by the store.
// nil field = omitted by the caller = previous value preserved. A non-nil
// empty Description is an intentional clear.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	AssignedTo  *int64    `json:"assigned_to,omitempty"`
}

// Active reports whether the task counts toward its assignee's load.
func (t *Task) Active() bool {
	return t.Status == StatusTodo || t.Status == StatusInProgress
}

func ValidStatus(s Status) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ValidateTitle rejects empty titles and titles colliding with the fixed
// column names. The reserved check is an exact, case-sensitive match.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	switch title {
	case string(StatusTodo), string(StatusInProgress), string(StatusDone):
		return ErrReservedTitle
	}
	return nil
}
