package domain

import "time"

// UnknownUser is rendered when a log entry references a deleted user.
const UnknownUser = "unknown"

// ActionLog - immutable record of one successful mutation. UserID is a weak
// reference: the user may be deleted later, Username then falls back to
// UnknownUser at read time.
type ActionLog struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	Username  string    `db:"username" json:"username"`
	Action    string    `db:"action" json:"action"`
	TaskTitle string    `db:"task_title" json:"task_title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
