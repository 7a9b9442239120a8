package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/logger"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/repository"
)

// RecentLogLimit is how many activity entries observers see, newest first.
const RecentLogLimit = 20

const logWriteTimeout = 5 * time.Second

var (
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
)

// TaskStore is the versioned record store contract. CommitUpdate must be
// atomic per task id: verify expectedVersion, apply the patch and increment
// the version as one indivisible step against concurrent commits.
type TaskStore interface {
	Get(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	CommitUpdate(ctx context.Context, id, expectedVersion int64, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id int64) (*domain.Task, error)
	CountActiveByUser(ctx context.Context) (map[int64]int, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

type LogStore interface {
	Append(ctx context.Context, l *domain.ActionLog) error
	Recent(ctx context.Context, limit int) ([]*domain.ActionLog, error)
}

// Notifier fans accepted changes out to connected observers. Delivery is
// best-effort; observers reconcile by refetching.
type Notifier interface {
	TaskChanged(payload any)
	LogsChanged(entries []*domain.ActionLog)
}

// Conflict is returned when a client's version token went stale: the
// attempted fields plus the authoritative server state, for manual
// resolution. Resubmitting with serverTask.version is an explicit overwrite.
type Conflict struct {
	ClientAttempt domain.TaskPatch `json:"clientAttempt"`
	ServerTask    *domain.Task     `json:"serverTask"`
}

// TaskDeleted is the task-changed payload for a removal.
type TaskDeleted struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// TaskService orchestrates the record store, the activity log and the
// notification hub. It holds no task state of its own.
type TaskService struct {
	tasks    TaskStore
	users    UserStore
	logs     LogStore
	notifier Notifier
}

func NewTaskService(tasks TaskStore, users UserStore, logs LogStore, notifier Notifier) *TaskService {
	return &TaskService{tasks: tasks, users: users, logs: logs, notifier: notifier}
}

func (s *TaskService) List(ctx context.Context) ([]*domain.Task, error) {
	return s.tasks.List(ctx)
}

func (s *TaskService) RecentLogs(ctx context.Context) ([]*domain.ActionLog, error) {
	return s.logs.Recent(ctx, RecentLogLimit)
}

// Create validates the title, stores the task at version 1, logs and
// broadcasts. Nothing is logged or broadcast on rejection.
func (s *TaskService) Create(ctx context.Context, actorID int64, title, description string, priority domain.Priority) (*domain.Task, error) {
	if err := domain.ValidateTitle(title); err != nil {
		return nil, err
	}
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	t := &domain.Task{
		Title:       title,
		Description: description,
		Status:      domain.StatusTodo,
		Priority:    priority,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}

	s.notifier.TaskChanged(t)
	s.logAction(actorID, fmt.Sprintf("created task %q", t.Title), t.Title)
	return t, nil
}

// Update runs the patch through the store's conditional commit. A stale
// version token yields a Conflict carrying the authoritative task; nothing
// is merged, retried, logged or broadcast in that case.
func (s *TaskService) Update(ctx context.Context, actorID, id, expectedVersion int64, patch domain.TaskPatch) (*domain.Task, *Conflict, error) {
	if patch.Title != nil {
		if err := domain.ValidateTitle(*patch.Title); err != nil {
			return nil, nil, err
		}
	}
	if patch.Status != nil && !domain.ValidStatus(*patch.Status) {
		return nil, nil, ErrInvalidStatus
	}
	if patch.Priority != nil && !domain.ValidPriority(*patch.Priority) {
		return nil, nil, ErrInvalidPriority
	}

	t, err := s.tasks.CommitUpdate(ctx, id, expectedVersion, patch)
	if err != nil {
		return s.interpretCommitErr(ctx, id, patch, err)
	}

	s.notifier.TaskChanged(t)
	s.logAction(actorID, fmt.Sprintf("updated task %q", t.Title), t.Title)
	return t, nil, nil
}

// Delete removes the task by id. Absent ids surface as the store's not-found
// error and leave no trace in the activity log.
func (s *TaskService) Delete(ctx context.Context, actorID, id int64) error {
	t, err := s.tasks.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.notifier.TaskChanged(TaskDeleted{ID: t.ID, Deleted: true})
	s.logAction(actorID, fmt.Sprintf("deleted task %q", t.Title), t.Title)
	return nil
}

// interpretCommitErr turns a stale-version commit into a Conflict with the
// current server state attached. Any other error passes through.
func (s *TaskService) interpretCommitErr(ctx context.Context, id int64, patch domain.TaskPatch, err error) (*domain.Task, *Conflict, error) {
	if !errors.Is(err, repository.ErrVersionMismatch) {
		return nil, nil, err
	}
	versionConflicts.Inc()
	cur, getErr := s.tasks.Get(ctx, id)
	if getErr != nil {
		// Task vanished between commit and re-read.
		return nil, nil, getErr
	}
	return nil, &Conflict{ClientAttempt: patch, ServerTask: cur}, nil
}

// logAction appends an activity entry and broadcasts the refreshed tail.
// The append is fire-and-forget relative to the mutation: a log failure is
// reported and swallowed, never propagated to the caller.
func (s *TaskService) logAction(actorID int64, action, taskTitle string) {
	ctx, cancel := context.WithTimeout(context.Background(), logWriteTimeout)
	defer cancel()

	entry := &domain.ActionLog{
		UserID:    &actorID,
		Action:    action,
		TaskTitle: taskTitle,
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		logger.Error("action log append failed", "action", action, "error", err)
		return
	}

	recent, err := s.logs.Recent(ctx, RecentLogLimit)
	if err != nil {
		logger.Error("action log read failed", "error", err)
		return
	}
	s.notifier.LogsChanged(recent)
}
