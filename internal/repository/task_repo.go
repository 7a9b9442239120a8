package repository

import (
	"context"
	"errors"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionMismatch = errors.New("version mismatch")
	ErrDuplicateTitle  = errors.New("task title already exists")
)

const taskColumns = `id, title, description, status, priority, assigned_to, version, created_at, updated_at`

type TaskRepository struct {
	db *pgxpool.Pool
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func (r *TaskRepository) List(ctx context.Context) ([]*domain.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// Create inserts a new task at version 1. A title collision surfaces as
// ErrDuplicateTitle via the unique index, never as a second live task.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO tasks (title, description, status, priority, assigned_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, version, created_at, updated_at`,
		t.Title, t.Description, t.Status, t.Priority, t.AssignedTo,
	).Scan(&t.ID, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateTitle
	}
	return err
}

// CommitUpdate applies patch and bumps version only if expectedVersion still
// matches the stored row. The conditional UPDATE is the atomic
// compare-and-increment: concurrent commits on the same id serialize on the
// row, and the loser sees zero rows updated. nil patch fields keep the
// stored value (COALESCE against a NULL parameter).
func (r *TaskRepository) CommitUpdate(ctx context.Context, id, expectedVersion int64, patch domain.TaskPatch) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE tasks SET
			title       = COALESCE($3, title),
			description = COALESCE($4, description),
			status      = COALESCE($5, status),
			priority    = COALESCE($6, priority),
			assigned_to = COALESCE($7, assigned_to),
			version     = version + 1,
			updated_at  = now()
		WHERE id = $1 AND version = $2
		RETURNING `+taskColumns,
		id, expectedVersion,
		patch.Title, patch.Description, patch.Status, patch.Priority, patch.AssignedTo,
	)

	t, err := scanTask(row)
	if err == nil {
		return t, nil
	}
	if isUniqueViolation(err) {
		return nil, ErrDuplicateTitle
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Zero rows: either the task is gone or the version token is stale.
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVersionMismatch
	}
	return nil, ErrNotFound
}

// Delete removes the task and returns its final state for logging.
func (r *TaskRepository) Delete(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM tasks WHERE id = $1 RETURNING `+taskColumns, id)
	return scanTask(row)
}

// CountActiveByUser returns, per user id, how many Todo / In Progress tasks
// are assigned to them. Users with no active tasks are absent from the map.
func (r *TaskRepository) CountActiveByUser(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT assigned_to, COUNT(*)
		FROM tasks
		WHERE assigned_to IS NOT NULL AND status IN ($1, $2)
		GROUP BY assigned_to`,
		domain.StatusTodo, domain.StatusInProgress,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var userID int64
		var n int
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, err
		}
		counts[userID] = n
	}
	return counts, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.AssignedTo,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
