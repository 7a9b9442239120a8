package repository

import (
	"context"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionLogRepository is append-only: entries are written once per accepted
// mutation and never updated or deleted.
type ActionLogRepository struct {
	db *pgxpool.Pool
}

func NewActionLogRepository(db *pgxpool.Pool) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

func (r *ActionLogRepository) Append(ctx context.Context, l *domain.ActionLog) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO action_logs (user_id, action, task_title)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		l.UserID, l.Action, l.TaskTitle,
	).Scan(&l.ID, &l.CreatedAt)
}

// Recent returns the newest entries first. The actor is resolved at read
// time; a deleted user degrades to the placeholder instead of failing.
func (r *ActionLogRepository) Recent(ctx context.Context, limit int) ([]*domain.ActionLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.user_id, COALESCE(u.username, $2), l.action, l.task_title, l.created_at
		FROM action_logs l
		LEFT JOIN users u ON u.id = l.user_id
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $1`,
		limit, domain.UnknownUser,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.ActionLog
	for rows.Next() {
		var l domain.ActionLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Username, &l.Action, &l.TaskTitle, &l.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &l)
	}
	return res, rows.Err()
}
