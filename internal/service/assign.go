package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"
)

var ErrNoUsers = errors.New("no users to assign")

// SmartAssign hands the task to the least-busy user: one pass over all users
// in enumeration (creation) order, counting Todo / In Progress tasks per
// user; the strictly smallest count wins, first enumerated wins ties, so the
// choice is reproducible for identical input state.
//
// The final commit reuses the version read before the selection. If another
// writer got in between, the load snapshot is stale and the whole attempt
// fails with a Conflict; the caller decides whether to try again.
func (s *TaskService) SmartAssign(ctx context.Context, actorID, taskID int64) (*domain.Task, *Conflict, error) {
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(users) == 0 {
		return nil, nil, ErrNoUsers
	}

	counts, err := s.tasks.CountActiveByUser(ctx)
	if err != nil {
		return nil, nil, err
	}

	chosen := users[0]
	best := counts[chosen.ID]
	for _, u := range users[1:] {
		if counts[u.ID] < best {
			chosen = u
			best = counts[u.ID]
		}
	}

	patch := domain.TaskPatch{AssignedTo: &chosen.ID}
	updated, err := s.tasks.CommitUpdate(ctx, taskID, t.Version, patch)
	if err != nil {
		return s.interpretCommitErr(ctx, taskID, patch, err)
	}

	s.notifier.TaskChanged(updated)
	s.logAction(actorID, fmt.Sprintf("smart-assigned task %q to %s", updated.Title, chosen.Username), updated.Title)
	return updated, nil, nil
}
