package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/domain"
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/repository"
)

// memDB backs the in-memory store fakes. The mutex makes CommitUpdate an
// atomic compare-and-increment, same contract as the real store.
type memDB struct {
	mu      sync.Mutex
	taskSeq int64
	logSeq  int64
	tasks   map[int64]*domain.Task
	users   []*domain.User
	logs    []*domain.ActionLog

	appendErr error
	afterGet  func()
}

func newMemDB() *memDB {
	return &memDB{tasks: make(map[int64]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		c.AssignedTo = &v
	}
	return &c
}

type memTaskStore struct{ db *memDB }

func (s *memTaskStore) Get(ctx context.Context, id int64) (*domain.Task, error) {
	s.db.mu.Lock()
	t, ok := s.db.tasks[id]
	var out *domain.Task
	if ok {
		out = cloneTask(t)
	}
	s.db.mu.Unlock()

	if s.db.afterGet != nil {
		hook := s.db.afterGet
		s.db.afterGet = nil
		hook()
	}
	if !ok {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (s *memTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var res []*domain.Task
	for _, t := range s.db.tasks {
		res = append(res, cloneTask(t))
	}
	return res, nil
}

func (s *memTaskStore) Create(ctx context.Context, t *domain.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.tasks {
		if existing.Title == t.Title {
			return repository.ErrDuplicateTitle
		}
	}
	s.db.taskSeq++
	t.ID = s.db.taskSeq
	t.Version = 1
	s.db.tasks[t.ID] = cloneTask(t)
	return nil
}

func (s *memTaskStore) CommitUpdate(ctx context.Context, id, expectedVersion int64, patch domain.TaskPatch) (*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, ok := s.db.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.Version != expectedVersion {
		return nil, repository.ErrVersionMismatch
	}
	if patch.Title != nil && *patch.Title != t.Title {
		for _, other := range s.db.tasks {
			if other.ID != id && other.Title == *patch.Title {
				return nil, repository.ErrDuplicateTitle
			}
		}
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.AssignedTo != nil {
		v := *patch.AssignedTo
		t.AssignedTo = &v
	}
	t.Version++
	return cloneTask(t), nil
}

func (s *memTaskStore) Delete(ctx context.Context, id int64) (*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.db.tasks, id)
	return cloneTask(t), nil
}

func (s *memTaskStore) CountActiveByUser(ctx context.Context) (map[int64]int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	counts := make(map[int64]int)
	for _, t := range s.db.tasks {
		if t.AssignedTo != nil && t.Active() {
			counts[*t.AssignedTo]++
		}
	}
	return counts, nil
}

type memUserStore struct{ db *memDB }

func (s *memUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUserStore) List(ctx context.Context) ([]*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]*domain.User(nil), s.db.users...), nil
}

type memLogStore struct{ db *memDB }

func (s *memLogStore) Append(ctx context.Context, l *domain.ActionLog) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.appendErr != nil {
		return s.db.appendErr
	}
	s.db.logSeq++
	l.ID = s.db.logSeq
	s.db.logs = append(s.db.logs, l)
	return nil
}

func (s *memLogStore) Recent(ctx context.Context, limit int) ([]*domain.ActionLog, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var res []*domain.ActionLog
	for i := len(s.db.logs) - 1; i >= 0 && len(res) < limit; i-- {
		res = append(res, s.db.logs[i])
	}
	return res, nil
}

type memNotifier struct {
	mu            sync.Mutex
	taskEvents    []any
	logEvents     [][]*domain.ActionLog
	onTaskChanged func(payload any)
}

func (n *memNotifier) TaskChanged(payload any) {
	if n.onTaskChanged != nil {
		n.onTaskChanged(payload)
	}
	n.mu.Lock()
	n.taskEvents = append(n.taskEvents, payload)
	n.mu.Unlock()
}

func (n *memNotifier) LogsChanged(entries []*domain.ActionLog) {
	n.mu.Lock()
	n.logEvents = append(n.logEvents, entries)
	n.mu.Unlock()
}

func (n *memNotifier) taskEventCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.taskEvents)
}

func newTestService() (*TaskService, *memDB, *memNotifier) {
	db := newMemDB()
	n := &memNotifier{}
	svc := NewTaskService(&memTaskStore{db}, &memUserStore{db}, &memLogStore{db}, n)
	return svc, db, n
}

func addUser(db *memDB, id int64, name string) *domain.User {
	u := &domain.User{ID: id, Username: name}
	db.users = append(db.users, u)
	return u
}

func mustCreate(t *testing.T, svc *TaskService, title string) *domain.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), 1, title, "", "")
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return task
}

func strPtr(s string) *string { return &s }

func TestCreateDefaultsAndLog(t *testing.T) {
	svc, db, n := newTestService()

	task := mustCreate(t, svc, "write report")
	if task.Version != 1 {
		t.Fatalf("new task version = %d, want 1", task.Version)
	}
	if task.Status != domain.StatusTodo || task.Priority != domain.PriorityMedium {
		t.Fatalf("defaults not applied: status=%s priority=%s", task.Status, task.Priority)
	}
	if len(db.logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(db.logs))
	}
	if db.logs[0].Action != `created task "write report"` {
		t.Fatalf("unexpected log action: %s", db.logs[0].Action)
	}
	if n.taskEventCount() != 1 {
		t.Fatalf("expected 1 task event, got %d", n.taskEventCount())
	}
}

func TestCreateRejectsReservedTitles(t *testing.T) {
	svc, db, n := newTestService()

	for _, title := range []string{"Todo", "In Progress", "Done"} {
		_, err := svc.Create(context.Background(), 1, title, "", "")
		if err != domain.ErrReservedTitle {
			t.Fatalf("create %q: err = %v, want ErrReservedTitle", title, err)
		}
	}
	if len(db.logs) != 0 || n.taskEventCount() != 0 {
		t.Fatal("rejected create must not log or broadcast")
	}
}

func TestCreateRejectsEmptyAndDuplicateTitles(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Create(context.Background(), 1, "   ", "", ""); err != domain.ErrEmptyTitle {
		t.Fatalf("blank title err = %v, want ErrEmptyTitle", err)
	}

	mustCreate(t, svc, "ship release")
	_, err := svc.Create(context.Background(), 1, "ship release", "", "")
	if err != repository.ErrDuplicateTitle {
		t.Fatalf("duplicate title err = %v, want ErrDuplicateTitle", err)
	}
}

func TestVersionIncrementsByOnePerAcceptedUpdate(t *testing.T) {
	svc, _, _ := newTestService()
	task := mustCreate(t, svc, "triage bugs")

	const n = 5
	version := task.Version
	for i := 0; i < n; i++ {
		status := domain.StatusInProgress
		updated, conflict, err := svc.Update(context.Background(), 1, task.ID, version, domain.TaskPatch{Status: &status})
		if err != nil || conflict != nil {
			t.Fatalf("update %d failed: err=%v conflict=%v", i, err, conflict)
		}
		if updated.Version != version+1 {
			t.Fatalf("update %d: version = %d, want %d", i, updated.Version, version+1)
		}
		version = updated.Version
	}
	if version != task.Version+n {
		t.Fatalf("after %d updates version = %d, want %d", n, version, task.Version+n)
	}
}

func TestConcurrentUpdatesSameVersionOneWins(t *testing.T) {
	svc, _, _ := newTestService()
	task := mustCreate(t, svc, "deploy")

	type result struct {
		task     *domain.Task
		conflict *Conflict
		err      error
	}
	results := make([]result, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := domain.StatusDone
			if i == 1 {
				status = domain.StatusInProgress
			}
			tk, cf, err := svc.Update(context.Background(), int64(i+1), task.ID, task.Version, domain.TaskPatch{Status: &status})
			results[i] = result{tk, cf, err}
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, r := range results {
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.task != nil {
			wins++
		}
		if r.conflict != nil {
			conflicts++
			if r.conflict.ServerTask == nil || r.conflict.ServerTask.Version != task.Version+1 {
				t.Fatalf("conflict must carry the post-commit state, got %+v", r.conflict.ServerTask)
			}
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins=%d conflicts=%d, want exactly one of each", wins, conflicts)
	}
}

func TestUpdatePreservesOmittedFields(t *testing.T) {
	svc, _, _ := newTestService()
	task, err := svc.Create(context.Background(), 1, "refactor", "tidy the parser", domain.PriorityHigh)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status := domain.StatusDone
	updated, conflict, err := svc.Update(context.Background(), 1, task.ID, task.Version, domain.TaskPatch{Status: &status})
	if err != nil || conflict != nil {
		t.Fatalf("update failed: err=%v conflict=%v", err, conflict)
	}
	if updated.Title != "refactor" || updated.Description != "tidy the parser" || updated.Priority != domain.PriorityHigh {
		t.Fatalf("omitted fields must keep their values, got %+v", updated)
	}
	if updated.Status != domain.StatusDone {
		t.Fatalf("status = %s, want Done", updated.Status)
	}
}

func TestUpdateClearsDescriptionWithEmptyString(t *testing.T) {
	svc, _, _ := newTestService()
	task, err := svc.Create(context.Background(), 1, "cleanup", "old notes", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, conflict, err := svc.Update(context.Background(), 1, task.ID, task.Version, domain.TaskPatch{Description: strPtr("")})
	if err != nil || conflict != nil {
		t.Fatalf("update failed: err=%v conflict=%v", err, conflict)
	}
	if updated.Description != "" {
		t.Fatalf("explicit empty description must clear, got %q", updated.Description)
	}
}

func TestConflictNotLoggedNotBroadcast(t *testing.T) {
	svc, db, n := newTestService()
	task := mustCreate(t, svc, "review PR")

	logsBefore := len(db.logs)
	eventsBefore := n.taskEventCount()

	_, conflict, err := svc.Update(context.Background(), 1, task.ID, task.Version+7, domain.TaskPatch{Title: strPtr("review PR again")})
	if err != nil {
		t.Fatalf("update err: %v", err)
	}
	if conflict == nil {
		t.Fatal("expected a conflict for a stale version token")
	}
	if conflict.ClientAttempt.Title == nil || *conflict.ClientAttempt.Title != "review PR again" {
		t.Fatalf("conflict must echo the attempted fields, got %+v", conflict.ClientAttempt)
	}
	if conflict.ServerTask.Version != task.Version {
		t.Fatalf("server task version = %d, want %d", conflict.ServerTask.Version, task.Version)
	}
	if len(db.logs) != logsBefore || n.taskEventCount() != eventsBefore {
		t.Fatal("conflicted update must not log or broadcast")
	}
}

func TestDeleteUnknownReturnsNotFoundAndNoLog(t *testing.T) {
	svc, db, _ := newTestService()

	err := svc.Delete(context.Background(), 1, 12345)
	if err != repository.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(db.logs) != 0 {
		t.Fatal("failed delete must leave no activity entry")
	}
}

func TestDeleteBroadcastsDeletedPayload(t *testing.T) {
	svc, _, n := newTestService()
	task := mustCreate(t, svc, "obsolete")

	if err := svc.Delete(context.Background(), 1, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	n.mu.Lock()
	last := n.taskEvents[len(n.taskEvents)-1]
	n.mu.Unlock()
	deleted, ok := last.(TaskDeleted)
	if !ok || deleted.ID != task.ID || !deleted.Deleted {
		t.Fatalf("last event = %#v, want TaskDeleted for id %d", last, task.ID)
	}
}

func TestSmartAssignPicksLeastBusyUser(t *testing.T) {
	svc, db, _ := newTestService()
	u1 := addUser(db, 1, "alice")
	u2 := addUser(db, 2, "bob")
	u3 := addUser(db, 3, "carol")

	seed := func(title string, owner int64, status domain.Status) {
		task := mustCreate(t, svc, title)
		_, conflict, err := svc.Update(context.Background(), 1, task.ID, task.Version, domain.TaskPatch{
			AssignedTo: &owner,
			Status:     &status,
		})
		if err != nil || conflict != nil {
			t.Fatalf("seed %q: err=%v conflict=%v", title, err, conflict)
		}
	}

	// u1: two active, u3: one active. u2 has only a Done task, which must
	// not count toward load.
	seed("a1", u1.ID, domain.StatusTodo)
	seed("a2", u1.ID, domain.StatusInProgress)
	seed("c1", u3.ID, domain.StatusTodo)
	seed("b1", u2.ID, domain.StatusDone)

	target := mustCreate(t, svc, "unclaimed")
	assigned, conflict, err := svc.SmartAssign(context.Background(), 1, target.ID)
	if err != nil || conflict != nil {
		t.Fatalf("smart assign: err=%v conflict=%v", err, conflict)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != u2.ID {
		t.Fatalf("assigned to %v, want user %d", assigned.AssignedTo, u2.ID)
	}
	if assigned.Version != target.Version+1 {
		t.Fatalf("assignment must bump the version: got %d", assigned.Version)
	}

	last := db.logs[len(db.logs)-1]
	if last.Action != `smart-assigned task "unclaimed" to bob` {
		t.Fatalf("unexpected log action: %s", last.Action)
	}
}

func TestSmartAssignTieBreaksByEnumerationOrder(t *testing.T) {
	svc, db, _ := newTestService()
	first := addUser(db, 1, "alice")
	addUser(db, 2, "bob")

	target := mustCreate(t, svc, "fresh")
	assigned, conflict, err := svc.SmartAssign(context.Background(), 1, target.ID)
	if err != nil || conflict != nil {
		t.Fatalf("smart assign: err=%v conflict=%v", err, conflict)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != first.ID {
		t.Fatalf("tie must go to the first enumerated user, got %v", assigned.AssignedTo)
	}
}

func TestSmartAssignFailsOnStaleSnapshot(t *testing.T) {
	svc, db, _ := newTestService()
	addUser(db, 1, "alice")

	target := mustCreate(t, svc, "contested")

	// Another writer commits between the balancer's read and its commit;
	// the load snapshot is stale, so the assignment must fail with a
	// conflict instead of being retried.
	db.afterGet = func() {
		db.mu.Lock()
		db.tasks[target.ID].Version++
		db.mu.Unlock()
	}

	assigned, conflict, err := svc.SmartAssign(context.Background(), 1, target.ID)
	if err != nil {
		t.Fatalf("smart assign err: %v", err)
	}
	if assigned != nil || conflict == nil {
		t.Fatalf("want a conflict, got task=%v conflict=%v", assigned, conflict)
	}
}

func TestSmartAssignWithoutUsers(t *testing.T) {
	svc, _, _ := newTestService()
	target := mustCreate(t, svc, "orphan")

	_, _, err := svc.SmartAssign(context.Background(), 1, target.ID)
	if err != ErrNoUsers {
		t.Fatalf("err = %v, want ErrNoUsers", err)
	}
}

func TestRecentLogsNewestFirstAndCapped(t *testing.T) {
	svc, _, _ := newTestService()

	for i := 0; i < RecentLogLimit+5; i++ {
		mustCreate(t, svc, fmt.Sprintf("task-%02d", i))
	}

	logs, err := svc.RecentLogs(context.Background())
	if err != nil {
		t.Fatalf("recent logs: %v", err)
	}
	if len(logs) != RecentLogLimit {
		t.Fatalf("len(logs) = %d, want %d", len(logs), RecentLogLimit)
	}
	if logs[0].Action != fmt.Sprintf("created task %q", fmt.Sprintf("task-%02d", RecentLogLimit+4)) {
		t.Fatalf("newest entry must come first, got %s", logs[0].Action)
	}
}

func TestBroadcastNeverPrecedesCommit(t *testing.T) {
	svc, db, n := newTestService()
	task := mustCreate(t, svc, "ordering")

	n.onTaskChanged = func(payload any) {
		db.mu.Lock()
		defer db.mu.Unlock()
		if db.tasks[task.ID].Version != task.Version+1 {
			t.Errorf("broadcast observed uncommitted state: version %d", db.tasks[task.ID].Version)
		}
	}

	status := domain.StatusDone
	if _, conflict, err := svc.Update(context.Background(), 1, task.ID, task.Version, domain.TaskPatch{Status: &status}); err != nil || conflict != nil {
		t.Fatalf("update failed: err=%v conflict=%v", err, conflict)
	}
}

func TestLogFailureDoesNotFailMutation(t *testing.T) {
	svc, db, n := newTestService()
	task := mustCreate(t, svc, "resilient")

	db.appendErr = fmt.Errorf("log store down")
	logEventsBefore := len(n.logEvents)

	status := domain.StatusDone
	updated, conflict, err := svc.Update(context.Background(), 1, task.ID, task.Version, domain.TaskPatch{Status: &status})
	if err != nil || conflict != nil {
		t.Fatalf("mutation must survive a log failure: err=%v conflict=%v", err, conflict)
	}
	if updated.Version != task.Version+1 {
		t.Fatalf("version = %d, want %d", updated.Version, task.Version+1)
	}
	if len(n.logEvents) != logEventsBefore {
		t.Fatal("no logs-changed broadcast when the append failed")
	}
}
