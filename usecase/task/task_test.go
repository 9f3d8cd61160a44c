package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/backend/domain"
	"github.com/taskhive/backend/repository"
	"github.com/taskhive/backend/usecase"
)

type fakeTaskRepo struct {
	tasks   map[string]*domain.Task
	failAll bool
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if r.failAll {
		return nil, errors.New("store down")
	}
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var out []domain.Task
	for _, task := range r.tasks {
		if filter.UserID != "" && task.UserID != filter.UserID {
			continue
		}
		out = append(out, *task)
	}
	return out, nil
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if r.failAll {
		return nil, errors.New("store down")
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	clone := *task
	r.tasks[task.ID] = &clone
	return task, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if r.failAll {
		return errors.New("store down")
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if r.failAll {
		return errors.New("store down")
	}
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

type notification struct {
	kind   string
	taskID string
	origin string
	patch  json.RawMessage
}

type recorderNotifier struct {
	events []notification
}

func (n *recorderNotifier) AfterCreate(task *domain.Task, _ domain.Identity, origin string) {
	n.events = append(n.events, notification{kind: "create", taskID: task.ID, origin: origin})
}

func (n *recorderNotifier) AfterUpdate(taskID string, patch json.RawMessage, _ domain.Identity, origin string) {
	n.events = append(n.events, notification{kind: "update", taskID: taskID, origin: origin, patch: patch})
}

func (n *recorderNotifier) AfterDelete(taskID string, _ domain.Identity, origin string) {
	n.events = append(n.events, notification{kind: "delete", taskID: taskID, origin: origin})
}

type memoryBuffer struct {
	items []string
}

func (b *memoryBuffer) BufferUser(context.Context, string, *domain.User) error { return nil }

func (b *memoryBuffer) BufferTask(_ context.Context, operation string, _ *domain.Task) error {
	b.items = append(b.items, operation)
	return nil
}

var _ usecase.OperationBuffer = (*memoryBuffer)(nil)
var _ usecase.MutationNotifier = (*recorderNotifier)(nil)

func setup(t *testing.T) (*UseCase, *fakeTaskRepo, *recorderNotifier) {
	t.Helper()
	repo := newFakeTaskRepo()
	notifier := &recorderNotifier{}
	uc := New(repo, nil, nil, notifier, nil)
	return uc, repo, notifier
}

func alice() domain.Identity { return domain.Identity{UserID: "u1", Name: "Alice"} }

func strptr(s string) *string { return &s }

func TestCreateTaskNotifiesAndDefaults(t *testing.T) {
	uc, repo, notifier := setup(t)

	created, err := uc.CreateTask(context.Background(), &domain.Task{Title: "write report"}, alice(), "conn-1")
	require.NoError(t, err)

	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, domain.PriorityMedium, created.Priority)
	assert.Contains(t, repo.tasks, created.ID)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "create", notifier.events[0].kind)
	assert.Equal(t, "conn-1", notifier.events[0].origin)
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	uc, _, notifier := setup(t)

	_, err := uc.CreateTask(context.Background(), &domain.Task{}, alice(), "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.Empty(t, notifier.events)
}

func TestUpdateTaskAppliesPatchAndBroadcastsResult(t *testing.T) {
	uc, _, notifier := setup(t)

	created, err := uc.CreateTask(context.Background(), &domain.Task{Title: "draft"}, alice(), "")
	require.NoError(t, err)
	notifier.events = nil

	updated, err := uc.UpdateTask(context.Background(), created.ID, Patch{
		Title:  strptr("final"),
		Status: strptr(domain.StatusCompleted),
	}, alice(), "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.True(t, updated.IsCompleted())

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "update", notifier.events[0].kind)

	// The broadcast patch is the authoritative post-mutation entity.
	var broadcast domain.Task
	require.NoError(t, json.Unmarshal(notifier.events[0].patch, &broadcast))
	assert.Equal(t, "final", broadcast.Title)
}

func TestUpdateTaskOfOtherUserForbidden(t *testing.T) {
	uc, _, notifier := setup(t)

	created, err := uc.CreateTask(context.Background(), &domain.Task{Title: "mine"}, alice(), "")
	require.NoError(t, err)
	notifier.events = nil

	mallory := domain.Identity{UserID: "u2"}
	_, err = uc.UpdateTask(context.Background(), created.ID, Patch{Title: strptr("stolen")}, mallory, "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assert.Empty(t, notifier.events)
}

func TestDeleteTaskNotifies(t *testing.T) {
	uc, repo, notifier := setup(t)

	created, err := uc.CreateTask(context.Background(), &domain.Task{Title: "temp"}, alice(), "")
	require.NoError(t, err)
	notifier.events = nil

	require.NoError(t, uc.DeleteTask(context.Background(), created.ID, alice(), "conn-9"))
	assert.NotContains(t, repo.tasks, created.ID)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "delete", notifier.events[0].kind)
	assert.Equal(t, created.ID, notifier.events[0].taskID)
	assert.Equal(t, "conn-9", notifier.events[0].origin)
}

func TestSubtaskLifecycle(t *testing.T) {
	uc, _, notifier := setup(t)

	created, err := uc.CreateTask(context.Background(), &domain.Task{Title: "parent"}, alice(), "")
	require.NoError(t, err)
	notifier.events = nil

	withSub, err := uc.AddSubtask(context.Background(), created.ID, domain.Subtask{Title: "step one"}, alice(), "")
	require.NoError(t, err)
	require.Len(t, withSub.Subtasks, 1)
	subID := withSub.Subtasks[0].ID
	assert.NotEmpty(t, subID)
	assert.False(t, withSub.Subtasks[0].Completed)

	done := true
	toggled, err := uc.UpdateSubtask(context.Background(), created.ID, subID, SubtaskPatch{Completed: &done}, alice(), "")
	require.NoError(t, err)
	assert.True(t, toggled.Subtasks[0].Completed)

	removed, err := uc.DeleteSubtask(context.Background(), created.ID, subID, alice(), "")
	require.NoError(t, err)
	assert.Empty(t, removed.Subtasks)

	// Every subtask mutation rewrites the parent and broadcasts an update.
	require.Len(t, notifier.events, 3)
	for _, ev := range notifier.events {
		assert.Equal(t, "update", ev.kind)
		assert.Equal(t, created.ID, ev.taskID)
	}
}

func TestUpdateMissingSubtask(t *testing.T) {
	uc, _, _ := setup(t)

	created, err := uc.CreateTask(context.Background(), &domain.Task{Title: "parent"}, alice(), "")
	require.NoError(t, err)

	_, err = uc.UpdateSubtask(context.Background(), created.ID, "ghost", SubtaskPatch{}, alice(), "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestBufferedCreateDoesNotBroadcast(t *testing.T) {
	repo := newFakeTaskRepo()
	repo.failAll = true
	notifier := &recorderNotifier{}
	buf := &memoryBuffer{}
	uc := New(repo, nil, buf, notifier, nil)

	task, err := uc.CreateTask(context.Background(), &domain.Task{Title: "offline"}, alice(), "conn-1")
	require.NoError(t, err, "buffered writes succeed from the caller's view")
	assert.NotNil(t, task)

	assert.Equal(t, []string{"create"}, buf.items)
	assert.Empty(t, notifier.events, "no broadcast until the store confirms")
}

func TestImportSkipsBroadcast(t *testing.T) {
	uc, repo, notifier := setup(t)

	created, err := uc.ImportTasks(context.Background(), "u1", []domain.Task{
		{Title: "a", Status: "bogus", Priority: "critical"},
		{Title: "b"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, domain.StatusPending, created[0].Status)
	assert.Equal(t, domain.PriorityMedium, created[0].Priority)
	assert.Len(t, repo.tasks, 2)
	assert.Empty(t, notifier.events)
}
