package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskhive/backend/domain"
	"github.com/taskhive/backend/repository"
	"github.com/taskhive/backend/usecase"
)

// Patch carries the owner-issued field updates for a task. Nil pointers and
// nil slices leave the corresponding field untouched.
type Patch struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	Categories   []string
	Tags         []string
	Dependencies []string
	BlockedBy    []string
}

// SubtaskPatch carries in-place updates for one subtask.
type SubtaskPatch struct {
	Title     *string
	Completed *bool
	DueDate   *time.Time
	Assignee  *string
}

type UseCase struct {
	tasks    repository.TaskRepository
	stats    repository.StatsRepository
	buffer   usecase.OperationBuffer
	notifier usecase.MutationNotifier
	logger   *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	stats repository.StatsRepository,
	buffer usecase.OperationBuffer,
	notifier usecase.MutationNotifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		stats:    stats,
		buffer:   buffer,
		notifier: notifier,
		logger:   logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, id, userID string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(userID) {
		return nil, domain.ErrForbidden
	}
	return task, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task, actor domain.Identity, originConnID string) (*domain.Task, error) {
	if task == nil || task.Title == "" {
		return nil, domain.ErrInvalidPayload
	}
	task.UserID = actor.UserID
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if !domain.ValidStatus(task.Status) || !domain.ValidPriority(task.Priority) {
		return nil, domain.ErrInvalidPayload
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task) {
			// Buffered, not committed: no broadcast until the store
			// confirms during drain.
			return task, nil
		}
		return nil, err
	}

	uc.notify(func(n usecase.MutationNotifier) {
		n.AfterCreate(created, actor, originConnID)
	})
	return created, nil
}

func (uc *UseCase) UpdateTask(ctx context.Context, id string, patch Patch, actor domain.Identity, originConnID string) (*domain.Task, error) {
	task, err := uc.GetTask(ctx, id, actor.UserID)
	if err != nil {
		return nil, err
	}

	applyPatch(task, patch)
	if task.Title == "" || !domain.ValidStatus(task.Status) || !domain.ValidPriority(task.Priority) {
		return nil, domain.ErrInvalidPayload
	}

	return uc.persistUpdate(ctx, task, actor, originConnID)
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string, actor domain.Identity, originConnID string) error {
	if _, err := uc.GetTask(ctx, id, actor.UserID); err != nil {
		return err
	}

	if err := uc.tasks.Delete(ctx, id); err != nil {
		if err == domain.ErrTaskNotFound {
			return err
		}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, &domain.Task{ID: id, UserID: actor.UserID}) {
			return nil
		}
		return err
	}

	uc.notify(func(n usecase.MutationNotifier) {
		n.AfterDelete(id, actor, originConnID)
	})
	return nil
}

// AddSubtask appends a subtask to the parent's owned collection; the whole
// parent row is rewritten and the post-mutation task is returned.
func (uc *UseCase) AddSubtask(ctx context.Context, taskID string, sub domain.Subtask, actor domain.Identity, originConnID string) (*domain.Task, error) {
	if sub.Title == "" {
		return nil, domain.ErrInvalidPayload
	}

	task, err := uc.GetTask(ctx, taskID, actor.UserID)
	if err != nil {
		return nil, err
	}

	sub.ID = uuid.NewString()
	sub.CreatedAt = time.Now().UTC()
	task.Subtasks = append(task.Subtasks, sub)

	return uc.persistUpdate(ctx, task, actor, originConnID)
}

func (uc *UseCase) UpdateSubtask(ctx context.Context, taskID, subtaskID string, patch SubtaskPatch, actor domain.Identity, originConnID string) (*domain.Task, error) {
	task, err := uc.GetTask(ctx, taskID, actor.UserID)
	if err != nil {
		return nil, err
	}

	sub := task.SubtaskByID(subtaskID)
	if sub == nil {
		return nil, domain.ErrSubtaskNotFound
	}
	if patch.Title != nil && *patch.Title != "" {
		sub.Title = *patch.Title
	}
	if patch.Completed != nil {
		sub.Completed = *patch.Completed
	}
	if patch.DueDate != nil {
		sub.DueDate = patch.DueDate
	}
	if patch.Assignee != nil {
		sub.Assignee = *patch.Assignee
	}

	return uc.persistUpdate(ctx, task, actor, originConnID)
}

func (uc *UseCase) DeleteSubtask(ctx context.Context, taskID, subtaskID string, actor domain.Identity, originConnID string) (*domain.Task, error) {
	task, err := uc.GetTask(ctx, taskID, actor.UserID)
	if err != nil {
		return nil, err
	}

	if !task.RemoveSubtask(subtaskID) {
		return nil, domain.ErrSubtaskNotFound
	}

	return uc.persistUpdate(ctx, task, actor, originConnID)
}

// ExportTasks returns the user's full task set for a one-shot download.
func (uc *UseCase) ExportTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	return uc.tasks.List(ctx, repository.TaskFilter{UserID: userID, Limit: 100})
}

// ImportTasks bulk-creates tasks for the user. Batch operations sit outside
// the realtime contract, so no broadcasts are emitted.
func (uc *UseCase) ImportTasks(ctx context.Context, userID string, tasks []domain.Task) ([]domain.Task, error) {
	created := make([]domain.Task, 0, len(tasks))
	for i := range tasks {
		task := tasks[i]
		task.ID = ""
		task.UserID = userID
		if task.Title == "" {
			return nil, domain.ErrInvalidPayload
		}
		if task.Status == "" || !domain.ValidStatus(task.Status) {
			task.Status = domain.StatusPending
		}
		if task.Priority == "" || !domain.ValidPriority(task.Priority) {
			task.Priority = domain.PriorityMedium
		}
		saved, err := uc.tasks.Create(ctx, &task)
		if err != nil {
			return nil, err
		}
		created = append(created, *saved)
	}
	return created, nil
}

// Stats summarizes the user's task set for dashboard views.
func (uc *UseCase) Stats(ctx context.Context, userID string, completedSince time.Time) (*domain.TaskStats, error) {
	return uc.stats.UserStats(ctx, userID, completedSince)
}

// persistUpdate writes the post-mutation task and, on a confirmed commit,
// broadcasts the authoritative entity as the update patch.
func (uc *UseCase) persistUpdate(ctx context.Context, task *domain.Task, actor domain.Identity, originConnID string) (*domain.Task, error) {
	if err := uc.tasks.Update(ctx, task); err != nil {
		if err == domain.ErrTaskNotFound {
			return nil, err
		}
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, task) {
			return task, nil
		}
		return nil, err
	}

	uc.notify(func(n usecase.MutationNotifier) {
		patch, err := json.Marshal(task)
		if err != nil {
			uc.logger.Error("failed to marshal update patch", zap.Error(err))
			return
		}
		n.AfterUpdate(task.ID, patch, actor, originConnID)
	})
	return task, nil
}

func (uc *UseCase) notify(fn func(usecase.MutationNotifier)) {
	if uc.notifier == nil {
		return
	}
	fn(uc.notifier)
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("task operation buffered", zap.String("operation", operation))
	return true
}

func applyPatch(task *domain.Task, patch Patch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Categories != nil {
		task.Categories = patch.Categories
	}
	if patch.Tags != nil {
		task.Tags = patch.Tags
	}
	if patch.Dependencies != nil {
		task.Dependencies = patch.Dependencies
	}
	if patch.BlockedBy != nil {
		task.BlockedBy = patch.BlockedBy
	}
}
