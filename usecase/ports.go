package usecase

import (
	"context"
	"encoding/json"

	"github.com/taskhive/backend/domain"
)

// Operation names shared by the outage buffer.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the write-behind buffer so use cases stay
// storage-agnostic.
type OperationBuffer interface {
	BufferUser(ctx context.Context, operation string, user *domain.User) error
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
}

// MutationNotifier is the seam to the realtime broadcast layer. It is called
// only after a mutation is confirmed by the repository; implementations are
// best-effort and must never fail the original request.
type MutationNotifier interface {
	AfterCreate(task *domain.Task, actor domain.Identity, originConnID string)
	AfterUpdate(taskID string, patch json.RawMessage, actor domain.Identity, originConnID string)
	AfterDelete(taskID string, actor domain.Identity, originConnID string)
}
