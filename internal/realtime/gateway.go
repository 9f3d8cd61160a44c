package realtime

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/taskhive/backend/domain"
)

// Gateway is the seam between the durable-store boundary and the broadcast
// system. It is invoked only after the store confirms a mutation; it never
// initiates mutations and never fails the original request when a broadcast
// cannot be delivered.
type Gateway struct {
	router *Router
	logger *zap.Logger
}

// NewGateway creates a gateway in front of the router.
func NewGateway(router *Router, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{router: router, logger: logger}
}

// AfterCreate announces a committed task creation. originConnID may be empty
// when the actor has no live socket.
func (g *Gateway) AfterCreate(task *domain.Task, actor domain.Identity, originConnID string) {
	if task == nil {
		return
	}
	g.router.Route(Event{
		Kind:   EventTaskCreated,
		TaskID: task.ID,
		Task:   task,
		Actor:  actor,
	}, originConnID)
}

// AfterUpdate announces a committed task update to the task's room.
func (g *Gateway) AfterUpdate(taskID string, patch json.RawMessage, actor domain.Identity, originConnID string) {
	if taskID == "" {
		g.logger.Warn("update event without task id dropped")
		return
	}
	g.router.Route(Event{
		Kind:   EventTaskUpdated,
		TaskID: taskID,
		Patch:  patch,
		Actor:  actor,
	}, originConnID)
}

// AfterDelete announces a committed task deletion and tears the room down.
func (g *Gateway) AfterDelete(taskID string, actor domain.Identity, originConnID string) {
	if taskID == "" {
		g.logger.Warn("delete event without task id dropped")
		return
	}
	g.router.Route(Event{
		Kind:   EventTaskDeleted,
		TaskID: taskID,
		Actor:  actor,
	}, originConnID)
}
