package realtime

import (
	"time"

	"go.uber.org/zap"
)

// Router fans mutation events out to the right audience, always excluding the
// originating connection: the originator already holds the authoritative
// result of its own request.
type Router struct {
	hub    *Hub
	logger *zap.Logger
	now    func() time.Time
}

// NewRouter wires a router to the hub.
func NewRouter(hub *Hub, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{hub: hub, logger: logger, now: time.Now}
}

// Route delivers the event at most once per eligible connection. There is no
// acknowledgement or retry; a client that disconnects mid-fanout simply
// misses the event and reconciles by re-fetching over REST.
func (r *Router) Route(ev Event, originConnID string) {
	switch ev.Kind {
	case EventTaskUpdated:
		audience, ok := r.hub.roomAudience(ev.TaskID, originConnID)
		if !ok {
			// Room already torn down, most likely a stale update for
			// a deleted task. Dropped, not an error.
			r.logger.Debug("update for unknown room dropped",
				zap.String("task_id", ev.TaskID))
			return
		}
		r.hub.fanOut(audience, TaskChangedMessage{
			TaskID:    ev.TaskID,
			Patch:     ev.Patch,
			UpdatedBy: ev.Actor.UserID,
			Timestamp: r.now(),
		})

	case EventTaskCreated:
		// Every connected client may show the new task in a list view,
		// so creation is a global broadcast over the whole registry.
		r.hub.fanOut(r.hub.globalAudience(originConnID), NewTaskMessage{
			Task:      ev.Task,
			CreatedBy: ev.Actor.UserID,
			Timestamp: r.now(),
		})

	case EventTaskDeleted:
		audience, ok := r.hub.roomAudience(ev.TaskID, originConnID)
		if ok {
			r.hub.fanOut(audience, TaskRemovedMessage{
				TaskID:    ev.TaskID,
				DeletedBy: ev.Actor.UserID,
				Timestamp: r.now(),
			})
		}
		r.hub.dropRoom(ev.TaskID)

	default:
		r.logger.Error("unroutable event kind", zap.Int("kind", int(ev.Kind)))
	}
}
