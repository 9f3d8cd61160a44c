package realtime

import (
	"encoding/json"

	"github.com/taskhive/backend/domain"
)

// EventKind enumerates the mutation events the router can fan out.
type EventKind int

const (
	EventTaskCreated EventKind = iota
	EventTaskUpdated
	EventTaskDeleted
)

func (k EventKind) String() string {
	switch k {
	case EventTaskCreated:
		return "task-created"
	case EventTaskUpdated:
		return "task-updated"
	case EventTaskDeleted:
		return "task-deleted"
	}
	return "unknown"
}

// Event is a confirmed store mutation handed to the broadcast router.
// Task is set for creations, Patch for updates; deletions carry only TaskID.
type Event struct {
	Kind   EventKind
	TaskID string
	Task   *domain.Task
	Patch  json.RawMessage
	Actor  domain.Identity
}
