package realtime

import (
	"encoding/json"
	"time"

	"github.com/taskhive/backend/domain"
)

// Client-to-server message kinds. The mutation notifications mirror events a
// client already committed through the REST API; the socket never carries an
// authoritative write.
const (
	msgJoinTask    = "join-task"
	msgLeaveTask   = "leave-task"
	msgTaskUpdated = "task-updated"
	msgTaskCreated = "task-created"
	msgTaskDeleted = "task-deleted"
)

// Server-to-client message kinds.
const (
	msgTaskChanged = "task-changed"
	msgNewTask     = "new-task"
	msgTaskRemoved = "task-removed"
	msgUserStatus  = "user-status-changed"
	msgOnlineUsers = "online-users"
)

// ClientMessage is the closed set of messages a connection may send.
type ClientMessage interface {
	isClientMessage()
}

type JoinTaskMessage struct {
	TaskID string `json:"task_id"`
}

type LeaveTaskMessage struct {
	TaskID string `json:"task_id"`
}

type TaskUpdatedMessage struct {
	TaskID string          `json:"task_id"`
	Patch  json.RawMessage `json:"patch"`
}

type TaskCreatedMessage struct {
	Task *domain.Task `json:"task"`
}

type TaskDeletedMessage struct {
	TaskID string `json:"task_id"`
}

func (JoinTaskMessage) isClientMessage()    {}
func (LeaveTaskMessage) isClientMessage()   {}
func (TaskUpdatedMessage) isClientMessage() {}
func (TaskCreatedMessage) isClientMessage() {}
func (TaskDeletedMessage) isClientMessage() {}

type clientEnvelope struct {
	Type   string          `json:"type"`
	TaskID string          `json:"task_id,omitempty"`
	Patch  json.RawMessage `json:"patch,omitempty"`
	Task   *domain.Task    `json:"task,omitempty"`
}

// DecodeClientMessage parses an inbound frame into one of the closed message
// variants. Unknown kinds yield domain.ErrUnknownMessageType so the caller can
// log them instead of silently dropping unrecognized traffic.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "malformed realtime message", err)
	}

	switch env.Type {
	case msgJoinTask:
		return JoinTaskMessage{TaskID: env.TaskID}, nil
	case msgLeaveTask:
		return LeaveTaskMessage{TaskID: env.TaskID}, nil
	case msgTaskUpdated:
		return TaskUpdatedMessage{TaskID: env.TaskID, Patch: env.Patch}, nil
	case msgTaskCreated:
		return TaskCreatedMessage{Task: env.Task}, nil
	case msgTaskDeleted:
		return TaskDeletedMessage{TaskID: env.TaskID}, nil
	default:
		return nil, domain.ErrUnknownMessageType
	}
}

// ServerMessage is the closed set of messages the hub pushes to connections.
type ServerMessage interface {
	isServerMessage()
}

// TaskChangedMessage notifies room subscribers of an update to a task.
type TaskChangedMessage struct {
	TaskID    string          `json:"task_id"`
	Patch     json.RawMessage `json:"patch"`
	UpdatedBy string          `json:"updated_by,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewTaskMessage announces a freshly created task to every connection.
type NewTaskMessage struct {
	Task      *domain.Task `json:"task"`
	CreatedBy string       `json:"created_by,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// TaskRemovedMessage tells room subscribers the task no longer exists.
type TaskRemovedMessage struct {
	TaskID    string    `json:"task_id"`
	DeletedBy string    `json:"deleted_by,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserStatusMessage carries a presence edge for one identity.
type UserStatusMessage struct {
	User   domain.Identity `json:"user"`
	Status string          `json:"status"`
}

// OnlineUsersMessage is the snapshot delivered once at admission, together
// with the connection id the client must echo as X-Connection-ID on REST
// mutations so its own socket is excluded from resulting broadcasts.
type OnlineUsersMessage struct {
	ConnectionID string            `json:"connection_id"`
	Users        []domain.Identity `json:"users"`
}

func (TaskChangedMessage) isServerMessage() {}
func (NewTaskMessage) isServerMessage()     {}
func (TaskRemovedMessage) isServerMessage() {}
func (UserStatusMessage) isServerMessage()  {}
func (OnlineUsersMessage) isServerMessage() {}

type serverEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// EncodeServerMessage wraps a server message with its type tag.
func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	var kind string
	switch msg.(type) {
	case TaskChangedMessage:
		kind = msgTaskChanged
	case NewTaskMessage:
		kind = msgNewTask
	case TaskRemovedMessage:
		kind = msgTaskRemoved
	case UserStatusMessage:
		kind = msgUserStatus
	case OnlineUsersMessage:
		kind = msgOnlineUsers
	default:
		return nil, domain.ErrUnknownMessageType
	}
	return json.Marshal(serverEnvelope{Type: kind, Data: msg})
}
