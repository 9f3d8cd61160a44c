package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/backend/domain"
)

func TestDecodeClientMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ClientMessage
	}{
		{
			name: "join",
			raw:  `{"type":"join-task","task_id":"t1"}`,
			want: JoinTaskMessage{TaskID: "t1"},
		},
		{
			name: "leave",
			raw:  `{"type":"leave-task","task_id":"t1"}`,
			want: LeaveTaskMessage{TaskID: "t1"},
		},
		{
			name: "updated",
			raw:  `{"type":"task-updated","task_id":"t1","patch":{"status":"completed"}}`,
			want: TaskUpdatedMessage{TaskID: "t1", Patch: json.RawMessage(`{"status":"completed"}`)},
		},
		{
			name: "deleted",
			raw:  `{"type":"task-deleted","task_id":"t1"}`,
			want: TaskDeletedMessage{TaskID: "t1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeClientMessage([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestDecodeClientMessageCreated(t *testing.T) {
	raw := `{"type":"task-created","task":{"id":"t1","user_id":"u1","title":"x","status":"pending","priority":"low","subtasks":null}}`
	msg, err := DecodeClientMessage([]byte(raw))
	require.NoError(t, err)

	created, ok := msg.(TaskCreatedMessage)
	require.True(t, ok)
	require.NotNil(t, created.Task)
	assert.Equal(t, "t1", created.Task.ID)
}

func TestDecodeClientMessageUnknownKind(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":"set-on-fire","task_id":"t1"}`))
	require.ErrorIs(t, err, domain.ErrUnknownMessageType)
}

func TestDecodeClientMessageMalformed(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{nope`))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestEncodeServerMessageTags(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		msg  ServerMessage
		kind string
	}{
		{TaskChangedMessage{TaskID: "t1", Timestamp: now}, "task-changed"},
		{NewTaskMessage{Task: taskFixture("t1", "u1"), Timestamp: now}, "new-task"},
		{TaskRemovedMessage{TaskID: "t1", Timestamp: now}, "task-removed"},
		{UserStatusMessage{User: domain.Identity{UserID: "u1"}, Status: StatusOnline}, "user-status-changed"},
		{OnlineUsersMessage{ConnectionID: "c1"}, "online-users"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			payload, err := EncodeServerMessage(tt.msg)
			require.NoError(t, err)

			var env struct {
				Type string          `json:"type"`
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(payload, &env))
			assert.Equal(t, tt.kind, env.Type)
			assert.NotEmpty(t, env.Data)
		})
	}
}
