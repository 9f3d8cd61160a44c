package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/backend/domain"
)

func taskFixture(id, owner string) *domain.Task {
	return &domain.Task{
		ID:       id,
		UserID:   owner,
		Title:    "write report",
		Status:   domain.StatusPending,
		Priority: domain.PriorityMedium,
	}
}

func setupRouter(t *testing.T) (*Hub, *Router) {
	t.Helper()
	hub := NewHub(nil)
	return hub, NewRouter(hub, nil)
}

func taskChanges(msgs []ServerMessage) []TaskChangedMessage {
	var out []TaskChangedMessage
	for _, m := range msgs {
		if tc, ok := m.(TaskChangedMessage); ok {
			out = append(out, tc)
		}
	}
	return out
}

func TestUpdateRoutedToRoomExceptOriginator(t *testing.T) {
	hub, router := setupRouter(t)

	a := newTestClient("u1", "Alice")
	b := newTestClient("u2", "Bob")
	c := newTestClient("u3", "Cara")
	for _, cl := range []*Client{a, b, c} {
		require.NoError(t, hub.Admit(cl))
	}
	hub.Join(a, "t1")
	hub.Join(b, "t1")
	// c never joins t1.
	drain(a)
	drain(b)
	drain(c)

	patch := json.RawMessage(`{"status":"completed"}`)
	router.Route(Event{Kind: EventTaskUpdated, TaskID: "t1", Patch: patch}, a.ID())

	changes := taskChanges(drain(b))
	require.Len(t, changes, 1)
	assert.Equal(t, "t1", changes[0].TaskID)
	assert.JSONEq(t, `{"status":"completed"}`, string(changes[0].Patch))

	assert.Empty(t, drain(a), "originator receives nothing from its own broadcast")
	assert.Empty(t, drain(c), "non-subscriber receives nothing")
}

func TestCreatedIsGlobalExceptOriginator(t *testing.T) {
	hub, router := setupRouter(t)

	creator := newTestClient("u1", "Alice")
	other := newTestClient("u2", "Bob")
	require.NoError(t, hub.Admit(creator))
	require.NoError(t, hub.Admit(other))
	drain(creator)
	drain(other)

	task := taskFixture("t9", "u1")
	router.Route(Event{Kind: EventTaskCreated, TaskID: task.ID, Task: task}, creator.ID())

	msgs := drain(other)
	require.Len(t, msgs, 1)
	created, ok := msgs[0].(NewTaskMessage)
	require.True(t, ok)
	assert.Equal(t, "t9", created.Task.ID)

	assert.Empty(t, drain(creator))
}

func TestDeletedTearsDownRoom(t *testing.T) {
	hub, router := setupRouter(t)

	a := newTestClient("u1", "Alice")
	b := newTestClient("u2", "Bob")
	require.NoError(t, hub.Admit(a))
	require.NoError(t, hub.Admit(b))
	hub.Join(a, "t1")
	hub.Join(b, "t1")
	drain(a)
	drain(b)

	router.Route(Event{Kind: EventTaskDeleted, TaskID: "t1"}, b.ID())

	msgs := drain(a)
	require.Len(t, msgs, 1)
	removed, ok := msgs[0].(TaskRemovedMessage)
	require.True(t, ok)
	assert.Equal(t, "t1", removed.TaskID)
	assert.Empty(t, drain(b), "originator excluded from removal broadcast")

	// A stray update for the deleted id routes nowhere.
	router.Route(Event{Kind: EventTaskUpdated, TaskID: "t1", Patch: json.RawMessage(`{}`)}, "")
	assert.Empty(t, drain(a))
	assert.Empty(t, drain(b))

	// A repeated delete for the same id is equally silent.
	router.Route(Event{Kind: EventTaskDeleted, TaskID: "t1"}, "")
	assert.Empty(t, drain(a))
	assert.Empty(t, drain(b))
}

func TestUpdateForUnknownRoomIsDropped(t *testing.T) {
	hub, router := setupRouter(t)

	a := newTestClient("u1", "Alice")
	require.NoError(t, hub.Admit(a))
	drain(a)

	router.Route(Event{Kind: EventTaskUpdated, TaskID: "ghost", Patch: json.RawMessage(`{}`)}, "")
	assert.Empty(t, drain(a))
}

func TestSlowSubscriberMissesEventOthersStillGetIt(t *testing.T) {
	hub, router := setupRouter(t)

	fast := newTestClient("u1", "Alice")
	slow := NewClient(domain.Identity{UserID: "u2", Name: "Bob"}, 1)
	require.NoError(t, hub.Admit(fast))
	require.NoError(t, hub.Admit(slow))
	hub.Join(fast, "t1")
	hub.Join(slow, "t1")
	drain(fast)
	drain(slow)

	// Fill the slow client's single-slot buffer.
	slow.send <- UserStatusMessage{}

	router.Route(Event{Kind: EventTaskUpdated, TaskID: "t1", Patch: json.RawMessage(`{}`)}, "")

	require.Len(t, taskChanges(drain(fast)), 1)
	assert.Empty(t, taskChanges(drain(slow)), "overflowing message is dropped, not queued")
}
