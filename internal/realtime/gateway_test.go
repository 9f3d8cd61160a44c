package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/backend/domain"
)

func TestGatewayAfterCreateBroadcastsGlobally(t *testing.T) {
	hub, router := setupRouter(t)
	gw := NewGateway(router, nil)

	actor := newTestClient("u1", "Alice")
	other := newTestClient("u2", "Bob")
	require.NoError(t, hub.Admit(actor))
	require.NoError(t, hub.Admit(other))
	drain(actor)
	drain(other)

	task := taskFixture("t1", "u1")
	gw.AfterCreate(task, actor.Identity(), actor.ID())

	msgs := drain(other)
	require.Len(t, msgs, 1)
	created, ok := msgs[0].(NewTaskMessage)
	require.True(t, ok)
	assert.Equal(t, "t1", created.Task.ID)
	assert.Equal(t, "u1", created.CreatedBy)

	assert.Empty(t, drain(actor))
}

func TestGatewayAfterUpdateReachesRoomOnly(t *testing.T) {
	hub, router := setupRouter(t)
	gw := NewGateway(router, nil)

	actor := newTestClient("u1", "Alice")
	subscriber := newTestClient("u2", "Bob")
	outsider := newTestClient("u3", "Cara")
	for _, c := range []*Client{actor, subscriber, outsider} {
		require.NoError(t, hub.Admit(c))
	}
	hub.Join(actor, "t1")
	hub.Join(subscriber, "t1")
	drain(actor)
	drain(subscriber)
	drain(outsider)

	gw.AfterUpdate("t1", json.RawMessage(`{"title":"new"}`), actor.Identity(), actor.ID())

	changes := taskChanges(drain(subscriber))
	require.Len(t, changes, 1)
	assert.Equal(t, "u1", changes[0].UpdatedBy)

	assert.Empty(t, drain(actor))
	assert.Empty(t, drain(outsider))
}

func TestGatewayAfterDeleteWithoutLiveOriginator(t *testing.T) {
	hub, router := setupRouter(t)
	gw := NewGateway(router, nil)

	subscriber := newTestClient("u2", "Bob")
	require.NoError(t, hub.Admit(subscriber))
	hub.Join(subscriber, "t1")
	drain(subscriber)

	// The actor mutated over REST without an open socket: empty origin
	// still reaches every subscriber.
	gw.AfterDelete("t1", domain.Identity{UserID: "u1"}, "")

	msgs := drain(subscriber)
	require.Len(t, msgs, 1)
	removed, ok := msgs[0].(TaskRemovedMessage)
	require.True(t, ok)
	assert.Equal(t, "t1", removed.TaskID)
	assert.Equal(t, "u1", removed.DeletedBy)

	assert.Empty(t, hub.Subscribers("t1"))
}

func TestGatewayIgnoresEmptyEvents(t *testing.T) {
	hub, router := setupRouter(t)
	gw := NewGateway(router, nil)

	c := newTestClient("u1", "Alice")
	require.NoError(t, hub.Admit(c))
	hub.Join(c, "t1")
	drain(c)

	gw.AfterCreate(nil, domain.Identity{}, "")
	gw.AfterUpdate("", nil, domain.Identity{}, "")
	gw.AfterDelete("", domain.Identity{}, "")

	assert.Empty(t, drain(c))
	assert.Equal(t, []string{c.ID()}, hub.Subscribers("t1"), "empty delete must not tear down rooms")
}

func TestClientDispatchDrivesHubAndRouter(t *testing.T) {
	hub, router := setupRouter(t)

	a := newTestClient("u1", "Alice")
	b := newTestClient("u2", "Bob")
	require.NoError(t, hub.Admit(a))
	require.NoError(t, hub.Admit(b))

	a.dispatch(JoinTaskMessage{TaskID: "t1"}, hub, router)
	b.dispatch(JoinTaskMessage{TaskID: "t1"}, hub, router)
	drain(a)
	drain(b)

	a.dispatch(TaskUpdatedMessage{TaskID: "t1", Patch: json.RawMessage(`{"status":"completed"}`)}, hub, router)

	changes := taskChanges(drain(b))
	require.Len(t, changes, 1)
	assert.Equal(t, "u1", changes[0].UpdatedBy)
	assert.Empty(t, drain(a))

	b.dispatch(LeaveTaskMessage{TaskID: "t1"}, hub, router)
	a.dispatch(TaskUpdatedMessage{TaskID: "t1", Patch: json.RawMessage(`{}`)}, hub, router)
	assert.Empty(t, drain(b))
}
