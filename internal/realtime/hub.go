package realtime

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/taskhive/backend/domain"
)

// Presence statuses.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Hub is the single source of truth for live connections, room membership and
// presence counts. All three maps mutate together under one lock so a
// concurrent join/evict pair can never observe a half-applied state; every
// critical section is a short, non-blocking step because outbound delivery is
// a buffered channel push.
type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	conns  map[string]*Client            // connection id -> client
	counts map[string]int                // user id -> live connection count
	online map[string]domain.Identity    // user id -> identity, present iff count > 0
	rooms  map[string]map[string]*Client // task id -> connection id -> client
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger,
		conns:  make(map[string]*Client),
		counts: make(map[string]int),
		online: make(map[string]domain.Identity),
		rooms:  make(map[string]map[string]*Client),
	}
}

// Admit registers a connection and binds its identity. The second admission of
// the same connection id is rejected without touching the first. On a 0->1
// presence edge every other connection learns the identity came online; the
// admitted client always receives the current online snapshot.
func (h *Hub) Admit(c *Client) error {
	if c == nil || c.id == "" {
		return domain.ErrInvalidPayload
	}

	h.mu.Lock()
	if _, exists := h.conns[c.id]; exists {
		h.mu.Unlock()
		return domain.ErrDuplicateConnection
	}
	h.conns[c.id] = c

	h.counts[c.identity.UserID]++
	firstConnection := h.counts[c.identity.UserID] == 1
	if firstConnection {
		h.online[c.identity.UserID] = c.identity
	}

	snapshot := h.onlineLocked()
	var audience []*Client
	if firstConnection {
		audience = h.allExceptLocked(c.id)
	}
	h.mu.Unlock()

	c.deliver(OnlineUsersMessage{ConnectionID: c.id, Users: snapshot})
	if firstConnection {
		h.fanOut(audience, UserStatusMessage{User: c.identity, Status: StatusOnline})
	}

	h.logger.Debug("connection admitted",
		zap.String("connection_id", c.id),
		zap.String("user_id", c.identity.UserID))
	return nil
}

// Evict removes a connection from the registry and every room it joined.
// Calling it again for an already-evicted connection is a no-op; disconnect
// handlers may fire more than once.
func (h *Hub) Evict(c *Client) {
	if c == nil {
		return
	}

	h.mu.Lock()
	if _, exists := h.conns[c.id]; !exists {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.id)

	for taskID := range c.joined {
		h.removeFromRoomLocked(c, taskID)
	}

	h.counts[c.identity.UserID]--
	lastConnection := h.counts[c.identity.UserID] <= 0
	if lastConnection {
		delete(h.counts, c.identity.UserID)
		delete(h.online, c.identity.UserID)
	}

	var audience []*Client
	if lastConnection {
		audience = h.allExceptLocked(c.id)
	}
	h.mu.Unlock()

	if lastConnection {
		h.fanOut(audience, UserStatusMessage{User: c.identity, Status: StatusOffline})
	}

	h.logger.Debug("connection evicted",
		zap.String("connection_id", c.id),
		zap.String("user_id", c.identity.UserID))
}

// IdentityOf resolves the identity bound to a connection id.
func (h *Hub) IdentityOf(connID string) (domain.Identity, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	if !ok {
		return domain.Identity{}, domain.ErrConnectionNotFound
	}
	return c.identity, nil
}

// Join subscribes the connection to the room for taskID, creating the room on
// first interest. Joining twice is a no-op.
func (h *Hub) Join(c *Client, taskID string) {
	if c == nil || taskID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.conns[c.id]; !exists {
		// Disconnected in the meantime; a dead connection must not
		// re-enter a room.
		return
	}

	room := h.rooms[taskID]
	if room == nil {
		room = make(map[string]*Client)
		h.rooms[taskID] = room
	}
	room[c.id] = c
	c.joined[taskID] = struct{}{}
}

// Leave removes the connection from the room. Empty rooms are deleted so
// memory stays bounded by active interest.
func (h *Hub) Leave(c *Client, taskID string) {
	if c == nil || taskID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(c, taskID)
}

// Subscribers returns the connection ids currently in the room for taskID.
func (h *Hub) Subscribers(taskID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[taskID]
	ids := make([]string, 0, len(room))
	for id := range room {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OnlineUsers returns the identities with at least one live connection.
func (h *Hub) OnlineUsers() []domain.Identity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineLocked()
}

// roomAudience snapshots the room for taskID minus the originator. The second
// return reports whether the room exists at all; a torn-down room routes
// nowhere.
func (h *Hub) roomAudience(taskID, exceptConnID string) ([]*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[taskID]
	if !ok {
		return nil, false
	}
	audience := make([]*Client, 0, len(room))
	for id, c := range room {
		if id == exceptConnID {
			continue
		}
		audience = append(audience, c)
	}
	return audience, true
}

// globalAudience snapshots every admitted connection minus the originator.
func (h *Hub) globalAudience(exceptConnID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.allExceptLocked(exceptConnID)
}

// dropRoom tears the room down after a task deletion. Subsequent events for
// the task id find no room and are dropped.
func (h *Hub) dropRoom(taskID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.rooms[taskID] {
		delete(c.joined, taskID)
	}
	delete(h.rooms, taskID)
}

func (h *Hub) removeFromRoomLocked(c *Client, taskID string) {
	delete(c.joined, taskID)
	room := h.rooms[taskID]
	if room == nil {
		return
	}
	delete(room, c.id)
	if len(room) == 0 {
		delete(h.rooms, taskID)
	}
}

func (h *Hub) allExceptLocked(exceptConnID string) []*Client {
	audience := make([]*Client, 0, len(h.conns))
	for id, c := range h.conns {
		if id == exceptConnID {
			continue
		}
		audience = append(audience, c)
	}
	return audience
}

func (h *Hub) onlineLocked() []domain.Identity {
	users := make([]domain.Identity, 0, len(h.online))
	for _, identity := range h.online {
		users = append(users, identity)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}

func (h *Hub) fanOut(audience []*Client, msg ServerMessage) {
	for _, c := range audience {
		if !c.deliver(msg) {
			h.logger.Warn("dropped realtime message, send buffer full",
				zap.String("connection_id", c.id))
		}
	}
}
