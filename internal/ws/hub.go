// Package ws hosts the session channel: one read loop per connection, a
// hub for fan-out, and the handlers implementing the synchronization
// protocol over the room directory.
package ws

import (
	"sync"

	"github.com/vhoang/covua-server/internal/msgcat"
	"github.com/vhoang/covua-server/internal/notify"
	"github.com/vhoang/covua-server/internal/record"
	"github.com/vhoang/covua-server/internal/registry"
	"github.com/vhoang/covua-server/internal/room"
	"github.com/vhoang/covua-server/pkg/protocol"
	"nhooyr.io/websocket"
)

// Deps carries the hub's collaborators. Records, Archive, and Webhook are
// optional; live play never depends on them.
type Deps struct {
	Registry *registry.Registry
	Rooms    *room.Directory
	Catalog  *msgcat.Catalog
	Records  *record.Store
	Archive  *record.Repository
	Webhook  *notify.Client
}

type Hub struct {
	reg     *registry.Registry
	rooms   *room.Directory
	cat     *msgcat.Catalog
	records *record.Store
	archive *record.Repository
	webhook *notify.Client

	mu      sync.RWMutex
	clients map[string]*Client // connection ID → client
}

func NewHub(deps Deps) *Hub {
	return &Hub{
		reg:     deps.Registry,
		rooms:   deps.Rooms,
		cat:     deps.Catalog,
		records: deps.Records,
		archive: deps.Archive,
		webhook: deps.Webhook,
		clients: make(map[string]*Client),
	}
}

// attach binds a new connection to the hub and the registry. conn may be
// nil in tests; frames then stay readable on the client's egress channel.
func (h *Hub) attach(conn *websocket.Conn) *Client {
	connID := h.reg.Attach()
	c := newClient(connID, conn)
	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.connID)
	h.mu.Unlock()
	c.stop()
}

// toRoom fans an event out to every connection currently bound to the room.
func (h *Hub) toRoom(code, event string, v any) {
	for _, c := range h.snapshotClients() {
		conn, err := h.reg.Resolve(c.connID)
		if err != nil {
			continue
		}
		if conn.RoomCode == code {
			c.send(event, v)
		}
	}
}

// toAll fans an event out to every connected channel.
func (h *Hub) toAll(event string, v any) {
	for _, c := range h.snapshotClients() {
		c.send(event, v)
	}
}

// broadcastRoomsList sends the full directory snapshot to every connected
// channel. Invoked after every directory-mutating event.
func (h *Hub) broadcastRoomsList() {
	h.toAll(protocol.EventRoomsList, h.roomsList())
}

func (h *Hub) roomsList() []protocol.RoomSummary {
	summaries := h.rooms.List()
	out := make([]protocol.RoomSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, protocol.RoomSummary{
			Code:        s.Code,
			Owner:       s.Owner,
			Guest:       s.Guest,
			Status:      string(s.Status),
			PlayerCount: s.PlayerCount,
		})
	}
	return out
}

func (h *Hub) clientByID(connID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[connID]
}

func (h *Hub) snapshotClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}
