package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/bloodrecall/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// client is one participant's socket. Outbound frames go through send so a
// single goroutine writes, in order.
type client struct {
	playerID string
	send     chan []byte
	done     chan struct{}

	once   sync.Once
	code   websocket.StatusCode
	reason string
}

func newClient(playerID string) *client {
	return &client{
		playerID: playerID,
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
	}
}

// enqueue never blocks. A client too slow to drain its buffer is closed.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		c.close(websocket.StatusPolicyViolation, "client too slow")
		return false
	}
}

func (c *client) close(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		c.code, c.reason = code, reason
		close(c.done)
	})
}

// writeLoop drains send until the client or ctx is done.
func (c *client) writeLoop(ctx context.Context, conn *websocket.Conn, logger logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			conn.Close(c.code, c.reason)
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("player_id", c.playerID).Warn("failed to write to websocket")
				c.close(websocket.StatusInternalError, "write failed")
				conn.Close(c.code, c.reason)
				return
			}
		}
	}
}

// hub fans match events out to the connected participants of one match. Its
// methods are called with the match lock held, so it never calls back into
// the match.
type hub struct {
	matchID uuid.UUID
	log     logrus.FieldLogger

	mu      sync.Mutex
	clients map[string]*client
}

func newHub(matchID uuid.UUID, logger logrus.FieldLogger) *hub {
	return &hub{
		matchID: matchID,
		log:     logger.WithField("match_id", matchID),
		clients: make(map[string]*client),
	}
}

// attach registers c for its player, closing any socket it replaces.
func (h *hub) attach(c *client) {
	h.mu.Lock()
	prev := h.clients[c.playerID]
	h.clients[c.playerID] = c
	h.mu.Unlock()
	if prev != nil {
		prev.close(websocket.StatusNormalClosure, "replaced by a newer connection")
	}
}

// detach removes c unless a newer socket already took its place.
func (h *hub) detach(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.playerID] != c {
		return false
	}
	delete(h.clients, c.playerID)
	return true
}

func (h *hub) broadcast(ev game.MatchEvent) {
	data := game.EventBytes(ev)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.enqueue(data)
	}
}

func (h *hub) sendTo(playerID string, ev game.MatchEvent) {
	h.mu.Lock()
	c := h.clients[playerID]
	h.mu.Unlock()
	if c == nil {
		return
	}
	if !c.enqueue(game.EventBytes(ev)) {
		h.log.WithField("player_id", playerID).Debug("dropped event for closed client")
	}
}

type hubRegistry struct {
	mu   sync.Mutex
	hubs map[uuid.UUID]*hub
}

func newHubRegistry() *hubRegistry {
	return &hubRegistry{hubs: make(map[uuid.UUID]*hub)}
}

func (r *hubRegistry) put(id uuid.UUID, h *hub) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hubs[id] = h
}

func (r *hubRegistry) get(id uuid.UUID) (*hub, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hubs[id]
	return h, ok
}

func (r *hubRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	h := r.hubs[id]
	delete(r.hubs, id)
	r.mu.Unlock()
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.close(websocket.StatusGoingAway, "match closed")
	}
}
