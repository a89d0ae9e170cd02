package management

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is one membership or application-state notification pushed to
// every connected /v1/events client.
type Event struct {
	Type      string    `json:"type"` // join, alive, dead, change, remove, restart
	Endpoint  string    `json:"endpoint"`
	Key       string    `json:"key,omitempty"`
	Value     string    `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out gossip.Subscriber callbacks to every connected websocket
// client on /v1/events. It implements gossip.Subscriber directly so the
// gossip engine can subscribe it alongside the ring Projector and the
// peers Subscriber.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	logf    func(format string, args ...interface{})
}

// NewHub creates an event hub. logf may be nil.
func NewHub(logf func(string, ...interface{})) *Hub {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Hub{clients: make(map[*client]bool), logf: logf}
}

func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logf("management: marshalling event: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logf("management: dropping event for slow websocket client")
		}
	}
}

// ServeHTTP upgrades the request to a websocket and registers the
// client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logf("management: websocket upgrade failed: %v", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.mu.Lock()
		delete(c.hub.clients, c)
		c.hub.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// gossip.Subscriber implementation.

func (h *Hub) BeforeChange(endpoint.ID, *appstate.EndpointState, appstate.Key, appstate.VersionedValue) {
}

func (h *Hub) OnJoin(e endpoint.ID, _ *appstate.EndpointState) {
	h.broadcast(Event{Type: "join", Endpoint: e.String(), Timestamp: time.Now()})
}

func (h *Hub) OnAlive(e endpoint.ID, _ *appstate.EndpointState) {
	h.broadcast(Event{Type: "alive", Endpoint: e.String(), Timestamp: time.Now()})
}

func (h *Hub) OnDead(e endpoint.ID, _ *appstate.EndpointState) {
	h.broadcast(Event{Type: "dead", Endpoint: e.String(), Timestamp: time.Now()})
}

func (h *Hub) OnChange(e endpoint.ID, key appstate.Key, value appstate.VersionedValue) {
	h.broadcast(Event{Type: "change", Endpoint: e.String(), Key: key.String(), Value: value.Value, Timestamp: time.Now()})
}

func (h *Hub) OnRemove(e endpoint.ID) {
	h.broadcast(Event{Type: "remove", Endpoint: e.String(), Timestamp: time.Now()})
}

func (h *Hub) OnRestart(e endpoint.ID, _ *appstate.EndpointState) {
	h.broadcast(Event{Type: "restart", Endpoint: e.String(), Timestamp: time.Now()})
}
