package websocket

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"snake-qlearning/game/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // under pongWait

	// Spectators only send control frames.
	maxMessageSize = 512

	// Snapshots queued for the hub loop; further frames are dropped.
	broadcastBuffer = 16
	clientBuffer    = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is what spectators receive.
type Message struct {
	RunID    string          `json:"run_id"`
	Event    string          `json:"event"`
	Snapshot *types.Snapshot `json:"snapshot,omitempty"`
}

// Client is one connected spectator.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts game snapshots to every connected spectator. It implements
// game.Renderer, so it can be attached to a game like any display.
type Hub struct {
	runID   string
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	closeOnce  sync.Once

	count  atomic.Int32
	logger *log.Logger
}

// NewHub creates a hub for the given run. Call Run to start it.
func NewHub(runID string, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		runID:      runID,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's event loop; it returns after Close.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-h.quit:
			h.drain()
			for client := range h.clients {
				h.unregisterClient(client)
			}
			return
		}
	}
}

// ServeWS upgrades the request and attaches the connection as a spectator.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	select {
	case h.register <- client:
	case <-h.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Handler serves spectators on /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	return mux
}

// Render queues a state_update for every spectator. Frames are dropped
// rather than blocking the game when the hub falls behind.
func (h *Hub) Render(s types.Snapshot) error {
	return h.publish(Message{RunID: h.runID, Event: "state_update", Snapshot: &s})
}

// Close notifies spectators and stops the hub loop.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		if err := h.publish(Message{RunID: h.runID, Event: "closed"}); err != nil {
			h.logger.Printf("Failed to publish close event: %v", err)
		}
		close(h.quit)
	})
	return nil
}

// ClientCount returns the number of connected spectators.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

func (h *Hub) publish(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
	}
	return nil
}

// drain delivers whatever is still queued, including the close event.
func (h *Hub) drain() {
	for {
		select {
		case message := <-h.broadcast:
			h.broadcastMessage(message)
		default:
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	h.count.Add(1)
	h.logger.Printf("Spectator connected for run %s (total: %d)", h.runID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.count.Add(-1)
		h.logger.Printf("Spectator disconnected from run %s (remaining: %d)", h.runID, len(h.clients))
	}
}

func (h *Hub) broadcastMessage(message []byte) {
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			h.unregisterClient(client)
		}
	}
}

// readPump drains the connection so pongs and close frames are processed.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
