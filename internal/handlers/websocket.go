package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/planner"
	"github.com/ternarybob/serendib/internal/services/sessions"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsQueueSize  = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSMessage is the envelope for every websocket frame
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// wsCommand is a selection change sent by the browser over the socket
type wsCommand struct {
	Action  string `json:"action"` // add, remove, toggle, clear
	PlaceID string `json:"placeId"`
}

// PlannerSnapshot is the full planner state sent on connect and after a resync
type PlannerSnapshot struct {
	SessionID string                 `json:"sessionId"`
	Itinerary planner.Itinerary      `json:"itinerary"`
	Map       planner.MapState       `json:"map"`
	Dialog    planner.DialogSnapshot `json:"dialog"`
}

// WebSocketHandler pushes planner view updates to the browser
type WebSocketHandler struct {
	sessions *sessions.Manager
	logger   arbor.ILogger
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
}

// NewWebSocketHandler creates the /ws/planner handler
func NewWebSocketHandler(manager *sessions.Manager, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: manager,
		logger:   logger,
		clients:  make(map[*wsClient]struct{}),
	}
}

// ClientCount returns the number of connected sockets
func (h *WebSocketHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll sends a going-away close frame to every socket and drops it.
// Browsers reconnect and get a fresh snapshot from the next process.
func (h *WebSocketHandler) CloseAll() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.close()
	}
	if len(clients) > 0 {
		h.logger.Info().Int("clients", len(clients)).Msg("Closed planner websockets for shutdown")
	}
}

func (h *WebSocketHandler) track(c *wsClient, add bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if add {
		h.clients[c] = struct{}{}
	} else {
		delete(h.clients, c)
	}
	return len(h.clients)
}

// HandleWebSocket handles GET /ws/planner. The socket binds to the planner
// session named by the session cookie.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessions.CookieName)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "No planner session, load the planner first")
		return
	}
	session, ok := h.sessions.Get(cookie.Value)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Planner session expired, reload the page")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &wsClient{
		conn:    conn,
		session: session,
		updates: make(chan planner.Update, wsQueueSize),
		done:    make(chan struct{}),
		logger:  h.logger,
	}

	unwatch := session.Watch(client.enqueue)
	total := h.track(client, true)
	h.logger.Debug().Str("session_id", session.ID).Int("clients", total).Msg("Planner websocket connected")

	go client.writeLoop()
	client.readLoop()

	unwatch()
	client.close()
	remaining := h.track(client, false)
	h.logger.Debug().Str("session_id", session.ID).Int("clients", remaining).Msg("Planner websocket disconnected")
}

type wsClient struct {
	conn    *websocket.Conn
	session *planner.Session
	updates chan planner.Update
	resync  atomic.Bool
	done    chan struct{}
	once    sync.Once
	logger  arbor.ILogger
}

// enqueue is the session watcher. It never blocks: when the queue is full
// the client is marked for a full resync instead.
func (c *wsClient) enqueue(update planner.Update) {
	select {
	case <-c.done:
	case c.updates <- update:
	default:
		c.resync.Store(true)
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *wsClient) snapshot() PlannerSnapshot {
	return PlannerSnapshot{
		SessionID: c.session.ID,
		Itinerary: c.session.Itinerary.Itinerary(),
		Map:       c.session.Map.State(),
		Dialog:    c.session.Dialog.Snapshot(),
	}
}

func (c *wsClient) write(msg WSMessage) error {
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	if err := c.write(WSMessage{Type: "snapshot", Payload: c.snapshot()}); err != nil {
		return
	}

	for {
		select {
		case <-c.done:
			return
		case update := <-c.updates:
			if err := c.write(WSMessage{Type: string(update.Kind), Payload: update}); err != nil {
				return
			}
			if len(c.updates) == 0 && c.resync.Swap(false) {
				if err := c.write(WSMessage{Type: "snapshot", Payload: c.snapshot()}); err != nil {
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop applies selection commands until the socket closes
func (c *wsClient) readLoop() {
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.session.Touch(time.Now())
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.reject("invalid message")
			continue
		}
		c.session.Touch(time.Now())
		c.apply(cmd)
	}
}

func (c *wsClient) apply(cmd wsCommand) {
	switch cmd.Action {
	case "add":
		if !c.session.AddPlace(cmd.PlaceID) {
			c.reject("unknown destination: " + cmd.PlaceID)
		}
	case "toggle":
		place, ok := c.session.Catalog.Place(cmd.PlaceID)
		if !ok {
			c.reject("unknown destination: " + cmd.PlaceID)
			return
		}
		c.session.Selection.Toggle(place)
	case "remove":
		c.session.Selection.Remove(cmd.PlaceID)
	case "clear":
		c.session.Selection.Clear()
	default:
		c.reject("unknown action: " + cmd.Action)
	}
}

// reject reports a bad command. Errors go through the update queue so the
// writer stays the only goroutine writing to the socket.
func (c *wsClient) reject(message string) {
	c.logger.Debug().Str("session_id", c.session.ID).Str("error", message).Msg("Planner websocket command rejected")
	c.enqueue(planner.Update{Kind: planner.UpdateError, Error: message})
}
