package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Outgoing messages buffered per client before it is dropped
	sendBuffer = 64
)

// Message types exchanged over /ws
const (
	MsgHello     = "hello"
	MsgEdit      = "edit"
	MsgCancel    = "cancel"
	MsgCommit    = "commit"
	MsgPending   = "pending"
	MsgCommitted = "committed"
	MsgChanged   = "changed"
	MsgReload    = "reload"
	MsgError     = "error"
)

// ClientMessage is a message received from a browser
type ClientMessage struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Display string `json:"display,omitempty"`
}

// ServerMessage is a message sent to a browser
type ServerMessage struct {
	Type     string                    `json:"type"`
	Session  string                    `json:"session,omitempty"`
	Name     string                    `json:"name,omitempty"`
	Value    *int                      `json:"value,omitempty"`
	Display  string                    `json:"display,omitempty"`
	InSync   *bool                     `json:"inSync,omitempty"`
	Pending  bool                      `json:"pending,omitempty"`
	Applied  *escsettings.Applied      `json:"applied,omitempty"`
	Settings []escsettings.SettingView `json:"settings,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server is meant for the local network; browsers load the UI from
	// other origins such as file:// pages.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is one connected browser with its own pending edits
type session struct {
	id     string
	remote string
	conn   *websocket.Conn
	send   chan []byte

	// mu guards form, which is shared by the read loop and broadcasts
	mu   sync.Mutex
	form *escsettings.Form

	sendMu sync.Mutex
	closed bool
}

// hub tracks connected sessions
type hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newHub() *hub {
	return &hub{sessions: make(map[string]*session)}
}

func (h *hub) add(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
}

func (h *hub) remove(s *session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()
}

func (h *hub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *hub) each(fn func(*session)) {
	h.mu.RLock()
	list := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		list = append(list, s)
	}
	h.mu.RUnlock()

	for _, s := range list {
		fn(s)
	}
}

func (h *hub) closeAll() {
	h.each(func(s *session) { s.close() })
}

// GET /ws
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sess := &session{
		id:     uuid.NewString(),
		remote: r.RemoteAddr,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		form:   s.newForm(),
	}
	s.hub.add(sess)
	logging.LogConnection(sess.remote, "websocket_upgraded")
	logging.Info("WebSocket session started",
		zap.String("session", sess.id),
		zap.String("remote_addr", sess.remote),
	)

	sess.mu.Lock()
	hello := ServerMessage{Type: MsgHello, Session: sess.id, Settings: fieldViews(sess.form)}
	sess.mu.Unlock()
	sess.queue(hello)

	go sess.writePump()
	sess.readPump()

	s.hub.remove(sess)
	sess.close()
	logging.LogConnection(sess.remote, "websocket_closed")
}

// readPump handles client messages until the connection fails
func (c *session) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("Connection closed or error reading message",
					zap.String("session", c.id),
					zap.Error(err),
				)
			}
			return
		}
		logging.LogWebSocketMessage(c.id, "received", data)

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.queue(ServerMessage{Type: MsgError, Error: "invalid message: " + err.Error()})
			continue
		}
		c.queue(c.handle(msg))
	}
}

// handle applies one client message to the session's form and returns the reply
func (c *session) handle(msg ClientMessage) ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Type {
	case MsgEdit:
		if err := c.form.Edit(msg.Name, msg.Display); err != nil {
			return errorMessage(msg.Name, err)
		}
		ff, _ := c.form.Field(msg.Name)
		return ServerMessage{Type: MsgPending, Name: msg.Name, Display: ff.Field.Display(), Pending: true}

	case MsgCancel:
		ff, ok := c.form.Field(msg.Name)
		if !ok {
			// Edit reports why the setting has no field.
			return errorMessage(msg.Name, c.form.Edit(msg.Name, ""))
		}
		ff.Field.Cancel()
		// Pick up commits made by other clients while the edit was pending.
		c.form.SyncField(msg.Name)
		return fieldMessage(MsgPending, ff)

	case MsgCommit:
		applied, err := c.form.Commit(msg.Name)
		if err != nil {
			return errorMessage(msg.Name, err)
		}
		return ServerMessage{Type: MsgCommitted, Name: msg.Name, Applied: &applied}

	default:
		return ServerMessage{Type: MsgError, Name: msg.Name, Error: "unknown message type " + msg.Type}
	}
}

// notify syncs the session with a store write and tells the browser.
// Fields holding a pending edit keep it.
func (c *session) notify(change escsettings.Change) {
	c.mu.Lock()
	var msg ServerMessage
	if change.Reload {
		c.form.Refresh()
		msg = ServerMessage{Type: MsgReload, Settings: fieldViews(c.form)}
	} else {
		ff, ok := c.form.Field(change.Name)
		if !ok {
			// Choice and individual settings have no field; report the write.
			c.mu.Unlock()
			value := change.Value
			c.queue(ServerMessage{Type: MsgChanged, Name: change.Name, Value: &value})
			return
		}
		c.form.SyncField(change.Name)
		msg = fieldMessage(MsgChanged, ff)
		// A pending edit keeps its display; report the stored value anyway.
		if value, inSync, err := c.form.Store().Common(change.Name); err == nil {
			msg.Value, msg.InSync = &value, &inSync
		}
	}
	c.mu.Unlock()
	c.queue(msg)
}

func fieldMessage(kind string, ff *escsettings.FormField) ServerMessage {
	value := ff.Field.Value()
	inSync := ff.Field.InSync()
	return ServerMessage{
		Type:    kind,
		Name:    ff.Desc.Name,
		Value:   &value,
		Display: ff.Field.Display(),
		InSync:  &inSync,
		Pending: ff.Field.Dirty(),
	}
}

func errorMessage(name string, err error) ServerMessage {
	return ServerMessage{Type: MsgError, Name: name, Error: err.Error()}
}

// queue encodes a message for the write pump. A client that cannot keep up
// is disconnected.
func (c *session) queue(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("Failed to encode message", zap.Error(err))
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		logging.Warn("Dropping slow WebSocket client", zap.String("session", c.id))
		c.closed = true
		close(c.send)
	}
}

// writePump writes queued messages and keeps the connection alive with pings
func (c *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			logging.LogWebSocketMessage(c.id, "sent", data)

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close ends the session; the write pump sends a close frame and hangs up
func (c *session) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
