package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/mail"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

// Conn represents a single widget WebSocket connection.
type Conn struct {
	ID          string
	Site        string
	SessionID   string
	WS          *websocket.Conn
	writeMu     sync.Mutex
	seq         int
	ConnectedAt time.Time
}

// Send writes a frame to the WebSocket connection (thread-safe).
func (c *Conn) Send(frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.WS.WriteJSON(frame)
}

// PushEvent sends an event frame with the connection's next sequence number.
func (c *Conn) PushEvent(event string, payload any) {
	c.writeMu.Lock()
	c.seq++
	seq := c.seq
	c.writeMu.Unlock()
	if err := c.Send(EventFrame(event, seq, payload)); err != nil {
		slog.Warn("event push failed", "conn", c.ID, "event", event, "error", err)
	}
}

// ConnManager tracks all active widget connections.
type ConnManager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewConnManager() *ConnManager {
	return &ConnManager{conns: make(map[string]*Conn)}
}

func (m *ConnManager) Add(conn *Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[conn.ID] = conn
}

func (m *ConnManager) Remove(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, connID)
}

// Count returns the number of connected widgets.
func (m *ConnManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// connCaps realizes tool side effects over a live widget connection.
// OpenExternal becomes a browser.open_url event and Navigate a
// browser.navigate event, both handled by the widget; SendContact delivers
// through the mail service directly.
type connCaps struct {
	conn *Conn
	mail *mail.Service
}

func (c *connCaps) OpenExternal(rawURL string) {
	c.conn.PushEvent("browser.open_url", OpenURLPayload{URL: rawURL})
}

// Navigate always reports the section as available: the server cannot see the
// host page, and canonical section ids are validated before it is called.
func (c *connCaps) Navigate(section string) bool {
	c.conn.PushEvent("browser.navigate", NavigatePayload{Section: section})
	return true
}

func (c *connCaps) SendContact(ctx context.Context, payload tool.ContactPayload) (bool, string) {
	status, err := c.mail.Deliver(ctx, mail.Payload{
		Name:    payload.Name,
		Email:   payload.Email,
		Subject: payload.Subject,
		Message: payload.Message,
	})
	if err != nil {
		return false, err.Error()
	}
	return true, status
}

// ReadFrame reads and parses a WebSocket message into a Frame.
func ReadFrame(ws *websocket.Conn) (Frame, error) {
	var frame Frame
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return frame, err
	}
	err = json.Unmarshal(msg, &frame)
	return frame, err
}
