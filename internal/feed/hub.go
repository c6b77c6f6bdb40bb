// Package feed streams activity events to dashboard clients over WebSocket.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/domain"
)

const sendBuffer = 256

// ErrBufferFull is returned when a connection's send buffer is full.
var ErrBufferFull = errors.New("send buffer full")

// ErrNotRegistered is returned when sending to a connection the hub dropped.
var ErrNotRegistered = errors.New("connection not registered")

// Connection represents a single WebSocket subscriber.
type Connection struct {
	ID        string
	SessionID string // empty means every session
	Conn      *websocket.Conn
	Send      chan []byte
	mu        sync.Mutex
}

// Hub fans activity events out to subscribed connections. A single
// goroutine (Run) owns registration and delivery.
type Hub struct {
	connections map[string]*Connection
	// sessions maps session_id to set of connection IDs
	sessions map[string]map[string]bool
	// all holds connections subscribed to every session
	all map[string]bool

	register   chan registration
	unregister chan *Connection
	broadcast  chan *sessionFrame
	done       chan struct{}

	logger *zap.Logger
	mu     sync.RWMutex
}

type registration struct {
	conn *Connection
	ack  chan struct{}
}

type sessionFrame struct {
	SessionID string
	Data      []byte
}

// NewHub creates a new Hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]bool),
		all:         make(map[string]bool),
		register:    make(chan registration),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *sessionFrame, sendBuffer),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled. On exit
// every connection's send channel is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, conn := range h.connections {
				close(conn.Send)
				delete(h.connections, id)
			}
			h.sessions = make(map[string]map[string]bool)
			h.all = make(map[string]bool)
			h.mu.Unlock()
			return

		case reg := <-h.register:
			conn := reg.conn
			h.mu.Lock()
			h.connections[conn.ID] = conn
			sessionID := conn.SessionID
			h.bindLocked(conn, sessionID)
			h.mu.Unlock()
			close(reg.ack)
			h.logger.Debug("feed connection registered",
				zap.String("connection_id", conn.ID), zap.String("session_id", sessionID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				h.unbindLocked(conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			h.logger.Debug("feed connection unregistered", zap.String("connection_id", conn.ID))

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Connection
			for _, conn := range h.subscribersLocked(msg.SessionID) {
				select {
				case conn.Send <- msg.Data:
				default:
					slow = append(slow, conn)
				}
			}
			h.mu.RUnlock()
			for _, conn := range slow {
				h.logger.Warn("feed connection buffer full, closing", zap.String("connection_id", conn.ID))
				h.dropSlow(conn)
			}
		}
	}
}

// dropSlow removes a connection from inside the Run loop.
func (h *Hub) dropSlow(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; ok {
		delete(h.connections, conn.ID)
		h.unbindLocked(conn)
		close(conn.Send)
	}
}

// NewConnection creates a connection bound to sessionID. It is not
// registered until Register is called.
func (h *Hub) NewConnection(ws *websocket.Conn, sessionID string) *Connection {
	return &Connection{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Conn:      ws,
		Send:      make(chan []byte, sendBuffer),
	}
}

// Register registers a connection with the hub and waits until it is
// visible to broadcasts. It returns false when the hub has stopped.
func (h *Hub) Register(conn *Connection) bool {
	reg := registration{conn: conn, ack: make(chan struct{})}
	select {
	case h.register <- reg:
	case <-h.done:
		return false
	}
	<-reg.ack
	return true
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BindSession moves a registered connection to another session.
func (h *Hub) BindSession(conn *Connection, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	h.unbindLocked(conn)
	h.bindLocked(conn, sessionID)
}

func (h *Hub) bindLocked(conn *Connection, sessionID string) {
	conn.SessionID = sessionID
	if sessionID == "" {
		h.all[conn.ID] = true
		return
	}
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]bool)
	}
	h.sessions[sessionID][conn.ID] = true
}

func (h *Hub) unbindLocked(conn *Connection) {
	delete(h.all, conn.ID)
	if conn.SessionID != "" && h.sessions[conn.SessionID] != nil {
		delete(h.sessions[conn.SessionID], conn.ID)
		if len(h.sessions[conn.SessionID]) == 0 {
			delete(h.sessions, conn.SessionID)
		}
	}
}

func (h *Hub) subscribersLocked(sessionID string) []*Connection {
	var out []*Connection
	for id := range h.all {
		if conn, ok := h.connections[id]; ok {
			out = append(out, conn)
		}
	}
	if sessionID != "" {
		for id := range h.sessions[sessionID] {
			if conn, ok := h.connections[id]; ok {
				out = append(out, conn)
			}
		}
	}
	return out
}

// HasSubscribers reports whether an event for sessionID would reach anyone.
func (h *Hub) HasSubscribers(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.all) > 0 {
		return true
	}
	return sessionID != "" && len(h.sessions[sessionID]) > 0
}

// Notify queues ev for delivery and reports whether any subscriber was
// listening. Delivery never blocks the caller; frames are dropped when the
// hub is saturated or stopped.
func (h *Hub) Notify(sessionID string, ev *domain.Event) bool {
	if !h.HasSubscribers(sessionID) {
		return false
	}
	data, err := json.Marshal(EventFrame{
		BaseFrame: BaseFrame{Type: TypeEvent, Ts: time.Now().UnixMilli(), SessionID: sessionID},
		Event:     ev,
	})
	if err != nil {
		h.logger.Warn("failed to encode feed event", zap.Error(err))
		return false
	}
	select {
	case h.broadcast <- &sessionFrame{SessionID: sessionID, Data: data}:
		return true
	case <-h.done:
		return false
	default:
		h.logger.Warn("feed broadcast queue full, dropping event", zap.String("event_id", ev.EventID))
		return false
	}
}

// SendJSON sends a JSON frame to a single registered connection.
func (h *Hub) SendJSON(conn *Connection, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	// Send is closed under the write lock; hold the read lock while sending.
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.connections[conn.ID]; !ok {
		return ErrNotRegistered
	}
	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
