package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/config"
)

// Server upgrades HTTP requests to feed subscriptions.
type Server struct {
	cfg      config.FeedConfig
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new feed server.
func NewServer(cfg config.FeedConfig, h *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := config.Default().Feed
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	return &Server{
		cfg:    cfg,
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Dashboard is served from a different origin.
				return true
			},
		},
	}
}

// HandleWebSocket handles GET /v1/feed?session_id=. Without session_id the
// connection receives events from every session.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return nil
	}

	sessionID := c.QueryParam("session_id")
	conn := s.hub.NewConnection(ws, sessionID)
	if !s.hub.Register(conn) {
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		ws.Close()
		return nil
	}

	if s.cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(s.cfg.MaxMessageSize)
	}

	go s.writePump(conn)
	go s.readPump(conn)

	_ = s.hub.SendJSON(conn, SubscribeFrame{
		BaseFrame: BaseFrame{Type: TypeSubscribed, Ts: time.Now().UnixMilli(), SessionID: sessionID},
	})
	return nil
}

// readPump reads subscribe frames until the connection drops.
func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	_ = conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Debug("feed websocket error", zap.String("connection_id", conn.ID), zap.Error(err))
			}
			return
		}
		s.handleFrame(conn, message)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("failed to write feed frame", zap.String("connection_id", conn.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleFrame(conn *Connection, data []byte) {
	var base BaseFrame
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, "invalid JSON frame")
		return
	}

	switch base.Type {
	case TypeSubscribe:
		s.hub.BindSession(conn, base.SessionID)
		_ = s.hub.SendJSON(conn, SubscribeFrame{
			BaseFrame: BaseFrame{Type: TypeSubscribed, Ts: time.Now().UnixMilli(), SessionID: base.SessionID},
		})
	default:
		s.sendError(conn, "unknown frame type: "+base.Type)
	}
}

func (s *Server) sendError(conn *Connection, message string) {
	_ = s.hub.SendJSON(conn, ErrorFrame{
		BaseFrame: BaseFrame{Type: TypeError, Ts: time.Now().UnixMilli()},
		Code:      ErrorCodeInvalidFrame,
		Message:   message,
	})
}
