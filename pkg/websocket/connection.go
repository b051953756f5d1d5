package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"MateGuard/pkg/logger"
)

// Connection 表示一个警报通道连接
type Connection struct {
	ID     string
	UserID int64
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: 上线前收紧 Origin 校验
			return true
		},
	}
}

// Serve 把 HTTP 请求升级为警报通道连接并接管读写
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) {
	upgrader := newUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		hub:    h,
		send:   make(chan []byte, h.config.SendBufferSize),
	}
	h.register(c)

	go c.writePump()
	c.readPump()
}

func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageSize)
	deadline := c.hub.config.HeartbeatInterval * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("alert channel read error",
					zap.String("conn_id", c.ID), zap.Error(err))
			}
			return
		}
		c.hub.handleInbound(c, raw)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
