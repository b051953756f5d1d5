package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"MateGuard/pkg/logger"
)

// Message 警报实时通道上的消息结构
type Message struct {
	Type      string      `json:"type"` // alert_created | alert_escalated | ack | ack_result
	AlertID   string      `json:"alert_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Config WebSocket通道配置
type Config struct {
	// 心跳间隔
	HeartbeatInterval time.Duration
	// 写超时
	WriteTimeout time.Duration
	// 发送缓冲区大小
	SendBufferSize int
	// 最大消息大小
	MaxMessageSize int64
}

func DefaultConfig() *Config {
	return &Config{
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      10 * time.Second,
		SendBufferSize:    16,
		MaxMessageSize:    4096,
	}
}

// AckFunc 收到客户端 ack 消息时回调，返回该警报是否存在
type AckFunc func(alertID string) bool

// Hub 按用户管理警报通道连接。警报创建与升级事件推送给该用户的全部
// 在线连接；任一连接发来的 ack 走回调进入正常确认流程。
type Hub struct {
	config *Config
	onAck  AckFunc

	mu        sync.RWMutex
	conns     map[string]*Connection
	userConns map[int64]map[string]*Connection
}

func NewHub(cfg *Config, onAck AckFunc) *Hub {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Hub{
		config:    cfg,
		onAck:     onAck,
		conns:     make(map[string]*Connection),
		userConns: make(map[int64]map[string]*Connection),
	}
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
	if h.userConns[c.UserID] == nil {
		h.userConns[c.UserID] = make(map[string]*Connection)
	}
	h.userConns[c.UserID][c.ID] = c
	logger.Info("alert channel connected",
		zap.String("conn_id", c.ID), zap.Int64("user_id", c.UserID))
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	delete(h.conns, c.ID)
	if set := h.userConns[c.UserID]; set != nil {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(h.userConns, c.UserID)
		}
	}
	close(c.send)
}

// PushToUser 向用户的所有在线连接推送一条消息。没有在线连接时静默
// 丢弃，通知链本身不依赖这条实时通道。
func (h *Hub) PushToUser(userID int64, msg *Message) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		logger.Warn("marshal channel message failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.userConns[userID] {
		select {
		case c.send <- raw:
		default:
			// 慢消费者直接丢弃，不阻塞推送方
			logger.Warn("alert channel backpressure, message dropped",
				zap.String("conn_id", c.ID), zap.Int64("user_id", userID))
		}
	}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) handleInbound(c *Connection, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warn("unreadable channel message",
			zap.String("conn_id", c.ID), zap.Error(err))
		return
	}
	switch msg.Type {
	case "ack":
		ok := false
		if h.onAck != nil && msg.AlertID != "" {
			ok = h.onAck(msg.AlertID)
		}
		h.PushToUser(c.UserID, &Message{
			Type:    "ack_result",
			AlertID: msg.AlertID,
			Data:    map[string]bool{"accepted": ok},
		})
	default:
		// 未知类型忽略，协议向前兼容
	}
}
