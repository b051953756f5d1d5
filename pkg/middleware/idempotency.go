package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"MateGuard/pkg/response"
)

// IdemStore 幂等键存储。Set 返回 false 表示窗口内已存在同键请求。
type IdemStore interface {
	Set(key string, ttl time.Duration) bool
}

type memoryIdemStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func newMemoryIdemStore() *memoryIdemStore {
	return &memoryIdemStore{items: map[string]time.Time{}}
}

func (m *memoryIdemStore) Set(key string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if exp, ok := m.items[key]; ok && exp.After(now) {
		return false
	}
	m.items[key] = now.Add(ttl)
	return true
}

func (m *memoryIdemStore) gc() {
	for range time.Tick(time.Minute) {
		m.mu.Lock()
		now := time.Now()
		for k, exp := range m.items {
			if exp.Before(now) {
				delete(m.items, k)
			}
		}
		m.mu.Unlock()
	}
}

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 重复请求的拒绝窗口
	Store      IdemStore     // 可选外部存储（如 Redis）
}

// Idempotency 拦截重复提交。重复触发同一条求助请求不应该重复拉起
// 整条通知链，窗口内的重放直接返回 409。
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	store := cfg.Store
	if store == nil {
		mem := newMemoryIdemStore()
		store = mem
		go mem.gc()
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			// 兜底以请求体哈希作为幂等键
			b, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(strings.NewReader(string(b)))
			h := sha256.Sum256(b)
			key = hex.EncodeToString(h[:])
		}
		if !store.Set(key, cfg.TTL) {
			response.FailWithStatus(c, http.StatusConflict, "duplicate request")
			c.Abort()
			return
		}
		c.Next()
	}
}
