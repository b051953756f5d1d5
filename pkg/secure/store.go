package secure

import (
	"encoding/base64"
	"sync"
	"time"

	"gorm.io/gorm"

	"MateGuard/pkg/errors"
	"MateGuard/pkg/logger"

	"go.uber.org/zap"
)

const keyMaterialKey = "secure_storage_key"

// KV 密文的底层存取接口，按键读写，不关心格式
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Entry 加密键值表
type Entry struct {
	Key       string `gorm:"primaryKey;size:190"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "secure_entries" }

// GormKV stores ciphertext rows in the database.
type GormKV struct {
	db *gorm.DB
}

func NewGormKV(db *gorm.DB) (*GormKV, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, errors.Wrap(err, "migrate secure entries")
	}
	return &GormKV{db: db}, nil
}

func (g *GormKV) Get(key string) (string, bool) {
	var e Entry
	if err := g.db.First(&e, "key = ?", key).Error; err != nil {
		return "", false
	}
	return e.Value, true
}

func (g *GormKV) Set(key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	return g.db.Save(&e).Error
}

// MemoryKV is an in-memory KV used by tests and as a last-resort fallback
// when the database is unavailable.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Store is the secure context store: plaintext in, tagged ciphertext at
// rest. Key material is generated once and persisted alongside the data.
type Store struct {
	kv    KV
	codec *Codec
}

// NewStore loads or creates the device key and wires the codec. Failure
// to obtain a key degrades to the tagged-plaintext format rather than
// failing construction.
func NewStore(kv KV) *Store {
	return &Store{kv: kv, codec: NewCodec(loadOrCreateKey(kv))}
}

func loadOrCreateKey(kv KV) []byte {
	if stored, ok := kv.Get(keyMaterialKey); ok {
		if raw, err := base64.StdEncoding.DecodeString(stored); err == nil && len(raw) == keySize {
			return raw
		}
		logger.Warn("secure store key material unreadable, regenerating")
	}

	key, err := NewKey()
	if err != nil {
		logger.Warn("secure store key generation failed, falling back to tagged plaintext", zap.Error(err))
		return nil
	}
	if err := kv.Set(keyMaterialKey, base64.StdEncoding.EncodeToString(key)); err != nil {
		logger.Warn("secure store key persist failed", zap.Error(err))
	}
	return key
}

// Get returns the decrypted value. Missing or garbled entries read as
// "no data" so callers never crash on corruption.
func (s *Store) Get(key string) (string, bool) {
	raw, ok := s.kv.Get(key)
	if !ok {
		return "", false
	}
	return s.codec.Decrypt(raw)
}

// Set encrypts and persists the value.
func (s *Store) Set(key, value string) error {
	return s.kv.Set(key, s.codec.Encrypt(value))
}
