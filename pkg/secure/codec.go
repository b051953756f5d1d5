package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"strings"
)

const (
	// 两种存储格式的前缀，新旧格式可共存、互相可读
	EncryptedPrefix = "enc:"
	FallbackPrefix  = "plain:"

	nonceSize = 12
	keySize   = 32
)

// Codec encrypts values at rest. The primary format is AES-GCM tagged
// "enc:"; when no usable key is available values are stored as tagged
// base64 ("plain:") so reads remain possible on crippled platforms.
// Decrypt understands both formats regardless of which path wrote them.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a codec from 32-byte key material. A nil or malformed
// key yields a fallback-only codec instead of an error.
func NewCodec(key []byte) *Codec {
	if len(key) != keySize {
		return &Codec{}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return &Codec{}
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return &Codec{}
	}
	return &Codec{aead: aead}
}

// NewKey generates fresh key material.
func NewKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt returns the tagged ciphertext for value.
func (c *Codec) Encrypt(value string) string {
	if c.aead == nil {
		return FallbackPrefix + base64.StdEncoding.EncodeToString([]byte(value))
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return FallbackPrefix + base64.StdEncoding.EncodeToString([]byte(value))
	}
	sealed := c.aead.Seal(nil, nonce, []byte(value), nil)
	buf := make([]byte, 0, len(nonce)+len(sealed))
	buf = append(buf, nonce...)
	buf = append(buf, sealed...)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(buf)
}

// Decrypt reverses Encrypt. The second return is false when the value is
// missing or garbled; callers treat that as "no data", never as a fault.
func (c *Codec) Decrypt(value string) (string, bool) {
	if value == "" {
		return "", false
	}

	if strings.HasPrefix(value, FallbackPrefix) {
		raw, err := base64.StdEncoding.DecodeString(value[len(FallbackPrefix):])
		if err != nil {
			return "", false
		}
		return string(raw), true
	}

	if !strings.HasPrefix(value, EncryptedPrefix) {
		// 无前缀的历史数据按明文处理
		return value, true
	}

	if c.aead == nil {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(value[len(EncryptedPrefix):])
	if err != nil || len(raw) < nonceSize {
		return "", false
	}
	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}
