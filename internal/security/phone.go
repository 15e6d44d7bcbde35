package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// PhoneCodec protects phone numbers at rest
type PhoneCodec interface {
	Seal(phone string) (string, error)
	Open(sealed string) (string, error)
}

// PhoneCipher encrypts phone numbers with AES-GCM
type PhoneCipher struct {
	aead cipher.AEAD
}

// NewPhoneCipher creates a cipher. Key must be 16, 24, or 32 bytes.
func NewPhoneCipher(key []byte) (*PhoneCipher, error) {
	keyLen := len(key)
	if keyLen != 16 && keyLen != 24 && keyLen != 32 {
		return nil, fmt.Errorf("invalid key length: %d (must be 16, 24, or 32)", keyLen)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &PhoneCipher{aead: aead}, nil
}

// Seal encrypts and returns base64 nonce||ciphertext
func (c *PhoneCipher) Seal(phone string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(phone), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal
func (c *PhoneCipher) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plain), nil
}

// PlainPhones stores phone numbers unencrypted, for local development
type PlainPhones struct{}

func (PlainPhones) Seal(phone string) (string, error)  { return phone, nil }
func (PlainPhones) Open(sealed string) (string, error) { return sealed, nil }

// MaskPhone hides the middle digits for logging: 0912345678 -> 091****678
func MaskPhone(phone string) string {
	if len(phone) < 7 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:3] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-3:]
}
