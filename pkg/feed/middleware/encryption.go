package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/kiosk/pkg/domain"
	"github.com/aretw0/kiosk/pkg/ports"
)

// SealedShippingKey is the detail key holding the encrypted shipping details.
const SealedShippingKey = "__sealed_shipping__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.OrderPublisher
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the shipping details
// of order events with AES-GCM. Consumers holding the key recover them with
// OpenShipping.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.OrderPublisher) ports.OrderPublisher {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Publish(ctx context.Context, event domain.FeedEvent) error {
	if event.Order == nil {
		return m.next.Publish(ctx, event)
	}

	plainText, err := json.Marshal(event.Order.Shipping)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping details: %w", err)
	}
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt shipping details: %w", err)
	}

	order := *event.Order
	order.Items = append([]string(nil), order.Items...)
	order.Shipping = domain.ShippingDetails{}
	event.Order = &order

	details := make(map[string]string, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	details[SealedShippingKey] = base64.StdEncoding.EncodeToString(ciphertext)
	event.Details = details

	return m.next.Publish(ctx, event)
}

// OpenShipping recovers the shipping details sealed into an order event,
// trying the active key first and then the fallbacks.
func OpenShipping(event domain.FeedEvent, config EncryptionConfig) (domain.ShippingDetails, error) {
	var out domain.ShippingDetails
	sealed, ok := event.Details[SealedShippingKey]
	if !ok {
		return out, errors.New("event is missing sealed shipping details")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return out, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plainText, err := decryptWithRotation(ciphertext, config.ActiveKey, config.FallbackKeys)
	if err != nil {
		return out, fmt.Errorf("failed to decrypt shipping details: %w", err)
	}
	if err := json.Unmarshal(plainText, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal shipping details: %w", err)
	}
	return out, nil
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
