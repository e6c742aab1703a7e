// Package security encrypts session tokens at rest.
package security

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-apiclient/core"
)

const (
	EnvelopePrefix   = "apiclient.secret.v1:"
	envelopeAlg      = "aes-256-gcm"
	defaultKeyID     = "app-key"
	defaultPurpose   = "apiclient.session"
	errorTextCodeKey = "SECURITY_ENVELOPE_INVALID"
)

type Option func(*AppKeySecretProvider)

// AppKeySecretProvider seals values with AES-GCM under an application key.
// Retired keys registered with WithPreviousKey still decrypt.
type AppKeySecretProvider struct {
	keyID    string
	key      []byte
	purpose  string
	previous map[string][]byte
}

type envelope struct {
	KeyID      string `json:"kid"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"n"`
	Ciphertext string `json:"ct"`
}

func WithKeyID(id string) Option {
	return func(provider *AppKeySecretProvider) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			provider.keyID = trimmed
		}
	}
}

// WithPurpose binds ciphertexts to a label; a value sealed for one purpose
// will not open under another.
func WithPurpose(purpose string) Option {
	return func(provider *AppKeySecretProvider) {
		if trimmed := strings.TrimSpace(purpose); trimmed != "" {
			provider.purpose = trimmed
		}
	}
}

func WithPreviousKey(id string, keyMaterial []byte) Option {
	return func(provider *AppKeySecretProvider) {
		id = strings.TrimSpace(id)
		material := bytes.TrimSpace(keyMaterial)
		if id == "" || len(material) == 0 {
			return
		}
		provider.previous[id] = deriveKey(material)
	}
}

func NewAppKeySecretProvider(keyMaterial []byte, opts ...Option) (*AppKeySecretProvider, error) {
	material := bytes.TrimSpace(keyMaterial)
	if len(material) == 0 {
		return nil, securityError("security: key material is required", goerrors.CategoryBadInput, core.ErrorBadInput, nil)
	}
	provider := &AppKeySecretProvider{
		keyID:    defaultKeyID,
		key:      deriveKey(material),
		purpose:  defaultPurpose,
		previous: map[string][]byte{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	delete(provider.previous, provider.keyID)
	return provider, nil
}

func NewAppKeySecretProviderFromString(key string, opts ...Option) (*AppKeySecretProvider, error) {
	return NewAppKeySecretProvider([]byte(key), opts...)
}

func (p *AppKeySecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if p == nil {
		return nil, securityError("security: secret provider is nil", goerrors.CategoryInternal, core.ErrorInternal, nil)
	}
	if len(plaintext) == 0 {
		return nil, securityError("security: plaintext is required", goerrors.CategoryBadInput, core.ErrorBadInput, nil)
	}
	gcm, err := newGCM(p.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, p.additionalData(p.keyID))
	data, err := json.Marshal(envelope{
		KeyID:      p.keyID,
		Algorithm:  envelopeAlg,
		Nonce:      base64.RawURLEncoding.EncodeToString(nonce),
		Ciphertext: base64.RawURLEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return nil, fmt.Errorf("security: encode envelope: %w", err)
	}
	return append([]byte(EnvelopePrefix), data...), nil
}

func (p *AppKeySecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if p == nil {
		return nil, securityError("security: secret provider is nil", goerrors.CategoryInternal, core.ErrorInternal, nil)
	}
	payload, ok := bytes.CutPrefix(bytes.TrimSpace(ciphertext), []byte(EnvelopePrefix))
	if !ok {
		return nil, securityError("security: ciphertext is not a sealed envelope", goerrors.CategoryBadInput, errorTextCodeKey, nil)
	}

	var parsed envelope
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "security: decode envelope").
			WithTextCode(errorTextCodeKey)
	}
	if parsed.Algorithm != envelopeAlg {
		return nil, securityError("security: unsupported envelope algorithm", goerrors.CategoryBadInput, errorTextCodeKey,
			map[string]any{"alg": parsed.Algorithm})
	}
	key, ok := p.keyFor(parsed.KeyID)
	if !ok {
		return nil, securityError("security: unknown key id", goerrors.CategoryBadInput, errorTextCodeKey,
			map[string]any{"kid": parsed.KeyID})
	}

	nonce, err := base64.RawURLEncoding.DecodeString(parsed.Nonce)
	if err != nil {
		return nil, fmt.Errorf("security: decode nonce: %w", err)
	}
	sealed, err := base64.RawURLEncoding.DecodeString(parsed.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("security: decode ciphertext payload: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, securityError("security: nonce has the wrong size", goerrors.CategoryBadInput, errorTextCodeKey, nil)
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, p.additionalData(parsed.KeyID))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "security: envelope authentication failed").
			WithTextCode(errorTextCodeKey)
	}
	return plaintext, nil
}

// IsSealed reports whether value carries the envelope prefix.
func IsSealed(value []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(value), []byte(EnvelopePrefix))
}

func (p *AppKeySecretProvider) KeyID() string {
	if p == nil {
		return ""
	}
	return p.keyID
}

func (p *AppKeySecretProvider) keyFor(id string) ([]byte, bool) {
	if id == "" || id == p.keyID {
		return p.key, true
	}
	key, ok := p.previous[id]
	return key, ok
}

func (p *AppKeySecretProvider) additionalData(keyID string) []byte {
	if keyID == "" {
		keyID = p.keyID
	}
	return []byte(p.purpose + "|" + keyID)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, nil
}

// deriveKey always yields a 32 byte key so every provider is AES-256.
func deriveKey(material []byte) []byte {
	if len(material) == 32 {
		key := make([]byte, 32)
		copy(key, material)
		return key
	}
	sum := sha256.Sum256(material)
	return sum[:]
}

func securityError(message string, category goerrors.Category, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).WithTextCode(textCode)
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

var _ core.SecretProvider = (*AppKeySecretProvider)(nil)
