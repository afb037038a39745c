package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// IVSize is the per-message initialization vector length in bytes.
	IVSize = 16

	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16
)

var (
	// ErrTamperedSession is returned when an envelope fails authentication:
	// the ciphertext, tag or key does not match.
	ErrTamperedSession = errors.New("session failed authentication")

	// ErrInvalidEnvelope is returned when a cookie value cannot be decoded
	// into an envelope at all.
	ErrInvalidEnvelope = errors.New("invalid session envelope")
)

// Envelope is the encrypted form of a session. Byte fields are encoded as
// standard base64 by encoding/json.
type Envelope struct {
	IV      []byte `json:"iv"`
	AuthTag []byte `json:"authTag"`
	Data    []byte `json:"data"`
}

// Codec encrypts and decrypts session data with a static key.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a codec for a 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("session key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals data under a fresh IV and returns a cookie-safe string.
func (c *Codec) Encrypt(data Data) (string, error) {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	env, err := c.seal(plaintext)
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decrypt reverses Encrypt. Failures are ErrInvalidEnvelope,
// ErrTamperedSession or an *oauth.SchemaValidationError, in that order of
// checking.
func (c *Codec) Decrypt(value string) (Data, error) {
	env, err := DecodeEnvelope(value)
	if err != nil {
		return Data{}, err
	}

	plaintext, err := c.open(env)
	if err != nil {
		return Data{}, err
	}

	return ParseData(plaintext)
}

// DecodeEnvelope parses a cookie value into an Envelope without decrypting.
func DecodeEnvelope(value string) (*Envelope, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	switch {
	case env.IV == nil:
		return nil, fmt.Errorf("%w: missing iv", ErrInvalidEnvelope)
	case env.AuthTag == nil:
		return nil, fmt.Errorf("%w: missing authTag", ErrInvalidEnvelope)
	case env.Data == nil:
		return nil, fmt.Errorf("%w: missing data", ErrInvalidEnvelope)
	case len(env.IV) != IVSize:
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidEnvelope, IVSize, len(env.IV))
	}

	return &env, nil
}

// Encode returns the cookie-safe representation of the envelope.
func (e *Envelope) Encode() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (c *Codec) seal(plaintext []byte) (*Envelope, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := c.aead.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - TagSize

	return &Envelope{
		IV:      iv,
		AuthTag: sealed[split:],
		Data:    sealed[:split],
	}, nil
}

func (c *Codec) open(env *Envelope) ([]byte, error) {
	if len(env.AuthTag) != TagSize {
		return nil, ErrTamperedSession
	}

	sealed := make([]byte, 0, len(env.Data)+TagSize)
	sealed = append(sealed, env.Data...)
	sealed = append(sealed, env.AuthTag...)

	plaintext, err := c.aead.Open(nil, env.IV, sealed, nil)
	if err != nil {
		return nil, ErrTamperedSession
	}
	return plaintext, nil
}
