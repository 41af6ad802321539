package persist

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCorrupt marks stored data that could not be decoded or parsed.
var ErrCorrupt = errors.New("persisted data corrupt")

// Codec turns serialized bytes into the opaque string written to storage.
type Codec interface {
	Encode(plain []byte) (string, error)
	Decode(encoded string) ([]byte, error)
}

var (
	_ Codec = (*Obfuscator)(nil)
	_ Codec = (*Sealer)(nil)
)

// Obfuscator is a reversible, non-cryptographic Codec.
type Obfuscator struct {
	pad [sha256.Size]byte
}

// NewObfuscator derives the XOR pad from key (normally the storage key).
func NewObfuscator(key string) *Obfuscator {
	return &Obfuscator{pad: sha256.Sum256([]byte("jobstate/obfuscate:" + key))}
}

// Encode implements Codec.
func (o *Obfuscator) Encode(plain []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(o.xor(plain)), nil
}

// Decode implements Codec.
func (o *Obfuscator) Decode(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrCorrupt, err)
	}
	return o.xor(data), nil
}

func (o *Obfuscator) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ o.pad[i%len(o.pad)]
	}
	return out
}

// Sealer is an authenticated-encryption Codec (XChaCha20-Poly1305).
// Each Encode uses a fresh random nonce, prefixed to the ciphertext.
type Sealer struct {
	key []byte
	aad []byte
}

// NewSealer derives a 256-bit key from secret. aad binds ciphertexts to a
// context (normally the storage key) so a record cannot be replayed under
// another key.
func NewSealer(secret []byte, aad string) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, errors.New("sealer: empty secret")
	}
	key := sha256.Sum256(secret)
	return &Sealer{key: key[:], aad: []byte(aad)}, nil
}

// Encode implements Codec.
func (s *Sealer) Encode(plain []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", fmt.Errorf("sealer: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sealer: nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plain, s.aad)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode implements Codec.
func (s *Sealer) Decode(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrCorrupt, err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("sealer: %w", err)
	}
	if len(data) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrCorrupt)
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, s.aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plain, nil
}
