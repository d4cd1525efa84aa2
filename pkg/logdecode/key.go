// pkg/logdecode/key.go
package logdecode

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// KeySize is the decryption key length in bytes (XSalsa20-Poly1305)
const KeySize = 32

// KeyEnvVar is the environment variable holding the default decryption key
const KeyEnvVar = "LOGOPS_ENCRYPTION_KEY"

// Key is a 32-byte symmetric key. Its String method redacts the value so
// the key never leaks through logging or error formatting.
type Key [KeySize]byte

// String implements fmt.Stringer; the value is always redacted
func (k *Key) String() string { return "[redacted]" }

// Hex returns the hex encoding of the key. Only for explicit output paths
// such as keygen; never log this.
func (k *Key) Hex() string { return hex.EncodeToString(k[:]) }

// ParseKey decodes a key from one of the accepted encodings:
// 64 hex characters, standard base64 of 32 bytes, or 32 raw bytes.
func ParseKey(s string) (*Key, error) {
	if s == "" {
		return nil, ErrNoKey
	}

	var key Key

	if len(s) == hex.EncodedLen(KeySize) {
		if raw, err := hex.DecodeString(s); err == nil {
			copy(key[:], raw)
			return &key, nil
		}
	}

	if raw, err := base64.StdEncoding.DecodeString(s); err == nil && len(raw) == KeySize {
		copy(key[:], raw)
		return &key, nil
	}

	if len(s) == KeySize {
		copy(key[:], s)
		return &key, nil
	}

	return nil, fmt.Errorf("%w (got %d characters)", ErrInvalidKeySize, len(s))
}

// ResolveKey resolves the decryption key from an explicit override or the
// environment default. The getenv function is injected so tests never
// depend on process-wide state.
func ResolveKey(explicit string, getenv func(string) string) (*Key, error) {
	if explicit != "" {
		return ParseKey(explicit)
	}
	if getenv != nil {
		if v := getenv(KeyEnvVar); v != "" {
			return ParseKey(v)
		}
	}
	return nil, ErrNoKey
}

// GenerateKey returns a new random key
func GenerateKey() (*Key, error) {
	var key Key
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &key, nil
}
