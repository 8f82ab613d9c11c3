package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

var (
	// ErrEmptyPassword is returned by Hash when the plaintext is empty.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrMalformedHash wraps every reason a stored hash cannot be decoded.
	ErrMalformedHash = errors.New("malformed password hash")
)

var phcEncoding = base64.RawStdEncoding

// Config holds the Argon2id cost parameters. The zero value is invalid; start
// from DefaultConfig.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the parameters used for account credentials.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes and verifies account credentials. It is safe for concurrent use.
type Argon2 struct {
	config Config
}

// NewArgon2 validates cfg against the minimum cost floor and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Argon2{config: cfg}, nil
}

// Hash derives a PHC-encoded Argon2id secret from password using a fresh
// random salt, so hashing the same plaintext twice yields different secrets.
// The policy is not checked here.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	h := phcHash{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        make([]byte, a.config.SaltLength),
	}
	if _, err := io.ReadFull(rand.Reader, h.salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	h.key = h.derive(password, a.config.KeyLength)

	return h.String(), nil
}

// Verify reports whether password matches encodedHash. The salt and cost
// parameters are read from encodedHash, so secrets produced under older
// parameters keep verifying. A malformed encodedHash is an error wrapping
// ErrMalformedHash, not a mismatch.
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	h, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := h.derive(password, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(computed, h.key) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker parameters
// than the hasher's current configuration.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	h, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	switch {
	case h.memory < a.config.Memory,
		h.time < a.config.Time,
		h.parallelism < a.config.Parallelism,
		uint32(len(h.key)) != a.config.KeyLength:
		return true, nil
	}
	return false, nil
}

// phcHash is one decoded $argon2id$ string.
type phcHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (h phcHash) derive(password string, keyLen uint32) []byte {
	// Raw string bytes are hashed exactly as provided (no Unicode normalization).
	return argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.parallelism, keyLen)
}

func (h phcHash) params() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", h.memory, h.time, h.parallelism)
}

func (h phcHash) String() string {
	return fmt.Sprintf("$%s$v=%d$%s$%s$%s",
		algorithmID, argon2.Version, h.params(),
		phcEncoding.EncodeToString(h.salt), phcEncoding.EncodeToString(h.key))
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedHash, reason)
}

func decodePHC(encoded string) (phcHash, error) {
	var h phcHash

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return h, malformed("not a PHC string")
	}
	if parts[1] != algorithmID {
		return h, malformed("unsupported algorithm")
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return h, malformed("unsupported argon2 version")
	}

	// Sscanf ignores trailing input, so the round trip below rejects extras
	// and reordered fields.
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.parallelism); err != nil || h.params() != parts[3] {
		return h, malformed("invalid parameters")
	}
	if h.memory < minMemoryKB || h.time < minTimeCost || h.parallelism < minParallelism {
		return h, malformed("parameters below minimum")
	}

	var err error
	if h.salt, err = phcEncoding.DecodeString(parts[4]); err != nil || len(h.salt) < int(minSaltLength) {
		return h, malformed("invalid salt")
	}
	if h.key, err = phcEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return h, malformed("invalid key")
	}

	return h, nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.Memory < minMemoryKB:
		return fmt.Errorf("password memory must be >= %d KB", minMemoryKB)
	case cfg.Time < minTimeCost:
		return fmt.Errorf("password time must be >= %d", minTimeCost)
	case cfg.Parallelism < minParallelism:
		return fmt.Errorf("password parallelism must be >= %d", minParallelism)
	case cfg.SaltLength < minSaltLength:
		return fmt.Errorf("password salt length must be >= %d", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return fmt.Errorf("password key length must be >= %d", minKeyLength)
	}
	return nil
}
