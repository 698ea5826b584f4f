package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithm = "argon2id"

	minMemoryKB    uint32 = 8 * 1024
	minTime        uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	// MinLength is the shortest password, in bytes, Hash accepts.
	MinLength = 10
)

var (
	// ErrTooShort is returned by Hash for passwords under MinLength bytes.
	ErrTooShort = errors.New("password too short")
	// ErrMalformedHash is returned when a stored hash is not a PHC argon2id string.
	ErrMalformedHash = errors.New("malformed password hash")
)

var b64 = base64.RawStdEncoding

// Config holds argon2id cost parameters.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Argon2 hashes and verifies passwords. It is safe for concurrent use.
type Argon2 struct {
	config Config
}

type encoded struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// NewArgon2 validates cfg against the minimum cost parameters.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, fmt.Errorf("password memory must be >= %d KB", minMemoryKB)
	case cfg.Time < minTime:
		return nil, errors.New("password time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("password parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, fmt.Errorf("password salt length must be >= %d", minSaltLength)
	case cfg.KeyLength < minKeyLength:
		return nil, fmt.Errorf("password key length must be >= %d", minKeyLength)
	}
	return &Argon2{config: cfg}, nil
}

// Hash returns the PHC encoding of password under a fresh random salt:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
func (a *Argon2) Hash(password string) (string, error) {
	if len(password) < MinLength {
		return "", ErrTooShort
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm, argon2.Version,
		a.config.Memory, a.config.Time, a.config.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

// Verify reports whether password matches hash. A hash that cannot be
// parsed yields [ErrMalformedHash].
func (a *Argon2) Verify(password, hash string) (bool, error) {
	e, err := decode(hash)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(password), e.salt, e.time, e.memory, e.parallelism, uint32(len(e.key)))
	return subtle.ConstantTimeCompare(key, e.key) == 1, nil
}

// NeedsRehash reports whether hash was produced with weaker parameters
// than the configured ones.
func (a *Argon2) NeedsRehash(hash string) (bool, error) {
	e, err := decode(hash)
	if err != nil {
		return false, err
	}

	return e.memory < a.config.Memory ||
		e.time < a.config.Time ||
		e.parallelism < a.config.Parallelism ||
		uint32(len(e.key)) != a.config.KeyLength, nil
}

func decode(hash string) (*encoded, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithm {
		return nil, ErrMalformedHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, parts[2])
	}

	var e encoded
	if err := parseParams(parts[3], &e); err != nil {
		return nil, err
	}

	var err error
	if e.salt, err = b64.DecodeString(parts[4]); err != nil || len(e.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	if e.key, err = b64.DecodeString(parts[5]); err != nil || len(e.key) == 0 {
		return nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}

	return &e, nil
}

func parseParams(s string, e *encoded) error {
	seen := 0
	for _, pair := range strings.Split(s, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: parameter %q", ErrMalformedHash, pair)
		}

		switch name {
		case "m":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || uint32(v) < minMemoryKB {
				return fmt.Errorf("%w: memory", ErrMalformedHash)
			}
			e.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || uint32(v) < minTime {
				return fmt.Errorf("%w: time", ErrMalformedHash)
			}
			e.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(raw, 10, 8)
			if err != nil || uint8(v) < minParallelism {
				return fmt.Errorf("%w: parallelism", ErrMalformedHash)
			}
			e.parallelism = uint8(v)
		default:
			return fmt.Errorf("%w: unknown parameter %q", ErrMalformedHash, name)
		}
		seen++
	}

	if seen != 3 {
		return fmt.Errorf("%w: missing parameters", ErrMalformedHash)
	}
	return nil
}
