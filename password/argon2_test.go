package password

import (
	"errors"
	"strings"
	"testing"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("password123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify("password123", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}

	ok, err = hasher.Verify("password124", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestHashSaltsEveryCall(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	first, _ := hasher.Hash("same-password")
	second, _ := hasher.Hash("same-password")
	if first == second {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := hasher.Hash("short"); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := fastConfig()
			mutate(&cfg)
			if _, err := NewArgon2(cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, _ := NewArgon2(fastConfig())
	hash, err := weak.Hash("password123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastConfig()
	stronger.Time = 2
	strong, _ := NewArgon2(stronger)

	needs, err := strong.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash error: %v", err)
	}
	if !needs {
		t.Fatal("expected rehash for weaker parameters")
	}

	needs, err = weak.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash error: %v", err)
	}
	if needs {
		t.Fatal("expected no rehash for matching parameters")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher, _ := NewArgon2(fastConfig())

	malformed := []string{
		"",
		"plain-text",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1,x=2$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
	}

	for _, h := range malformed {
		if _, err := hasher.Verify("password123", h); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("expected ErrMalformedHash for %q, got %v", h, err)
		}
	}
}
