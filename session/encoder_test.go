package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEncodeUsesRFC3339(t *testing.T) {
	rec := testRecord()
	rec.CreatedAt = rec.CreatedAt.In(time.FixedZone("EET", 2*3600))

	data, err := Encode(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), `"createdAt":"2024-03-01T12:30:00Z"`) {
		t.Fatalf("expected UTC RFC 3339 timestamp, got %s", data)
	}
}

func TestEncodeRequiresIdentity(t *testing.T) {
	rec := testRecord()
	rec.Email = ""
	if _, err := Encode(rec); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeAcceptsMillisecondTimestamps(t *testing.T) {
	raw := `{"id":"2","email":"agent@peanechestate.com","name":"Agent User","role":"agent",` +
		`"createdAt":"2024-01-15T08:00:00.000Z","updatedAt":"2024-01-15T08:00:00.000Z","extra":true}`

	rec, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Role != "agent" || rec.Avatar != "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", rec.CreatedAt.Location())
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"not-json":    "currentUser",
		"array":       `[1,2,3]`,
		"truncated":   `{"id":"1","email":`,
		"missing-id":  `{"email":"a@b.c","role":"admin"}`,
		"blank-email": `{"id":"1","email":"  ","role":"admin"}`,
		"no-role":     `{"id":"1","email":"a@b.c"}`,
		"bad-time":    `{"id":"1","email":"a@b.c","role":"admin","createdAt":"yesterday"}`,
		"time-order":  `{"id":"1","email":"a@b.c","role":"admin","createdAt":"2024-02-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}
