package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformed is returned by Decode for data that is not a usable record.
var ErrMalformed = errors.New("malformed session record")

// Encode serializes r. Timestamps are normalized to UTC.
func Encode(r Record) ([]byte, error) {
	if r.ID == "" || r.Email == "" || r.Role == "" {
		return nil, fmt.Errorf("%w: id, email and role are required", ErrMalformed)
	}

	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()

	return json.Marshal(r)
}

// Decode parses data produced by Encode, or by any writer of the same JSON
// shape. Unknown fields are ignored; missing identity fields are not.
func Decode(data []byte) (Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Record{}, ErrMalformed
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Role) == "" {
		return Record{}, fmt.Errorf("%w: missing identity fields", ErrMalformed)
	}

	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if !r.CreatedAt.IsZero() && r.UpdatedAt.Before(r.CreatedAt) {
		return Record{}, fmt.Errorf("%w: updatedAt before createdAt", ErrMalformed)
	}

	r.CreatedAt = r.CreatedAt.In(time.UTC)
	r.UpdatedAt = r.UpdatedAt.In(time.UTC)

	return r, nil
}
