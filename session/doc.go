// Package session provides the persistence surface for the single active
// session handle.
//
// # Storage model
//
// The handle is one JSON object stored under one fixed key:
//
//	{"id":"1","email":"admin@peanechestate.com","name":"Admin User","role":"admin",
//	 "avatar":"...","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}
//
// Timestamps are RFC 3339. [Encode] and [Decode] own the format; [Store]
// implementations move opaque bytes.
//
// # Implementations
//
//   - [RedisStore]: go-redis, optional TTL.
//   - [MemoryStore]: in-process, for tests and embedded use.
//   - [BreakerStore]: wraps another Store in a circuit breaker.
//
// # Architecture boundaries
//
// This package does not import estateauth. Role names are carried as text and
// validated by the caller that converts a [Record] into a user.
package session
