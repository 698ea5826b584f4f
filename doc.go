// Package estateauth is the session and authorization engine behind the
// Peanech Estate front-end: one process-wide authentication state, login and
// registration against a user directory, and session recovery across
// restarts.
//
// An [Engine] is built with [New] and [Builder.Build], then started with
// [Engine.Recover]. Its [AuthState] snapshots are immutable; readers such as
// the gate and dispatch packages call [Engine.State] on every evaluation.
//
// # Architecture boundaries
//
// estateauth is the public surface. It owns [User], [Role], [Directory],
// [CredentialVerifier] and the engine. Persistence lives in package session,
// view guarding in gate and middleware, role views in dispatch. None of
// those are imported here except session.
//
// # What this package must NOT do
//
//   - Keep a package-level engine. Every engine is constructed and injected.
//   - Store or log passwords.
//   - Import gate, dispatch, middleware or any exporter (no import cycles).
package estateauth
