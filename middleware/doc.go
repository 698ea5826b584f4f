// Package middleware adapts the authorization gate to net/http.
//
// [Guard] turns a gate verdict into a response: the wrapped handler for
// Allow, a redirect for Deny, and 503 with Retry-After for Pending. It makes
// no decision of its own.
package middleware
