// Package gate decides whether the current session may enter a protected
// view.
//
// The policy is small: [Pending] while the session is loading, [Deny] with
// a redirect to the public landing view when unauthenticated, [Allow]
// otherwise. [CanEnter] is the pure form; [Gate] binds it to a live engine.
package gate
