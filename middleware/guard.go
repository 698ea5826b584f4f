package middleware

import (
	"context"
	"net/http"

	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/gate"
)

type stateContextKey struct{}

// StateFromContext returns the snapshot the guard admitted the request
// with.
func StateFromContext(ctx context.Context) (estateauth.AuthState, bool) {
	s, ok := ctx.Value(stateContextKey{}).(estateauth.AuthState)
	return s, ok
}

// Guard protects view with g. Allowed requests reach next with the
// evaluated snapshot in their context. Denied requests are redirected with
// 303 See Other. While the session is loading the guard answers 503 with
// Retry-After so the client shows a loading state instead of bouncing to
// the landing page.
func Guard(g *gate.Gate, view string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			verdict := g.CanEnter(view)
			switch verdict.Outcome {
			case gate.Allow:
				ctx := context.WithValue(r.Context(), stateContextKey{}, verdict.State)
				next.ServeHTTP(w, r.WithContext(ctx))
			case gate.Deny:
				http.Redirect(w, r, verdict.RedirectTo, http.StatusSeeOther)
			default:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session loading", http.StatusServiceUnavailable)
			}
		})
	}
}
