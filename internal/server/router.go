// Package server is the HTTP facade over a single estateauth engine: the
// auth endpoints, the session read, a gate-guarded dashboard, metrics and
// health.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/dispatch"
	"github.com/peanechestate/estateauth/gate"
	"github.com/peanechestate/estateauth/middleware"
)

// DashboardView is the protected view name passed to the gate.
const DashboardView = "dashboard"

type Deps struct {
	Engine *estateauth.Engine
	Logger zerolog.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Health backs /healthz; nil always reports ok.
	Health func(*http.Request) error
}

func NewRouter(deps Deps) (http.Handler, error) {
	if deps.Engine == nil {
		return nil, errors.New("nil engine")
	}

	dispatcher, err := dispatch.New(deps.Engine)
	if err != nil {
		return nil, err
	}

	h := &handlers{
		engine:     deps.Engine,
		dispatcher: dispatcher,
		validate:   newValidator(),
		logger:     deps.Logger,
		health:     deps.Health,
	}
	guard := middleware.Guard(gate.NewFromEngine(deps.Engine), DashboardView)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Get("/", h.landing)
	r.Get("/healthz", h.healthz)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/register", h.register)
		r.Post("/logout", h.logout)
		r.Get("/session", h.currentSession)
	})

	r.With(guard).Get("/dashboard", h.dashboard)

	return r, nil
}

func requestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			event := l.Info()
			if ww.Status() >= 500 {
				event = l.Error()
			} else if ww.Status() >= 400 {
				event = l.Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("latency", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("ip", r.RemoteAddr).
				Msg("http_request")
		})
	}
}
