package server

import (
	"context"
	"net"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/dispatch"
	"github.com/peanechestate/estateauth/middleware"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

type registerRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,max=256"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,role"`
}

type sessionView struct {
	User            *estateauth.User `json:"user"`
	IsAuthenticated bool             `json:"isAuthenticated"`
	IsLoading       bool             `json:"isLoading"`
	Phase           string           `json:"phase"`
	View            string           `json:"view"`
}

type dashboardView struct {
	View         string           `json:"view"`
	User         *estateauth.User `json:"user"`
	Capabilities []string         `json:"capabilities"`
}

type handlers struct {
	engine     *estateauth.Engine
	dispatcher *dispatch.Dispatcher
	validate   *validator.Validate
	logger     zerolog.Logger
	health     func(*http.Request) error
}

func (h *handlers) session(state estateauth.AuthState) sessionView {
	return sessionView{
		User:            state.User,
		IsAuthenticated: state.IsAuthenticated,
		IsLoading:       state.IsLoading,
		Phase:           h.engine.Phase().String(),
		View:            dispatch.ViewFor(state).String(),
	}
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, validationError(err))
		return
	}

	err := h.engine.Login(withClientIP(r), estateauth.LoginCredentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	ok(w, h.session(h.engine.State()))
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, validationError(err))
		return
	}

	role, err := estateauth.ParseRole(req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	data := estateauth.RegisterData{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            role,
	}
	if err := data.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.engine.Register(withClientIP(r), data); err != nil {
		writeError(w, err)
		return
	}

	created(w, h.session(h.engine.State()))
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.engine.Logout(withClientIP(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) currentSession(w http.ResponseWriter, _ *http.Request) {
	ok(w, h.session(h.engine.State()))
}

// dashboard renders from the snapshot the guard admitted, so the view and
// the user always belong to the same state.
func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	state, found := middleware.StateFromContext(r.Context())
	if !found {
		state = h.engine.State()
	}

	variant := dispatch.ViewFor(state)
	ok(w, dashboardView{
		View:         variant.String(),
		User:         state.User,
		Capabilities: h.dispatcher.Capabilities(variant),
	})
}

func (h *handlers) landing(w http.ResponseWriter, _ *http.Request) {
	state := h.engine.State()
	ok(w, map[string]any{
		"name":            "Peanech Estate",
		"isAuthenticated": state.IsAuthenticated,
	})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r); err != nil {
			h.logger.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func withClientIP(r *http.Request) context.Context {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return estateauth.WithClientIP(r.Context(), ip)
}
