package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/peanechestate/estateauth"
)

type envelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// requestError is a client mistake caught before the engine is called.
type requestError struct {
	code    string
	message string
	meta    map[string]string
}

func (e *requestError) Error() string { return e.message }

func invalidJSON(err error) *requestError {
	return &requestError{code: "invalid_json", message: "request body is not valid JSON", meta: map[string]string{"detail": err.Error()}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

// writeError maps engine and request errors onto a status and a stable code.
// Unrecognized errors become a 500 without their text.
func writeError(w http.ResponseWriter, err error) {
	status, payload := classify(err)
	writeJSON(w, status, errorBody{Error: payload})
}

func classify(err error) (int, errorPayload) {
	var re *requestError
	if errors.As(err, &re) {
		return http.StatusBadRequest, errorPayload{Code: re.code, Message: re.message, Meta: re.meta}
	}

	switch {
	case errors.Is(err, estateauth.ErrNotFound):
		return http.StatusNotFound, errorPayload{Code: "user_not_found", Message: err.Error()}
	case errors.Is(err, estateauth.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{Code: "invalid_credentials", Message: err.Error()}
	case errors.Is(err, estateauth.ErrAlreadyExists):
		return http.StatusConflict, errorPayload{Code: "already_exists", Message: err.Error()}
	case errors.Is(err, estateauth.ErrOperationInProgress):
		return http.StatusConflict, errorPayload{Code: "operation_in_progress", Message: err.Error()}
	case errors.Is(err, estateauth.ErrEngineNotReady):
		return http.StatusServiceUnavailable, errorPayload{Code: "not_ready", Message: err.Error()}
	case errors.Is(err, estateauth.ErrSessionPersistence):
		return http.StatusServiceUnavailable, errorPayload{Code: "persistence_failed", Message: "session could not be saved"}
	case errors.Is(err, estateauth.ErrPasswordMismatch):
		return http.StatusBadRequest, errorPayload{Code: "password_mismatch", Message: err.Error()}
	case errors.Is(err, estateauth.ErrRoleInvalid):
		return http.StatusBadRequest, errorPayload{Code: "invalid_role", Message: err.Error()}
	case errors.Is(err, estateauth.ErrRegistrationInvalid):
		return http.StatusBadRequest, errorPayload{Code: "invalid_registration", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorPayload{Code: "internal_error", Message: "internal error"}
	}
}

// decodeJSON reads exactly one JSON value from the body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return invalidJSON(err)
	}

	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalidJSON(err)
	}

	return invalidJSON(errors.New("multiple JSON values"))
}
