package estateauth

import (
	"context"
	"errors"

	"github.com/peanechestate/estateauth/internal/audit"
)

// Audit types re-exported from the dispatcher package.
type (
	AuditEvent     = audit.Event
	AuditSink      = audit.Sink
	NoOpSink       = audit.NoOpSink
	ChannelSink    = audit.ChannelSink
	JSONWriterSink = audit.JSONWriterSink
	LogSink        = audit.LogSink
)

var (
	NewChannelSink    = audit.NewChannelSink
	NewJSONWriterSink = audit.NewJSONWriterSink
	NewLogSink        = audit.NewLogSink
)

const (
	AuditLoginSuccess       = "login_success"
	AuditLoginFailure       = "login_failure"
	AuditRegisterSuccess    = "register_success"
	AuditRegisterFailure    = "register_failure"
	AuditLogout             = "logout"
	AuditSessionRecovered   = "session_recovered"
	AuditSessionMalformed   = "session_malformed"
	AuditOperationRejected  = "operation_rejected"
	AuditPersistenceFailure = "persistence_failure"
)

// AuditErrorCode is the stable, non-sensitive failure label carried in
// AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrMalformed          AuditErrorCode = "malformed_session"
	auditErrInProgress         AuditErrorCode = "in_progress"
	auditErrNotReady           AuditErrorCode = "not_ready"
	auditErrPersistence        AuditErrorCode = "persistence_failed"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, user *User, err error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if user != nil {
		event.UserID = user.ID
		event.Role = user.Role.String()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAlreadyExists):
		return auditErrDuplicate
	case errors.Is(err, ErrMalformedSession):
		return auditErrMalformed
	case errors.Is(err, ErrOperationInProgress):
		return auditErrInProgress
	case errors.Is(err, ErrEngineNotReady):
		return auditErrNotReady
	case errors.Is(err, ErrSessionPersistence):
		return auditErrPersistence
	default:
		return auditErrInternal
	}
}
