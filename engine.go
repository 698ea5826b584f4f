package estateauth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/peanechestate/estateauth/internal/audit"
	"github.com/peanechestate/estateauth/session"
)

// Engine owns the process-wide [AuthState]. It is the only mutator of that
// state; every other component reads it through [Engine.State] or an
// observer registered with [Engine.Subscribe].
//
// At most one operation runs at a time. Login and Register are rejected
// with [ErrOperationInProgress] while another operation is in flight;
// Logout and Recover wait for it to settle. A started operation is never
// cancelled: the verifier and the persistence write run to completion even
// if the caller's context is done.
type Engine struct {
	config    Config
	store     session.Store
	directory Directory
	verifier  CredentialVerifier
	logger    zerolog.Logger
	audit     *audit.Dispatcher
	metrics   *Metrics
	now       func() time.Time

	op    sync.Mutex
	state atomic.Pointer[AuthState]
	phase atomic.Uint32

	obsMu     sync.Mutex
	observers []observer
	nextObs   uint64
}

type observer struct {
	id uint64
	fn func(AuthState)
}

func (e *Engine) init() {
	e.state.Store(initialState())
	e.phase.Store(uint32(PhaseUninitialized))
}

// State returns the current snapshot. The User it points to is shared and
// must not be modified.
func (e *Engine) State() AuthState {
	return *e.state.Load()
}

// Phase returns the state-machine position.
func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

// Directory returns the identity registry the verifier checks against.
func (e *Engine) Directory() Directory {
	return e.directory
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Subscribe registers fn to be called synchronously, in order, with every
// new snapshot, including intermediate loading snapshots. fn runs with the
// engine's operation lock held and must not call Logout or Recover.
// The returned function removes the observer and is safe to call twice.
func (e *Engine) Subscribe(fn func(AuthState)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	e.obsMu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers = append(e.observers, observer{id: id, fn: fn})
	e.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.obsMu.Lock()
			e.observers = slices.DeleteFunc(e.observers, func(o observer) bool { return o.id == id })
			e.obsMu.Unlock()
		})
	}
}

// publish swaps in next and notifies observers. Callers hold e.op, which
// is what orders notifications.
func (e *Engine) publish(next *AuthState) {
	e.state.Store(next)
	if !next.IsLoading {
		if next.IsAuthenticated {
			e.phase.Store(uint32(PhaseAuthenticated))
		} else {
			e.phase.Store(uint32(PhaseUnauthenticated))
		}
	}

	e.obsMu.Lock()
	observers := slices.Clone(e.observers)
	e.obsMu.Unlock()

	snapshot := *next
	for _, o := range observers {
		o.fn(snapshot)
	}
}

func (e *Engine) settled() bool {
	p := e.Phase()
	return p == PhaseUnauthenticated || p == PhaseAuthenticated
}

/*
====================================
RECOVER
====================================
*/

// Recover restores the persisted session, once per engine. A present,
// well-formed handle yields {user, true, false}. A missing, malformed or
// unreadable handle yields {nil, false, false}; Recover never fails.
// Calls after the first return the current state without reading.
func (e *Engine) Recover(ctx context.Context) AuthState {
	e.op.Lock()
	defer e.op.Unlock()

	if e.settled() {
		return e.State()
	}

	e.phase.Store(uint32(PhaseRecovering))
	next := e.recoverState(context.WithoutCancel(ctx))
	e.publish(next)

	return *next
}

func (e *Engine) recoverState(ctx context.Context) *AuthState {
	data, err := e.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			e.metricInc(MetricSessionAbsent)
			e.logger.Debug().Msg("no persisted session")
			return anonymousState()
		}
		e.metricInc(MetricPersistenceFailure)
		e.logger.Warn().Err(err).Msg("session read failed, starting unauthenticated")
		return anonymousState()
	}

	user, err := decodeUser(data)
	if err != nil {
		e.metricInc(MetricSessionMalformed)
		e.logger.Warn().Err(err).Msg("discarding malformed persisted session")
		e.emitAudit(ctx, AuditSessionMalformed, false, nil, err, nil)
		return anonymousState()
	}

	e.metricInc(MetricSessionRecovered)
	e.logger.Info().Str("user_id", user.ID).Stringer("role", user.Role).Msg("session recovered")
	e.emitAudit(ctx, AuditSessionRecovered, true, &user, nil, nil)

	return authenticatedState(user)
}

/*
====================================
LOGIN / REGISTER
====================================
*/

type operation struct {
	name     string
	success  MetricID
	failure  MetricID
	auditOK  string
	auditErr string
}

var (
	opLogin = operation{
		name:     "login",
		success:  MetricLoginSuccess,
		failure:  MetricLoginFailure,
		auditOK:  AuditLoginSuccess,
		auditErr: AuditLoginFailure,
	}
	opRegister = operation{
		name:     "register",
		success:  MetricRegisterSuccess,
		failure:  MetricRegisterFailure,
		auditOK:  AuditRegisterSuccess,
		auditErr: AuditRegisterFailure,
	}
)

// Login verifies creds and, on success, persists and publishes the
// authenticated session. Verifier failures ([ErrNotFound],
// [ErrInvalidCredentials]) are returned unchanged after IsLoading has been
// cleared; the previous user, if any, stays signed in.
func (e *Engine) Login(ctx context.Context, creds LoginCredentials) error {
	return e.authenticate(ctx, opLogin, creds.Email, func(ctx context.Context) (User, error) {
		return e.verifier.VerifyLogin(ctx, creds)
	})
}

// Register creates a user through the verifier and signs them in. It has
// the same shape as [Engine.Login]; [ErrAlreadyExists] is the expected
// failure.
func (e *Engine) Register(ctx context.Context, data RegisterData) error {
	return e.authenticate(ctx, opRegister, data.Email, func(ctx context.Context) (User, error) {
		return e.verifier.VerifyRegistration(ctx, data)
	})
}

func (e *Engine) authenticate(ctx context.Context, op operation, email string, verify func(context.Context) (User, error)) error {
	if !e.op.TryLock() {
		e.metricInc(MetricOperationRejected)
		e.emitAudit(ctx, AuditOperationRejected, false, nil, ErrOperationInProgress, map[string]string{"operation": op.name})
		return ErrOperationInProgress
	}
	defer e.op.Unlock()

	if !e.settled() {
		return ErrEngineNotReady
	}

	ctx = context.WithoutCancel(ctx)
	prev := e.state.Load()
	e.publish(prev.loading())

	start := e.now()
	user, err := verify(ctx)
	e.metrics.Observe(MetricVerifyLatency, e.now().Sub(start))

	if err != nil {
		e.publish(prev.settled())
		e.metricInc(op.failure)
		e.logger.Info().Err(err).Str("operation", op.name).Str("email", email).Msg("verification failed")
		e.emitAudit(ctx, op.auditErr, false, nil, err, map[string]string{"email": email})
		return err
	}

	if err := e.persist(ctx, user); err != nil {
		e.publish(prev.settled())
		e.metricInc(op.failure)
		e.metricInc(MetricPersistenceFailure)
		e.logger.Error().Err(err).Str("operation", op.name).Str("user_id", user.ID).Msg("session write failed")
		e.emitAudit(ctx, AuditPersistenceFailure, false, &user, ErrSessionPersistence, map[string]string{"operation": op.name})
		return fmt.Errorf("%w: %w", ErrSessionPersistence, err)
	}

	e.publish(authenticatedState(user))
	e.metricInc(op.success)
	e.logger.Info().Str("operation", op.name).Str("user_id", user.ID).Stringer("role", user.Role).Msg("session started")
	e.emitAudit(ctx, op.auditOK, true, &user, nil, nil)

	return nil
}

func (e *Engine) persist(ctx context.Context, user User) error {
	data, err := encodeUser(user)
	if err != nil {
		return err
	}
	return e.store.Save(ctx, data)
}

/*
====================================
LOGOUT
====================================
*/

// Logout clears the persisted handle and publishes {nil, false, false}.
// A failed delete is logged; Logout itself never fails. Calling Logout
// before Recover settles the engine as unauthenticated.
func (e *Engine) Logout(ctx context.Context) {
	e.op.Lock()
	defer e.op.Unlock()

	ctx = context.WithoutCancel(ctx)
	prev := e.state.Load()

	if err := e.store.Delete(ctx); err != nil {
		e.metricInc(MetricPersistenceFailure)
		e.logger.Warn().Err(err).Msg("session delete failed")
	}

	e.publish(anonymousState())
	e.metricInc(MetricLogout)

	if prev.User != nil {
		e.logger.Info().Str("user_id", prev.User.ID).Msg("session ended")
	}
	e.emitAudit(ctx, AuditLogout, true, prev.User, nil, nil)
}

/*
====================================
LIFECYCLE / OBSERVABILITY
====================================
*/

// Close flushes pending audit events. The engine stays readable afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
PERSISTED FORM
====================================
*/

func encodeUser(u User) ([]byte, error) {
	role, err := u.Role.MarshalText()
	if err != nil {
		return nil, err
	}

	return session.Encode(session.Record{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(role),
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}

func decodeUser(data []byte) (User, error) {
	rec, err := session.Decode(data)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}

	role, err := ParseRole(rec.Role)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}

	return User{
		ID:        rec.ID,
		Email:     rec.Email,
		Name:      rec.Name,
		Role:      role,
		Avatar:    rec.Avatar,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}
