package session

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrBreakerOpen is returned while the breaker rejects calls.
var ErrBreakerOpen = errors.New("session store circuit open")

// BreakerSettings configures a BreakerStore.
type BreakerSettings struct {
	Name string
	// Failures is the consecutive failure count that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// OnStateChange, if set, observes transitions.
	OnStateChange func(name string, from, to gobreaker.State)
}

// BreakerStore wraps a Store so a failing backend is short-circuited. A
// missing handle is an answer, not a failure, and never trips the breaker.
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerStore(next Store, s BreakerSettings) *BreakerStore {
	if s.Name == "" {
		s.Name = "session-store"
	}
	if s.Failures == 0 {
		s.Failures = 5
	}

	failures := s.Failures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: s.OnStateChange,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})

	return &BreakerStore{next: next, cb: cb}
}

// State reports the breaker position.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

func (s *BreakerStore) Load(ctx context.Context) ([]byte, error) {
	v, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Load(ctx)
	})
	if err != nil {
		return nil, translateBreakerErr(err)
	}
	data, _ := v.([]byte)
	return data, nil
}

func (s *BreakerStore) Save(ctx context.Context, data []byte) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Save(ctx, data)
	})
	return translateBreakerErr(err)
}

func (s *BreakerStore) Delete(ctx context.Context) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Delete(ctx)
	})
	return translateBreakerErr(err)
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrBreakerOpen, err)
	}
	return err
}
