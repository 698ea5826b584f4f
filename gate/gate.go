package gate

import (
	"fmt"

	"github.com/peanechestate/estateauth"
)

// Outcome is the gate's answer for one protected view.
type Outcome uint8

const (
	// Pending means an operation is in flight. Render a neutral loading
	// indicator; do not redirect.
	Pending Outcome = iota + 1
	Allow
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// DefaultLanding is where denied visitors are sent when no landing path is
// configured.
const DefaultLanding = "/"

// Verdict carries the outcome together with the snapshot it was computed
// from, so a caller renders from exactly the state that was judged.
type Verdict struct {
	Outcome    Outcome
	RedirectTo string // set only for Deny
	View       string
	State      estateauth.AuthState
}

// CanEnter decides entry to view for state. Loading wins over everything
// else; an unauthenticated state is denied with a redirect to landing.
func CanEnter(view string, state estateauth.AuthState, landing string) Verdict {
	v := Verdict{View: view, State: state}

	switch {
	case state.IsLoading:
		v.Outcome = Pending
	case !state.IsAuthenticated || state.User == nil:
		v.Outcome = Deny
		v.RedirectTo = landing
		if v.RedirectTo == "" {
			v.RedirectTo = DefaultLanding
		}
	default:
		v.Outcome = Allow
	}

	return v
}

// StateSource is the read side of the engine.
type StateSource interface {
	State() estateauth.AuthState
}

// Gate evaluates views against the engine's live state. It holds no copy
// of the state; every call reads it afresh.
type Gate struct {
	source  StateSource
	landing string
}

// New returns a gate reading from source. An empty landing uses
// [DefaultLanding].
func New(source StateSource, landing string) *Gate {
	if landing == "" {
		landing = DefaultLanding
	}
	return &Gate{source: source, landing: landing}
}

// NewFromEngine takes the landing path from the engine configuration.
func NewFromEngine(e *estateauth.Engine) *Gate {
	return New(e, e.Config().Gate.LandingPath)
}

func (g *Gate) CanEnter(view string) Verdict {
	return CanEnter(view, g.source.State(), g.landing)
}

// Landing returns the redirect target for denied views.
func (g *Gate) Landing() string {
	return g.landing
}
