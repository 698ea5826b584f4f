package gate

import (
	"context"
	"testing"

	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/session"
)

var protectedViews = []string{"/dashboard", "/dashboard/listings", "/dashboard/admin"}

func TestCanEnterDeniesUnauthenticated(t *testing.T) {
	state := estateauth.AuthState{}

	for _, view := range protectedViews {
		v := CanEnter(view, state, "/")
		if v.Outcome != Deny {
			t.Fatalf("%s: expected deny, got %v", view, v.Outcome)
		}
		if v.RedirectTo != "/" {
			t.Fatalf("%s: expected redirect to landing, got %q", view, v.RedirectTo)
		}
	}
}

func TestCanEnterPendingWhileLoading(t *testing.T) {
	user := estateauth.User{ID: "1", Email: "admin@peanechestate.com", Role: estateauth.RoleAdmin}

	states := []estateauth.AuthState{
		{IsLoading: true},
		{User: &user, IsAuthenticated: true, IsLoading: true},
	}
	for _, s := range states {
		v := CanEnter("/dashboard", s, "/")
		if v.Outcome != Pending {
			t.Fatalf("expected pending, got %v", v.Outcome)
		}
		if v.RedirectTo != "" {
			t.Fatalf("pending must not redirect, got %q", v.RedirectTo)
		}
	}
}

func TestCanEnterAllowsAuthenticated(t *testing.T) {
	user := estateauth.User{ID: "3", Email: "user@peanechestate.com", Role: estateauth.RoleVisitor}
	state := estateauth.AuthState{User: &user, IsAuthenticated: true}

	for _, view := range protectedViews {
		v := CanEnter(view, state, "/")
		if v.Outcome != Allow {
			t.Fatalf("%s: expected allow, got %v", view, v.Outcome)
		}
		if v.State.User != &user {
			t.Fatal("verdict must carry the evaluated snapshot")
		}
	}
}

func TestCanEnterDefaultLanding(t *testing.T) {
	v := CanEnter("/dashboard", estateauth.AuthState{}, "")
	if v.RedirectTo != DefaultLanding {
		t.Fatalf("expected default landing, got %q", v.RedirectTo)
	}
}

func TestGateReadsLiveState(t *testing.T) {
	cfg := estateauth.DefaultConfig()
	cfg.Verifier.Latency = 0
	cfg.Gate.LandingPath = "/welcome"

	engine, err := estateauth.New().WithConfig(cfg).WithStore(session.NewMemoryStore()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	g := NewFromEngine(engine)
	ctx := context.Background()

	if v := g.CanEnter("/dashboard"); v.Outcome != Pending {
		t.Fatalf("expected pending before recovery, got %v", v.Outcome)
	}

	engine.Recover(ctx)
	if v := g.CanEnter("/dashboard"); v.Outcome != Deny || v.RedirectTo != "/welcome" {
		t.Fatalf("expected deny to /welcome, got %v %q", v.Outcome, v.RedirectTo)
	}

	if err := engine.Login(ctx, estateauth.LoginCredentials{Email: "agent@peanechestate.com", Password: "password123"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if v := g.CanEnter("/dashboard"); v.Outcome != Allow {
		t.Fatalf("expected allow after login, got %v", v.Outcome)
	}

	engine.Logout(ctx)
	if v := g.CanEnter("/dashboard"); v.Outcome != Deny {
		t.Fatalf("expected deny after logout, got %v", v.Outcome)
	}
}

func TestGateObservesOnlySettledOrLoadingStates(t *testing.T) {
	cfg := estateauth.DefaultConfig()
	cfg.Verifier.Latency = 0

	engine, err := estateauth.New().WithConfig(cfg).WithStore(session.NewMemoryStore()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	var outcomes []Outcome
	engine.Subscribe(func(s estateauth.AuthState) {
		outcomes = append(outcomes, CanEnter("/dashboard", s, "/").Outcome)
	})

	ctx := context.Background()
	engine.Recover(ctx)
	_ = engine.Login(ctx, estateauth.LoginCredentials{Email: "admin@peanechestate.com", Password: "password123"})

	want := []Outcome{Deny, Pending, Allow}
	if len(outcomes) != len(want) {
		t.Fatalf("expected %v, got %v", want, outcomes)
	}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, outcomes)
		}
	}
}
