package estateauth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles. The zero value is not a valid
// role; [ParseRole] and [Role.Valid] are the only ways to admit one.
type Role uint8

const (
	// RoleVisitor browses listings, saves properties and books viewings.
	RoleVisitor Role = iota + 1
	// RoleAgent manages listings and viewings.
	RoleAgent
	// RoleAdmin manages users, agents and moderation.
	RoleAdmin

	roleEnd
)

// RoleCount is the number of valid roles. Packages that map roles to
// something else assert against it at compile time.
const RoleCount = int(roleEnd) - 1

var roleNames = [...]string{
	RoleVisitor: "visitor",
	RoleAgent:   "agent",
	RoleAdmin:   "admin",
}

// Roles returns every valid role in declaration order.
func Roles() []Role {
	return []Role{RoleVisitor, RoleAgent, RoleAdmin}
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool {
	return r >= RoleVisitor && r < roleEnd
}

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("role(%d)", uint8(r))
	}
	return roleNames[r]
}

// ParseRole maps the text form ("visitor", "agent", "admin") to a Role.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, r := range Roles() {
		if roleNames[r] == needle {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrRoleInvalid, s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrRoleInvalid, uint8(r))
	}
	return []byte(roleNames[r]), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is an identity record held by the [Directory]. Records are never
// modified after creation; treat values reachable from [AuthState] as
// read-only.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoginCredentials is the transient input of [Engine.Login].
type LoginCredentials struct {
	Email    string
	Password string
}

// RegisterData is the transient input of [Engine.Register].
type RegisterData struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            Role
}

// Validate runs the caller-side checks a registration form performs
// before submitting: required fields, a known role and matching password
// confirmation. The verifier does not call it.
func (d RegisterData) Validate() error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Email) == "" || d.Password == "" {
		return ErrRegistrationInvalid
	}
	if !d.Role.Valid() {
		return ErrRoleInvalid
	}
	if d.Password != d.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}

// AuthState is the single record of whether, and as whom, the session is
// authenticated. IsAuthenticated is true iff User is non-nil. IsLoading is
// true only while an operation is in flight.
type AuthState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
	IsLoading       bool  `json:"isLoading"`
}

// Phase is the state-machine position of an [Engine].
type Phase uint8

const (
	PhaseUninitialized Phase = iota
	PhaseRecovering
	PhaseUnauthenticated
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRecovering:
		return "recovering"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

func initialState() *AuthState {
	return &AuthState{IsLoading: true}
}

func authenticatedState(u User) *AuthState {
	return &AuthState{User: &u, IsAuthenticated: true}
}

func anonymousState() *AuthState {
	return &AuthState{}
}

// loading returns a copy of s with IsLoading set. The user, if any, is kept
// so re-login from an authenticated session does not blank the display.
func (s AuthState) loading() *AuthState {
	s.IsLoading = true
	return &s
}

func (s AuthState) settled() *AuthState {
	s.IsLoading = false
	return &s
}
