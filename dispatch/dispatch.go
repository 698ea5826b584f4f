package dispatch

import (
	"github.com/peanechestate/estateauth"
	"github.com/peanechestate/estateauth/permission"
)

// ViewVariant is one of the mutually exclusive dashboards.
type ViewVariant uint8

const (
	// UnknownView is the fallback for a role outside the enumeration.
	UnknownView ViewVariant = iota
	VisitorView
	AgentView
	AdminView
)

func (v ViewVariant) String() string {
	switch v {
	case VisitorView:
		return "visitor"
	case AgentView:
		return "agent"
	case AdminView:
		return "admin"
	default:
		return "unknown"
	}
}

// roleViews must have one entry per role. Adding a role without extending
// it breaks the assertions below.
var roleViews = [...]ViewVariant{
	estateauth.RoleVisitor: VisitorView,
	estateauth.RoleAgent:   AgentView,
	estateauth.RoleAdmin:   AdminView,
}

var (
	_ = [1]struct{}{}[len(roleViews)-1-estateauth.RoleCount]
	_ = [1]struct{}{}[estateauth.RoleCount-(len(roleViews)-1)]
)

// SelectView maps role to its view. It is total: anything outside the
// enumeration yields [UnknownView].
func SelectView(role estateauth.Role) ViewVariant {
	if !role.Valid() || int(role) >= len(roleViews) {
		return UnknownView
	}
	return roleViews[role]
}

// Capability names shown on each dashboard.
const (
	CapPropertySave    = "property.save"
	CapViewingSchedule = "viewing.schedule"
	CapSearchHistory   = "search.history"

	CapListingCreate = "listing.create"
	CapListingManage = "listing.manage"
	CapViewingManage = "viewing.manage"
	CapSalesReport   = "sales.report"

	CapUserManage      = "user.manage"
	CapListingModerate = "listing.moderate"
	CapAgentManage     = "agent.manage"
	CapAnalyticsView   = "analytics.view"
)

var capabilitySets = map[ViewVariant][]string{
	VisitorView: {CapPropertySave, CapViewingSchedule, CapSearchHistory},
	AgentView:   {CapListingCreate, CapListingManage, CapViewingManage, CapSalesReport},
	AdminView:   {CapUserManage, CapListingModerate, CapAgentManage, CapAnalyticsView},
}

// StateSource is the read side of the engine.
type StateSource interface {
	State() estateauth.AuthState
}

// Dispatcher selects the view for the live session. It never caches the
// role; each call reads the current state.
type Dispatcher struct {
	source StateSource
	roles  *permission.RoleManager
}

// New returns a dispatcher reading from source, with the capability sets
// registered and frozen.
func New(source StateSource) (*Dispatcher, error) {
	registry := permission.NewRegistry(false)
	for _, variant := range []ViewVariant{VisitorView, AgentView, AdminView} {
		for _, name := range capabilitySets[variant] {
			if _, err := registry.Register(name); err != nil {
				return nil, err
			}
		}
	}
	registry.Freeze()

	roles := permission.NewRoleManager(registry)
	for variant, names := range capabilitySets {
		if err := roles.RegisterRole(variant.String(), names); err != nil {
			return nil, err
		}
	}
	roles.Freeze()

	return &Dispatcher{source: source, roles: roles}, nil
}

// Current returns the view for the current session. An unauthenticated or
// loading session yields [UnknownView].
func (d *Dispatcher) Current() ViewVariant {
	return ViewFor(d.source.State())
}

// ViewFor selects the view for an explicit snapshot.
func ViewFor(state estateauth.AuthState) ViewVariant {
	if state.IsLoading || !state.IsAuthenticated || state.User == nil {
		return UnknownView
	}
	return SelectView(state.User.Role)
}

// Capabilities returns the capability names for variant, or nil for
// [UnknownView].
func (d *Dispatcher) Capabilities(variant ViewVariant) []string {
	if variant == UnknownView {
		return nil
	}
	return d.roles.Capabilities(variant.String())
}

// Can reports whether variant carries capability.
func (d *Dispatcher) Can(variant ViewVariant, capability string) bool {
	if variant == UnknownView {
		return false
	}
	return d.roles.Has(variant.String(), capability)
}
