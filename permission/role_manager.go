package permission

import (
	"errors"
	"sync"
)

// RoleManager binds role names to capability masks built from a [Registry].
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string]Mask64
	frozen bool
}

func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[string]Mask64),
	}
}

// RegisterRole builds the mask for roleName from capability names. Every
// name must already be registered.
func (rm *RoleManager) RegisterRole(roleName string, capabilities []string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.frozen {
		return errors.New("role manager frozen")
	}
	if roleName == "" {
		return errors.New("role name empty")
	}
	if _, exists := rm.roles[roleName]; exists {
		return errors.New("role already registered: " + roleName)
	}

	var mask Mask64
	for _, name := range capabilities {
		bit, ok := rm.registry.Bit(name)
		if !ok {
			return errors.New("capability not registered: " + name)
		}
		mask.Set(bit)
	}

	rm.roles[roleName] = mask
	return nil
}

/*
====================================
LOOKUP
====================================
*/

func (rm *RoleManager) Mask(roleName string) (Mask64, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	mask, ok := rm.roles[roleName]
	return mask, ok
}

// Has reports whether roleName holds capability. Unknown roles and unknown
// capabilities both answer false.
func (rm *RoleManager) Has(roleName, capability string) bool {
	mask, ok := rm.Mask(roleName)
	if !ok {
		return false
	}
	bit, ok := rm.registry.Bit(capability)
	if !ok {
		return false
	}
	return mask.Has(bit, rm.registry.RootReserved())
}

// Capabilities returns the capability names of roleName in registration
// order, or nil for an unknown role.
func (rm *RoleManager) Capabilities(roleName string) []string {
	mask, ok := rm.Mask(roleName)
	if !ok {
		return nil
	}
	return rm.registry.Names(mask)
}

func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}
