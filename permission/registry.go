package permission

import (
	"errors"
	"sync"
)

// MaxBits is the mask width.
const MaxBits = 64

const rootBit = MaxBits - 1

// Registry maps capability names to bit positions in a [Mask64].
type Registry struct {
	rootReserved bool

	mu        sync.RWMutex
	nameToBit map[string]int
	bitToName map[int]string
	frozen    bool
}

// NewRegistry returns an empty registry. With rootReserved the highest bit
// is kept back as an all-capabilities grant.
func NewRegistry(rootReserved bool) *Registry {
	return &Registry{
		rootReserved: rootReserved,
		nameToBit:    make(map[string]int),
		bitToName:    make(map[int]string),
	}
}

// Register assigns the next free bit to name.
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, errors.New("registry frozen")
	}
	if name == "" {
		return -1, errors.New("capability name cannot be empty")
	}
	if _, exists := r.nameToBit[name]; exists {
		return -1, errors.New("capability already registered: " + name)
	}

	next := len(r.nameToBit)
	limit := MaxBits
	if r.rootReserved {
		limit = rootBit
	}
	if next >= limit {
		return -1, errors.New("capability limit exceeded")
	}

	r.nameToBit[name] = next
	r.bitToName[next] = name

	return next, nil
}

// Bit returns the bit index for name.
func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToBit[name]
	return bit, ok
}

// Name returns the capability name for bit.
func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.bitToName[bit]
	return name, ok
}

// Names returns the capability names set in m, in registration order.
func (r *Registry) Names(m Mask64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, m.Count())
	for _, bit := range m.Bits() {
		if name, ok := r.bitToName[bit]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nameToBit)
}

// RootBit returns the reserved bit, or false when reservation is off.
func (r *Registry) RootBit() (int, bool) {
	if !r.rootReserved {
		return -1, false
	}
	return rootBit, true
}

// RootReserved reports whether the root bit is reserved.
func (r *Registry) RootReserved() bool {
	return r.rootReserved
}
