package permission

import "math/bits"

// Mask64 is a set of up to 64 capability bits.
type Mask64 uint64

// Has reports whether bit is set. With rootReserved, a set high bit grants
// every capability.
func (m Mask64) Has(bit int, rootReserved bool) bool {
	if bit < 0 || bit >= MaxBits {
		return false
	}
	if rootReserved && m&(1<<rootBit) != 0 {
		return true
	}
	return m&(1<<bit) != 0
}

func (m *Mask64) Set(bit int) {
	if bit < 0 || bit >= MaxBits {
		return
	}
	*m |= 1 << bit
}

func (m *Mask64) Clear(bit int) {
	if bit < 0 || bit >= MaxBits {
		return
	}
	*m &^= 1 << bit
}

// Count returns the number of set bits.
func (m Mask64) Count() int {
	return bits.OnesCount64(uint64(m))
}

// Bits returns the set bit positions in ascending order.
func (m Mask64) Bits() []int {
	out := make([]int, 0, m.Count())
	for v := uint64(m); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v))
	}
	return out
}
