package permission

// MaxBits is the largest number of permissions a [Registry] can hold.
const MaxBits = 512

// Mask is a fixed-width permission bitset.
type Mask [MaxBits / 64]uint64

// Has reports whether bit is set.
func (m *Mask) Has(bit int) bool {
	if m == nil || bit < 0 || bit >= MaxBits {
		return false
	}
	return m[bit/64]&(1<<(uint(bit)%64)) != 0
}

// Set sets bit.
func (m *Mask) Set(bit int) {
	if bit < 0 || bit >= MaxBits {
		return
	}
	m[bit/64] |= 1 << (uint(bit) % 64)
}

// Clear clears bit.
func (m *Mask) Clear(bit int) {
	if bit < 0 || bit >= MaxBits {
		return
	}
	m[bit/64] &^= 1 << (uint(bit) % 64)
}

// IsZero reports whether no bit is set.
func (m *Mask) IsZero() bool {
	if m == nil {
		return true
	}
	for _, w := range m {
		if w != 0 {
			return false
		}
	}
	return true
}
