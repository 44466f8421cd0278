package permission

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrRegistryFrozen is returned when Register is called after Freeze.
	ErrRegistryFrozen = errors.New("registry frozen")
	// ErrInvalidPermission is returned for names not in resource.action form.
	ErrInvalidPermission = errors.New("permission must be in resource.action form")
	// ErrDuplicatePermission is returned when a name is registered twice.
	ErrDuplicatePermission = errors.New("permission already registered")
	// ErrPermissionLimit is returned when the registry capacity is exhausted.
	ErrPermissionLimit = errors.New("permission limit exceeded")
)

// Registry maps permission names to bit positions within a [Mask].
// Capacity is one of 64, 128, 256, or 512 bits.
type Registry struct {
	maxBits int

	mu        sync.RWMutex
	nameToBit map[string]int
	bitToName []string
	frozen    bool
}

// NewRegistry creates a permission [Registry] with the given capacity.
func NewRegistry(maxBits int) (*Registry, error) {
	if maxBits != 64 && maxBits != 128 && maxBits != 256 && maxBits != 512 {
		return nil, errors.New("invalid maxBits")
	}

	return &Registry{
		maxBits:   maxBits,
		nameToBit: make(map[string]int),
	}, nil
}

// Register assigns the next available bit to the named permission.
// Returns the assigned bit index. Must be called before [Registry.Freeze].
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, ErrRegistryFrozen
	}

	if !ValidName(name) {
		return -1, ErrInvalidPermission
	}

	if _, exists := r.nameToBit[name]; exists {
		return -1, ErrDuplicatePermission
	}

	nextBit := len(r.bitToName)
	if nextBit >= r.maxBits {
		return -1, ErrPermissionLimit
	}

	r.nameToBit[name] = nextBit
	r.bitToName = append(r.bitToName, name)

	return nextBit, nil
}

// Bit returns the bit index for the named permission, or false if not registered.
func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToBit[name]
	return bit, ok
}

// Name returns the permission name for the given bit index, or false if unassigned.
func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if bit < 0 || bit >= len(r.bitToName) {
		return "", false
	}
	return r.bitToName[bit], true
}

// Names returns every registered permission in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.bitToName))
	copy(out, r.bitToName)
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bitToName)
}

// ValidName reports whether name has the resource.action form: two
// non-empty dot-separated segments without whitespace.
func ValidName(name string) bool {
	resource, action, ok := strings.Cut(name, ".")
	if !ok || resource == "" || action == "" {
		return false
	}
	if strings.Contains(action, ".") {
		return false
	}
	return !strings.ContainsAny(name, " \t\r\n")
}
