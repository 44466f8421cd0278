package permission

import (
	"errors"
	"fmt"
	"sort"
)

// MatchMode selects how a set of required permissions is evaluated.
type MatchMode int

const (
	// MatchAll requires every listed permission.
	MatchAll MatchMode = iota
	// MatchAny requires at least one listed permission.
	MatchAny
)

// ErrEmptyRole is returned for an empty role name.
var ErrEmptyRole = errors.New("role name empty")

// Catalog is the immutable role → permission table. Build one with
// [NewCatalog]; it cannot be changed afterwards.
type Catalog struct {
	registry *Registry
	roles    map[string]*Mask
	lists    map[string][]string
}

// NewCatalog compiles roles into a frozen [Catalog]. Every permission named
// by a role is registered in the order it is first seen (roles are visited
// in sorted order so bit assignment is deterministic). Duplicate
// permissions within a role are collapsed.
func NewCatalog(roles map[string][]string) (*Catalog, error) {
	registry, err := NewRegistry(MaxBits)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(roles))
	for role := range roles {
		if role == "" {
			return nil, ErrEmptyRole
		}
		names = append(names, role)
	}
	sort.Strings(names)

	for _, role := range names {
		for _, perm := range roles[role] {
			if _, ok := registry.Bit(perm); ok {
				continue
			}
			if _, err := registry.Register(perm); err != nil {
				return nil, fmt.Errorf("role %s: %q: %w", role, perm, err)
			}
		}
	}
	registry.Freeze()

	c := &Catalog{
		registry: registry,
		roles:    make(map[string]*Mask, len(roles)),
		lists:    make(map[string][]string, len(roles)),
	}
	for _, role := range names {
		mask := &Mask{}
		list := make([]string, 0, len(roles[role]))
		for _, perm := range roles[role] {
			bit, _ := registry.Bit(perm)
			if mask.Has(bit) {
				continue
			}
			mask.Set(bit)
			list = append(list, perm)
		}
		c.roles[role] = mask
		c.lists[role] = list
	}

	return c, nil
}

// HasRole reports whether role is present in the catalog.
func (c *Catalog) HasRole(role string) bool {
	if c == nil {
		return false
	}
	_, ok := c.roles[role]
	return ok
}

// Permissions returns the ordered permission list for role.
func (c *Catalog) Permissions(role string) []string {
	if c == nil {
		return nil
	}
	list := c.lists[role]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Has reports whether role holds perm.
func (c *Catalog) Has(role, perm string) bool {
	if c == nil {
		return false
	}
	mask, ok := c.roles[role]
	if !ok {
		return false
	}
	bit, ok := c.registry.Bit(perm)
	if !ok {
		return false
	}
	return mask.Has(bit)
}

// Missing returns the permissions from required that role lacks under
// mode. For [MatchAll] that is every absent permission; for [MatchAny] it is
// the full required list when none is held, and nil otherwise. An empty
// required list is always satisfied.
func (c *Catalog) Missing(role string, mode MatchMode, required ...string) []string {
	if len(required) == 0 {
		return nil
	}

	var missing []string
	held := 0
	for _, perm := range required {
		if c.Has(role, perm) {
			held++
			continue
		}
		missing = append(missing, perm)
	}

	switch mode {
	case MatchAny:
		if held > 0 {
			return nil
		}
		return missing
	default:
		return missing
	}
}

// Roles returns every role name in sorted order.
func (c *Catalog) Roles() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.roles))
	for role := range c.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}
