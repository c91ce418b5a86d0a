// Package filter classifies JVM class descriptors into resource holder
// roles. It decides which classes the remap pass touches and which
// deletion policy their arrays get.
package filter

import (
	"fmt"
	"strings"
	"sync"
)

// Role is the remap policy assigned to a holder class.
type Role int

const (
	// RoleNone marks a class the pass does not touch.
	RoleNone Role = iota
	// RoleSequential marks umbrella holders (R, R$<type>): deleting an
	// element shrinks the array and shifts the rest left.
	RoleSequential
	// RolePositional marks attribute-list holders (R$styleable):
	// deleting an element zeroes its slot in place.
	RolePositional
	// RoleSkip marks a class explicitly excluded by configuration.
	RoleSkip
)

// String returns the string representation of the role.
func (r Role) String() string {
	switch r {
	case RoleSequential:
		return "sequential"
	case RolePositional:
		return "positional"
	case RoleSkip:
		return "skip"
	case RoleNone:
		return "none"
	default:
		return "unknown"
	}
}

// ParseRole parses a configured role name. Unknown names are a
// configuration error, not a per-class data problem.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential":
		return RoleSequential, nil
	case "positional":
		return RolePositional, nil
	case "skip":
		return RoleSkip, nil
	default:
		return RoleNone, fmt.Errorf("unknown holder role %q", s)
	}
}

// RoleFilter classifies class descriptors into holder roles.
// It is safe for concurrent use.
type RoleFilter struct {
	mu sync.RWMutex

	// Customized holders: app-specific R classes that do not match the
	// default naming. Groups found in them are tagged in diagnostics.
	customized map[string]bool

	// Per-class role overrides from configuration.
	overrides map[string]Role

	// Cache for frequently queried descriptors.
	roleCache     map[string]Role
	roleCacheSize int
}

// NewRoleFilter creates a RoleFilter with the default naming rules.
func NewRoleFilter() *RoleFilter {
	return &RoleFilter{
		customized:    make(map[string]bool),
		overrides:     make(map[string]Role),
		roleCache:     make(map[string]Role),
		roleCacheSize: 10000,
	}
}

// AddCustomizedHolder registers an app-specific holder descriptor.
// The class is treated as a Sequential holder unless an override says
// otherwise, and its groups are flagged customized in diagnostics.
func (f *RoleFilter) AddCustomizedHolder(descriptor string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customized[descriptor] = true
	delete(f.roleCache, descriptor)
}

// SetOverride forces a role for one class descriptor. The role name
// comes from configuration; an unknown name is returned as an error so
// the pass can abort before touching any class.
func (f *RoleFilter) SetOverride(descriptor, roleName string) error {
	role, err := ParseRole(roleName)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[descriptor] = role
	delete(f.roleCache, descriptor)
	return nil
}

// IsCustomized reports whether the descriptor was registered as a
// customized holder. Affects diagnostics only, never matching.
func (f *RoleFilter) IsCustomized(descriptor string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.customized[descriptor]
}

// Classify returns the role for a class descriptor.
func (f *RoleFilter) Classify(descriptor string) Role {
	if descriptor == "" {
		return RoleNone
	}

	f.mu.RLock()
	if role, ok := f.roleCache[descriptor]; ok {
		f.mu.RUnlock()
		return role
	}
	f.mu.RUnlock()

	role := f.classifyUncached(descriptor)

	f.mu.Lock()
	if len(f.roleCache) < f.roleCacheSize {
		f.roleCache[descriptor] = role
	}
	f.mu.Unlock()

	return role
}

func (f *RoleFilter) classifyUncached(descriptor string) Role {
	f.mu.RLock()
	role, overridden := f.overrides[descriptor]
	customized := f.customized[descriptor]
	f.mu.RUnlock()

	if overridden {
		return role
	}
	if customized {
		return RoleSequential
	}

	simple, ok := simpleName(descriptor)
	if !ok {
		return RoleNone
	}
	switch {
	case simple == "R":
		return RoleSequential
	case simple == "R$styleable":
		return RolePositional
	case strings.HasPrefix(simple, "R$"):
		return RoleSequential
	default:
		return RoleNone
	}
}

// simpleName extracts the unqualified class name from a JVM descriptor
// like "Lcom/app/R$styleable;".
func simpleName(descriptor string) (string, bool) {
	if !strings.HasPrefix(descriptor, "L") || !strings.HasSuffix(descriptor, ";") {
		return "", false
	}
	name := descriptor[1 : len(descriptor)-1]
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return "", false
	}
	return name, true
}
