package gate

import (
	"context"
	"sort"
)

// Profile is the set of capabilities a subject holds.
type Profile interface {
	Name() string
	Can(requested Permission) bool
	Permissions() []Permission
}

// Resolver maps a subject to its profile. A nil profile with a nil error
// means the subject holds no capabilities at all.
type Resolver[U comparable] interface {
	Resolve(ctx context.Context, subject U) (Profile, error)
}

// StaticProfile is an in-memory Profile.
type StaticProfile struct {
	name  string
	perms []Permission
}

func NewStaticProfile(name string, perms ...Permission) *StaticProfile {
	cp := make([]Permission, len(perms))
	copy(cp, perms)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	return &StaticProfile{name: name, perms: cp}
}

func (p *StaticProfile) Name() string { return p.name }

func (p *StaticProfile) Permissions() []Permission {
	out := make([]Permission, len(p.perms))
	copy(out, p.perms)
	return out
}

func (p *StaticProfile) Can(requested Permission) bool {
	for _, held := range p.perms {
		if held.Matches(requested) {
			return true
		}
	}
	return false
}

// RoleTable is the static role -> profile mapping.
type RoleTable map[string]Profile

// Lookup returns the profile registered for role, if any.
func (t RoleTable) Lookup(role string) (Profile, bool) {
	p, ok := t[role]
	return p, ok
}

// Roles lists the known role names in sorted order.
func (t RoleTable) Roles() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MapResolver resolves subjects from a fixed map. Handy in tests.
type MapResolver[U comparable] map[U]Profile

func (m MapResolver[U]) Resolve(_ context.Context, subject U) (Profile, error) {
	return m[subject], nil
}
