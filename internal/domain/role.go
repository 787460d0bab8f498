package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Role is a named privilege tier assigned to a user.
type Role string

// Roles.
const (
	RoleViewer Role = "VIEWER"
	RoleAuthor Role = "AUTHOR"
	RoleAdmin  Role = "ADMIN"
)

// Role hierarchy, strictly increasing with privilege.
var roleLevels = map[Role]int{
	RoleViewer: 1,
	RoleAuthor: 2,
	RoleAdmin:  3,
}

// AllRoles lists every role in ascending privilege order.
func AllRoles() []Role {
	return []Role{RoleViewer, RoleAuthor, RoleAdmin}
}

// Level returns the hierarchy level of the role. Unknown roles are level 0.
func Level(r Role) int {
	return roleLevels[r]
}

// Level returns the hierarchy level of the role.
func (r Role) Level() int {
	return Level(r)
}

// IsValid checks if the role is one of the enumerated roles.
func (r Role) IsValid() bool {
	_, ok := roleLevels[r]
	return ok
}

// HasPermission reports whether r is at least as privileged as minRole.
// An unknown minRole is never satisfied.
func (r Role) HasPermission(minRole Role) bool {
	if !minRole.IsValid() {
		return false
	}
	return r.Level() >= minRole.Level()
}

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// RoleSet is an unordered set of roles without duplicates.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from roles, dropping duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// ParseRoleSet builds a set from role names. Any unknown name is an error.
func ParseRoleSet(names []string) (RoleSet, error) {
	s := make(RoleSet, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		s[r] = struct{}{}
	}
	return s, nil
}

// RoleSetFromClaims builds a set from role names carried by a verified token.
// Unknown names are kept; they sit at level 0 and satisfy no role check.
func RoleSetFromClaims(names []string) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		if n != "" {
			s[Role(n)] = struct{}{}
		}
	}
	return s
}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Len returns the number of roles in the set.
func (s RoleSet) Len() int {
	return len(s)
}

// MaxLevel returns the highest hierarchy level among the roles, 0 if empty.
func (s RoleSet) MaxLevel() int {
	highest := 0
	for r := range s {
		if l := Level(r); l > highest {
			highest = l
		}
	}
	return highest
}

// Slice returns the roles ordered by level, then by name.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if Level(out[i]) != Level(out[j]) {
			return Level(out[i]) < Level(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Strings returns the role names in Slice order.
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// Equal reports whether both sets hold the same roles.
func (s RoleSet) Equal(other RoleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Has(r) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as an ordered array of role names.
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes an array of role names, rejecting unknown roles.
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseRoleSet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
