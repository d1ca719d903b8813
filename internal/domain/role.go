package domain

import (
	"fmt"
	"strings"
)

type Role int

const (
	RoleCommunity Role = iota
	RoleInsurance
	RoleSecurity
	RolePolice
	RoleAdmin
	RoleSuperAdmin
)

var roleNames = map[Role]string{
	RoleCommunity:  "community",
	RoleInsurance:  "insurance",
	RoleSecurity:   "security",
	RolePolice:     "police",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "super_admin",
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole maps an external role name onto a Role. "user" is accepted as community.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" || name == "user" {
		return RoleCommunity, nil
	}
	for r, n := range roleNames {
		if n == name {
			return r, nil
		}
	}
	return RoleCommunity, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Viewer is the identity on whose behalf a location or request is read.
type Viewer struct {
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	Verified bool   `json:"verified"`
}
