package privacy

import "camwatch/internal/domain"

// Policy decides whether a viewer may see a subject's true location.
type Policy interface {
	CanViewPrecise(viewer domain.Viewer, subject domain.Subject) bool
}

// RolePolicy grants precision to the owner, to subjects the owner confirmed for the
// viewer, and to the listed roles when the viewer is verified.
type RolePolicy struct {
	PreciseRoles    map[domain.Role]bool
	RequireVerified bool
}

func DefaultPolicy() RolePolicy {
	return RolePolicy{
		PreciseRoles: map[domain.Role]bool{
			domain.RolePolice:     true,
			domain.RoleAdmin:      true,
			domain.RoleSuperAdmin: true,
		},
		RequireVerified: true,
	}
}

func (p RolePolicy) CanViewPrecise(viewer domain.Viewer, subject domain.Subject) bool {
	if viewer.UserID == "" {
		return false
	}
	if viewer.UserID == subject.OwnerUserID() {
		return true
	}
	if subject.RequiresConsent() {
		return subject.PreciseGrantedTo(viewer.UserID)
	}
	if !p.PreciseRoles[viewer.Role] {
		return false
	}
	return viewer.Verified || !p.RequireVerified
}
