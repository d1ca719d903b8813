// Package privacy resolves the location of a camera or marker that a viewer is allowed to see.
package privacy

import (
	"crypto/sha256"
	"encoding/hex"

	"camwatch/internal/domain"
	"camwatch/internal/geo"
)

const (
	DefaultRadiusM = 25.0
	DefaultCellM   = 50.0

	anonPrefix = "ANON-"
	maxDraws   = 8
)

type Config struct {
	// RadiiM is the fuzz radius per role; roles without an entry use DefaultRadiusM.
	RadiiM         map[domain.Role]float64
	DefaultRadiusM float64
	CellM          float64
	Salt           string
}

func DefaultConfig() Config {
	return Config{
		RadiiM: map[domain.Role]float64{
			domain.RoleCommunity:  25,
			domain.RoleInsurance:  15,
			domain.RoleSecurity:   15,
			domain.RolePolice:     10,
			domain.RoleAdmin:      10,
			domain.RoleSuperAdmin: 10,
		},
		DefaultRadiusM: DefaultRadiusM,
		CellM:          DefaultCellM,
	}
}

type Manager struct {
	cfg    Config
	policy Policy
	rnd    geo.Rand
}

func NewManager(cfg Config, policy Policy, rnd geo.Rand) *Manager {
	if cfg.DefaultRadiusM <= 0 {
		cfg.DefaultRadiusM = DefaultRadiusM
	}
	if cfg.CellM <= 0 {
		cfg.CellM = DefaultCellM
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	if rnd == nil {
		rnd = geo.SystemRand{}
	}
	return &Manager{cfg: cfg, policy: policy, rnd: rnd}
}

func (m *Manager) RadiusFor(role domain.Role) float64 {
	if r, ok := m.cfg.RadiiM[role]; ok && r > 0 {
		return r
	}
	return m.cfg.DefaultRadiusM
}

// CanViewPrecise exposes the policy decision for callers that need it without a location.
func (m *Manager) CanViewPrecise(viewer domain.Viewer, subject domain.Subject) bool {
	return m.policy.CanViewPrecise(viewer, subject)
}

// ResolvePublicLocation returns the location of subject as viewer may see it. Unless the
// policy grants precision the result lies within the viewer's role radius of the true
// location and never equals it. The subject is not modified.
func (m *Manager) ResolvePublicLocation(subject domain.Subject, viewer domain.Viewer) domain.Location {
	loc := subject.TrueLocation()
	if m.policy.CanViewPrecise(viewer, subject) {
		return loc
	}
	return m.displace(loc, m.RadiusFor(viewer.Role))
}

// StoredPublicLocation is the community-radius location persisted alongside a new camera or
// marker and shown in listings.
func (m *Manager) StoredPublicLocation(loc domain.Location) domain.Location {
	return m.displace(loc, m.RadiusFor(domain.RoleCommunity))
}

// CoarseCell snaps loc to the configured grid.
func (m *Manager) CoarseCell(loc domain.Location) domain.Location {
	return geo.GridCell(loc, m.cfg.CellM)
}

// AnonymousID is a salted, stable pseudonym for a user id.
func (m *Manager) AnonymousID(id string) string {
	sum := sha256.Sum256([]byte(m.cfg.Salt + ":" + id))
	return anonPrefix + hex.EncodeToString(sum[:8])
}

func (m *Manager) displace(loc domain.Location, radius float64) domain.Location {
	for i := 0; i < maxDraws; i++ {
		if p := geo.Fuzz(loc, radius, m.rnd); p != loc {
			return p
		}
	}
	return geo.Destination(loc, 360*m.rnd.Float64(), radius/2)
}
