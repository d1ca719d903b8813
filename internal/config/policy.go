package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"camwatch/internal/domain"
	"camwatch/internal/privacy"
)

// PolicyFile is the TOML layout of the privacy policy:
//
//	default_radius_m = 25
//	cell_m = 50
//	require_verified = true
//	precise_roles = ["police", "admin", "super_admin"]
//
//	[radii_m]
//	community = 25
//	insurance = 15
type PolicyFile struct {
	DefaultRadiusM  float64            `toml:"default_radius_m"`
	CellM           float64            `toml:"cell_m"`
	RequireVerified *bool              `toml:"require_verified"`
	PreciseRoles    []string           `toml:"precise_roles"`
	RadiiM          map[string]float64 `toml:"radii_m"`
}

// LoadPolicy builds the privacy settings. An empty path yields the defaults; values in the
// file override them key by key.
func LoadPolicy(path, salt string) (privacy.Config, privacy.RolePolicy, error) {
	cfg := privacy.DefaultConfig()
	cfg.Salt = salt
	policy := privacy.DefaultPolicy()
	if path == "" {
		return cfg, policy, nil
	}

	var file PolicyFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return cfg, policy, fmt.Errorf("decode privacy policy %s: %w", path, err)
	}

	if file.DefaultRadiusM > 0 {
		cfg.DefaultRadiusM = file.DefaultRadiusM
	}
	if file.CellM > 0 {
		cfg.CellM = file.CellM
	}
	for name, radius := range file.RadiiM {
		role, err := domain.ParseRole(name)
		if err != nil {
			return cfg, policy, fmt.Errorf("privacy policy radii_m: %w", err)
		}
		if radius <= 0 {
			return cfg, policy, fmt.Errorf("privacy policy radii_m.%s must be positive", name)
		}
		cfg.RadiiM[role] = radius
	}
	if file.PreciseRoles != nil {
		policy.PreciseRoles = make(map[domain.Role]bool, len(file.PreciseRoles))
		for _, name := range file.PreciseRoles {
			role, err := domain.ParseRole(name)
			if err != nil {
				return cfg, policy, fmt.Errorf("privacy policy precise_roles: %w", err)
			}
			policy.PreciseRoles[role] = true
		}
	}
	if file.RequireVerified != nil {
		policy.RequireVerified = *file.RequireVerified
	}
	return cfg, policy, nil
}
