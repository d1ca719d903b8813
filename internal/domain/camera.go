package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CameraType string

const (
	CameraDoorbell CameraType = "doorbell"
	CameraSecurity CameraType = "security"
	CameraDash     CameraType = "dash"
	CameraIndoor   CameraType = "indoor"
	CameraOther    CameraType = "other"
)

// TrustTier ranks a camera for presentation; it never excludes a candidate.
type TrustTier int

const (
	TrustUnverified TrustTier = iota
	TrustVerified
	TrustTrusted
	TrustPartner

	MaxTrustTier = TrustPartner
)

// QuietHours is a daily window [StartHour, EndHour) during which the owner does not record.
type QuietHours struct {
	StartHour int `json:"start_hour" validate:"min=0,max=23"`
	EndHour   int `json:"end_hour" validate:"min=0,max=23"`
}

func (q QuietHours) Covers(hour int) bool {
	if q.StartHour == q.EndHour {
		return false
	}
	if q.EndHour > q.StartHour {
		return hour >= q.StartHour && hour < q.EndHour
	}
	return hour >= q.StartHour || hour < q.EndHour
}

type Camera struct {
	ID                  uuid.UUID   `json:"id"`
	OwnerID             string      `json:"owner_id"`
	Name                string      `json:"name"`
	Type                CameraType  `json:"type"`
	Location            Location    `json:"location"`
	PublicLocation      Location    `json:"public_location"`
	Active              bool        `json:"active"`
	CoverageRadiusM     float64     `json:"coverage_radius_m"`
	TrustTier           TrustTier   `json:"trust_tier"`
	OptOutIncidentTypes []string    `json:"opt_out_incident_types,omitempty"`
	QuietHours          *QuietHours `json:"quiet_hours,omitempty"`
	InstalledAt         time.Time   `json:"installed_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	DeletedAt           *time.Time  `json:"deleted_at,omitempty"`
}

func (c Camera) Available() bool {
	return c.Active && c.DeletedAt == nil
}

func (c Camera) OptedOut(incidentType string) bool {
	for _, t := range c.OptOutIncidentTypes {
		if strings.EqualFold(t, incidentType) {
			return true
		}
	}
	return false
}

func (c Camera) TrueLocation() Location       { return c.Location }
func (c Camera) OwnerUserID() string          { return c.OwnerID }
func (c Camera) RequiresConsent() bool        { return false }
func (c Camera) PreciseGrantedTo(string) bool { return false }

type RegisterCameraRequest struct {
	Name                string      `json:"name" validate:"required,max=120"`
	Type                CameraType  `json:"type" validate:"omitempty,oneof=doorbell security dash indoor other"`
	Location            Location    `json:"location"`
	CoverageRadiusM     float64     `json:"coverage_radius_m" validate:"min=0,max=500"`
	OptOutIncidentTypes []string    `json:"opt_out_incident_types" validate:"omitempty,dive,required"`
	QuietHours          *QuietHours `json:"quiet_hours"`
	InstalledAt         time.Time   `json:"installed_at"`
}

type SetTrustTierRequest struct {
	TrustTier TrustTier `json:"trust_tier" validate:"min=0,max=3"`
}
