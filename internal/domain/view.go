package domain

import (
	"time"

	"github.com/google/uuid"
)

// CameraView is a camera as shown to a particular viewer. Location is the true point only
// when Precise is set.
type CameraView struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Type            CameraType `json:"type"`
	Location        Location   `json:"location"`
	Precise         bool       `json:"precise"`
	Active          bool       `json:"active"`
	CoverageRadiusM float64    `json:"coverage_radius_m"`
	TrustTier       TrustTier  `json:"trust_tier"`
	Owned           bool       `json:"owned"`
}

type MarkerView struct {
	ID         uuid.UUID    `json:"id"`
	Location   Location     `json:"location"`
	Precise    bool         `json:"precise"`
	RecordedAt time.Time    `json:"recorded_at"`
	DeviceType DeviceType   `json:"device_type"`
	Status     MarkerStatus `json:"status"`
	Verified   bool         `json:"verified"`
	ExpiresAt  time.Time    `json:"expires_at"`
	Owned      bool         `json:"owned"`
}

// IntegrityReport is the result of checking one piece of evidence.
type IntegrityReport struct {
	EvidenceID    uuid.UUID         `json:"evidence_id"`
	Chain         ChainVerification `json:"chain"`
	ContentIntact bool              `json:"content_intact"`
}

type ConfirmRequesterRequest struct {
	RequesterID string `json:"requester_id" validate:"required,max=128"`
}
