package domain

import (
	"time"

	"github.com/google/uuid"
)

type MarkerStatus string

const (
	MarkerActive    MarkerStatus = "active"
	MarkerMatched   MarkerStatus = "matched"
	MarkerExpired   MarkerStatus = "expired"
	MarkerWithdrawn MarkerStatus = "withdrawn"
)

type DeviceType string

const (
	DeviceMobilePhone  DeviceType = "mobile_phone"
	DeviceDashcam      DeviceType = "dashcam"
	DeviceActionCamera DeviceType = "action_camera"
	DeviceOther        DeviceType = "other"
)

// Marker is a time-boxed footage offer from an unregistered device.
type Marker struct {
	ID                  uuid.UUID    `json:"id"`
	OwnerID             string       `json:"owner_id"`
	Location            Location     `json:"location"`
	PublicLocation      Location     `json:"public_location"`
	RecordedAt          time.Time    `json:"recorded_at"`
	DeviceType          DeviceType   `json:"device_type"`
	Description         string       `json:"description,omitempty"`
	Status              MarkerStatus `json:"status"`
	Verified            bool         `json:"verified"`
	TrustScore          int          `json:"trust_score"`
	ConfirmedRequesters []string     `json:"confirmed_requesters,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	ExpiresAt           time.Time    `json:"expires_at"`
}

// Matchable reports whether the marker may still be offered to a new request at now.
func (m Marker) Matchable(now time.Time) bool {
	return (m.Status == MarkerActive || m.Status == MarkerMatched) && now.Before(m.ExpiresAt)
}

func (m Marker) TrueLocation() Location { return m.Location }
func (m Marker) OwnerUserID() string    { return m.OwnerID }
func (m Marker) RequiresConsent() bool  { return true }

func (m Marker) PreciseGrantedTo(userID string) bool {
	for _, id := range m.ConfirmedRequesters {
		if id == userID {
			return true
		}
	}
	return false
}

type RegisterMarkerRequest struct {
	Location    Location   `json:"location"`
	RecordedAt  time.Time  `json:"recorded_at" validate:"notzero_time"`
	DeviceType  DeviceType `json:"device_type" validate:"required,oneof=mobile_phone dashcam action_camera other"`
	Description string     `json:"description" validate:"max=500"`
	HasPreview  bool       `json:"has_preview"`
}
