package domain

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestDenied    RequestStatus = "denied"
	RequestExpired   RequestStatus = "expired"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestCancelled RequestStatus = "cancelled"
)

// Open reports whether the request still accepts responses.
func (s RequestStatus) Open() bool {
	return s == RequestPending || s == RequestApproved
}

type ResponseStatus string

const (
	ResponsePending   ResponseStatus = "pending"
	ResponseApproved  ResponseStatus = "approved"
	ResponseDenied    ResponseStatus = "denied"
	ResponseNoFootage ResponseStatus = "no-footage"
)

type SourceKind string

const (
	SourceCamera SourceKind = "camera"
	SourceMarker SourceKind = "marker"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w TimeWindow) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && !w.End.Before(w.Start)
}

type StatusChange struct {
	Status    RequestStatus `json:"status"`
	ChangedAt time.Time     `json:"changed_at"`
	ChangedBy string        `json:"changed_by,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

// CameraResponse is keyed by (RequestID, CameraID).
type CameraResponse struct {
	RequestID   uuid.UUID      `json:"request_id"`
	CameraID    uuid.UUID      `json:"camera_id"`
	Kind        SourceKind     `json:"kind"`
	OwnerID     string         `json:"owner_id"`
	Rank        int            `json:"rank"`
	Status      ResponseStatus `json:"status"`
	FootageRef  string         `json:"footage_ref,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
}

func (r CameraResponse) HasFootage() bool {
	return r.Status == ResponseApproved && r.FootageRef != ""
}

type FootageRequest struct {
	ID                 uuid.UUID        `json:"id"`
	IncidentType       string           `json:"incident_type"`
	IncidentAt         time.Time        `json:"incident_at"`
	Window             TimeWindow       `json:"window"`
	Description        string           `json:"description"`
	PoliceReportNumber string           `json:"police_report_number,omitempty"`
	Priority           Priority         `json:"priority"`
	RequesterID        string           `json:"requester_id"`
	RequesterRole      Role             `json:"requester_role"`
	IncidentLocation   Location         `json:"incident_location"`
	SearchRadiusM      float64          `json:"search_radius_m"`
	TargetCameraIDs    []uuid.UUID      `json:"target_camera_ids"`
	Responses          []CameraResponse `json:"responses"`
	Status             RequestStatus    `json:"status"`
	StatusHistory      []StatusChange   `json:"status_history"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	ExpiresAt          time.Time        `json:"expires_at"`
	Version            int64            `json:"version"`
}

// Response returns the index of the response for cameraID, or -1.
func (r *FootageRequest) Response(cameraID uuid.UUID) int {
	for i := range r.Responses {
		if r.Responses[i].CameraID == cameraID {
			return i
		}
	}
	return -1
}

// DueForExpiry reports whether now is past ExpiresAt while the request is still open.
func (r *FootageRequest) DueForExpiry(now time.Time) bool {
	if !r.Status.Open() {
		return false
	}
	if len(r.TargetCameraIDs) == 0 {
		return !now.Before(r.ExpiresAt)
	}
	return now.After(r.ExpiresAt)
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (r *FootageRequest) Clone() *FootageRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.TargetCameraIDs = append([]uuid.UUID(nil), r.TargetCameraIDs...)
	c.Responses = make([]CameraResponse, len(r.Responses))
	for i, resp := range r.Responses {
		if resp.RespondedAt != nil {
			at := *resp.RespondedAt
			resp.RespondedAt = &at
		}
		c.Responses[i] = resp
	}
	c.StatusHistory = append([]StatusChange(nil), r.StatusHistory...)
	return &c
}

type CreateFootageRequest struct {
	IncidentType       string     `json:"incident_type" validate:"required,max=64"`
	IncidentAt         time.Time  `json:"incident_at" validate:"notzero_time"`
	Window             TimeWindow `json:"window"`
	Description        string     `json:"description" validate:"max=2000"`
	PoliceReportNumber string     `json:"police_report_number" validate:"max=64"`
	Priority           Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	IncidentLocation   Location   `json:"incident_location"`
	SearchRadiusM      float64    `json:"search_radius_m" validate:"radius_m"`
}

type RespondRequest struct {
	Decision   ResponseStatus `json:"decision" validate:"required,oneof=approved denied no-footage"`
	FootageRef string         `json:"footage_ref" validate:"max=512"`
	Reason     string         `json:"reason" validate:"max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// EvidenceMatch is one ranked candidate produced by matching.
type EvidenceMatch struct {
	SourceID  uuid.UUID  `json:"source_id"`
	Kind      SourceKind `json:"kind"`
	OwnerID   string     `json:"owner_id"`
	DistanceM float64    `json:"distance_m"`
	Score     float64    `json:"score"`
}
