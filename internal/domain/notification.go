package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyNewRequest       NotificationType = "new-request"
	NotifyResponseApproved NotificationType = "response-approved"
	NotifyResponseDenied   NotificationType = "response-denied"
	NotifyNoFootage        NotificationType = "no-footage"
	NotifyRequestApproved  NotificationType = "request-approved"
	NotifyRequestDenied    NotificationType = "request-denied"
	NotifyRequestFulfilled NotificationType = "request-fulfilled"
	NotifyRequestExpired   NotificationType = "request-expired"
	NotifyRequestCancelled NotificationType = "request-cancelled"
)

// NotificationIntent is produced with a state transition and delivered by an external notifier.
type NotificationIntent struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	RequestID   uuid.UUID        `json:"request_id"`
	CameraID    *uuid.UUID       `json:"camera_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	Attempts    int              `json:"attempts,omitempty"`
}
