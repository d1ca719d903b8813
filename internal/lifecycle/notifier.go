package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/domain"
)

// Notifier delivers notification intents. Delivery is best-effort and happens after the
// transition that produced the intents is stored.
type Notifier interface {
	Notify(ctx context.Context, intents []domain.NotificationIntent) error
}

type NotifierFunc func(ctx context.Context, intents []domain.NotificationIntent) error

func (f NotifierFunc) Notify(ctx context.Context, intents []domain.NotificationIntent) error {
	return f(ctx, intents)
}

func intent(recipient string, typ domain.NotificationType, requestID uuid.UUID, cameraID *uuid.UUID, now time.Time) domain.NotificationIntent {
	return domain.NotificationIntent{
		ID:          uuid.New(),
		RecipientID: recipient,
		Type:        typ,
		RequestID:   requestID,
		CameraID:    cameraID,
		CreatedAt:   now,
	}
}

func cameraRef(id uuid.UUID) *uuid.UUID {
	return &id
}
