// Package storage declares one repository per persisted entity. The postgres and memory
// packages implement them.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/domain"
)

// WithinMargin widens radius lookups so a prefilter never drops a candidate that the
// rounded spherical distance would accept.
func WithinMargin(radiusM float64) float64 {
	return radiusM*1.01 + 1
}

type CameraRepository interface {
	Create(ctx context.Context, cam *domain.Camera) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Camera, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Camera, error)
	// Within returns non-deleted cameras whose true location may lie within radiusM of center.
	Within(ctx context.Context, center domain.Location, radiusM float64) ([]domain.Camera, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	// UpdateTrust sets the trust tier of a non-deleted camera.
	UpdateTrust(ctx context.Context, id uuid.UUID, tier domain.TrustTier, at time.Time) error
}

type MarkerRepository interface {
	Create(ctx context.Context, m *domain.Marker) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Marker, error)
	Update(ctx context.Context, m *domain.Marker) error
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Marker, error)
	Within(ctx context.Context, center domain.Location, radiusM float64) ([]domain.Marker, error)
	// ExpireDue marks active and matched markers past their expiry as expired.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.FootageRequest) error
	Get(ctx context.Context, id uuid.UUID) (*domain.FootageRequest, error)
	// Update writes req if the stored version equals req.Version and then increments
	// req.Version. It returns e.ErrConflict on a version mismatch.
	Update(ctx context.Context, req *domain.FootageRequest) error
	ListByRequester(ctx context.Context, requesterID string) ([]*domain.FootageRequest, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*domain.FootageRequest, error)
	// ListDue returns ids of open requests for which FootageRequest.DueForExpiry(now) holds:
	// past expiry, or at it when the request has no targets.
	ListDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	// HasOpenForSource reports whether an open request targets the camera or marker.
	HasOpenForSource(ctx context.Context, sourceID uuid.UUID) (bool, error)
}

type CustodyRepository interface {
	// Chain returns every entry for evidenceID ordered by index.
	Chain(ctx context.Context, evidenceID uuid.UUID) ([]domain.CustodyEntry, error)
	// Tail returns the last entry, or nil when the chain is empty.
	Tail(ctx context.Context, evidenceID uuid.UUID) (*domain.CustodyEntry, error)
	// Append stores entry only if the current tail hash equals entry.PreviousEntryHash
	// (domain.GenesisHash for an empty chain). It returns e.ErrConflict otherwise.
	Append(ctx context.Context, entry domain.CustodyEntry) error
}

type EvidenceRepository interface {
	Create(ctx context.Context, ev *domain.Evidence) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Evidence, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.Evidence, error)
}
