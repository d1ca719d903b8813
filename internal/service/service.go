// Package service holds the use cases around the request lifecycle: the camera registry,
// temporary markers, footage requests as seen by a viewer, and evidence intake.
package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"camwatch/internal/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go

// LocationCache pins the public location served per subject and role.
type LocationCache interface {
	Get(ctx context.Context, subjectID uuid.UUID, role domain.Role) (domain.Location, bool, error)
	Set(ctx context.Context, subjectID uuid.UUID, role domain.Role, loc domain.Location) error
	Forget(ctx context.Context, subjectID uuid.UUID) error
}

type VerificationQueue interface {
	EnqueueVerify(ctx context.Context, evidenceID uuid.UUID) error
}

type FootageStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (bool, error)
	Open(ctx context.Context, key string, sealed bool) (io.ReadCloser, error)
}

type Service struct {
	Cameras  *CameraService
	Markers  *MarkerService
	Requests *RequestService
	Evidence *EvidenceService
}

func NewService(
	cameras *CameraService,
	markers *MarkerService,
	requests *RequestService,
	evidence *EvidenceService,
) *Service {
	return &Service{
		Cameras:  cameras,
		Markers:  markers,
		Requests: requests,
		Evidence: evidence,
	}
}

// noCache is used when Redis is not configured. Every read samples a fresh point.
type noCache struct{}

func (noCache) Get(context.Context, uuid.UUID, domain.Role) (domain.Location, bool, error) {
	return domain.Location{}, false, nil
}
func (noCache) Set(context.Context, uuid.UUID, domain.Role, domain.Location) error { return nil }
func (noCache) Forget(context.Context, uuid.UUID) error                            { return nil }
