package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/lifecycle"
	"camwatch/pkg/e"
	"camwatch/pkg/validator"
)

// RequestService exposes the lifecycle to identified viewers.
type RequestService struct {
	lc *lifecycle.Lifecycle
}

func NewRequestService(lc *lifecycle.Lifecycle) *RequestService {
	return &RequestService{lc: lc}
}

func (s *RequestService) Create(ctx context.Context, viewer domain.Viewer, in domain.CreateFootageRequest) (*domain.FootageRequest, error) {
	out, err := s.lc.Create(ctx, viewer, in)
	if err != nil {
		return nil, err
	}
	return out.Request, nil
}

func (s *RequestService) Get(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.FootageRequest, error) {
	const op = "service.RequestService.Get"

	req, err := s.lc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(req, viewer) {
		return nil, fmt.Errorf("%s: %w", op, e.ErrPermissionDenied)
	}
	return req, nil
}

func (s *RequestService) Respond(ctx context.Context, id, cameraID uuid.UUID, viewer domain.Viewer, in domain.RespondRequest) (*domain.FootageRequest, error) {
	const op = "service.RequestService.Respond"

	if err := validator.ValidateStruct(in); err != nil {
		return nil, e.Invalid(op, validator.Describe(err))
	}
	out, err := s.lc.Respond(ctx, id, cameraID, viewer.UserID, lifecycle.Decision{
		Status:     in.Decision,
		FootageRef: in.FootageRef,
		Reason:     in.Reason,
	})
	if err != nil {
		return nil, err
	}
	return out.Request, nil
}

func (s *RequestService) Cancel(ctx context.Context, id uuid.UUID, viewer domain.Viewer, in domain.CancelRequest) (*domain.FootageRequest, error) {
	const op = "service.RequestService.Cancel"

	if err := validator.ValidateStruct(in); err != nil {
		return nil, e.Invalid(op, validator.Describe(err))
	}
	out, err := s.lc.Cancel(ctx, id, viewer.UserID, in.Reason)
	if err != nil {
		return nil, err
	}
	return out.Request, nil
}

// List returns the viewer's own requests, or with incoming set, the requests that target
// the viewer's cameras and markers.
func (s *RequestService) List(ctx context.Context, viewer domain.Viewer, incoming bool) ([]*domain.FootageRequest, error) {
	const op = "service.RequestService.List"

	if viewer.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, e.ErrPermissionDenied)
	}
	if incoming {
		return s.lc.ListForOwner(ctx, viewer.UserID)
	}
	return s.lc.ListByRequester(ctx, viewer.UserID)
}
