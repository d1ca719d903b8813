package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/geo"
	"camwatch/internal/privacy"
	"camwatch/internal/storage"
	"camwatch/pkg/clock"
	"camwatch/pkg/e"
	"camwatch/pkg/validator"
)

type CameraService struct {
	repo     storage.CameraRepository
	requests storage.RequestRepository
	locator  publicLocator
	clock    clock.Clock
	logger   *slog.Logger
}

// NewCameraService builds the registry. cache may be nil.
func NewCameraService(
	repo storage.CameraRepository,
	requests storage.RequestRepository,
	pm *privacy.Manager,
	cache LocationCache,
	clk clock.Clock,
	logger *slog.Logger,
) *CameraService {
	if cache == nil {
		cache = noCache{}
	}
	return &CameraService{
		repo:     repo,
		requests: requests,
		locator:  publicLocator{privacy: pm, cache: cache, logger: logger},
		clock:    clk,
		logger:   logger,
	}
}

func (s *CameraService) Register(ctx context.Context, ownerID string, in domain.RegisterCameraRequest) (*domain.Camera, error) {
	const op = "service.CameraService.Register"

	if strings.TrimSpace(ownerID) == "" {
		return nil, e.Invalid(op, "owner identity is required")
	}
	if err := validator.ValidateStruct(in); err != nil {
		return nil, e.Invalid(op, validator.Describe(err))
	}
	if !geo.Valid(in.Location) {
		return nil, e.Wrap(op, e.ErrInvalidCoordinates)
	}

	now := s.clock.Now()
	cam := &domain.Camera{
		ID:                  uuid.New(),
		OwnerID:             ownerID,
		Name:                in.Name,
		Type:                in.Type,
		Location:            in.Location,
		PublicLocation:      s.locator.privacy.StoredPublicLocation(in.Location),
		Active:              true,
		CoverageRadiusM:     in.CoverageRadiusM,
		TrustTier:           domain.TrustUnverified,
		OptOutIncidentTypes: in.OptOutIncidentTypes,
		InstalledAt:         in.InstalledAt,
		UpdatedAt:           now,
	}
	if cam.Type == "" {
		cam.Type = domain.CameraOther
	}
	if in.QuietHours != nil {
		q := *in.QuietHours
		cam.QuietHours = &q
	}
	if cam.InstalledAt.IsZero() {
		cam.InstalledAt = now
	}

	if err := s.repo.Create(ctx, cam); err != nil {
		s.logger.Error("failed to register camera", slog.String("op", op), slog.Any("error", err))
		return nil, e.Wrap(op, err)
	}
	s.logger.Info("camera registered", slog.String("op", op), slog.String("camera_id", cam.ID.String()))
	return cam, nil
}

// Get returns the camera as viewer may see it. Deleted cameras are only visible to their owner.
func (s *CameraService) Get(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.CameraView, error) {
	const op = "service.CameraService.Get"

	cam, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	owned := viewer.UserID != "" && cam.OwnerID == viewer.UserID
	if cam.DeletedAt != nil && !owned {
		return nil, fmt.Errorf("%s: camera %s: %w", op, id, e.ErrNotFound)
	}

	loc, precise := s.locator.resolve(ctx, cam.ID, cam, viewer)
	return &domain.CameraView{
		ID:              cam.ID,
		Name:            cam.Name,
		Type:            cam.Type,
		Location:        loc,
		Precise:         precise,
		Active:          cam.Available(),
		CoverageRadiusM: cam.CoverageRadiusM,
		TrustTier:       cam.TrustTier,
		Owned:           owned,
	}, nil
}

func (s *CameraService) ListOwn(ctx context.Context, ownerID string) ([]*domain.Camera, error) {
	const op = "service.CameraService.ListOwn"

	cams, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return cams, nil
}

// Delete soft-deletes the camera on behalf of its owner or an admin. Open requests keep
// their snapshot of targets and responses; the camera is only left out of new matches.
func (s *CameraService) Delete(ctx context.Context, id uuid.UUID, actor domain.Viewer) error {
	const op = "service.CameraService.Delete"

	cam, err := s.repo.Get(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !canMutate(cam, actor) {
		return fmt.Errorf("%s: %w", op, e.ErrPermissionDenied)
	}
	if cam.DeletedAt != nil {
		return nil
	}

	if err := s.repo.SoftDelete(ctx, id, s.clock.Now()); err != nil {
		s.logger.Error("failed to delete camera", slog.String("op", op), slog.Any("error", err))
		return e.Wrap(op, err)
	}
	s.locator.forget(ctx, id)

	attrs := []any{
		slog.String("op", op),
		slog.String("camera_id", id.String()),
		slog.String("actor_id", actor.UserID),
	}
	if open, err := s.requests.HasOpenForSource(ctx, id); err != nil {
		s.logger.Warn("could not check open requests for deleted camera", slog.String("op", op), slog.Any("error", err))
	} else if open {
		attrs = append(attrs, slog.Bool("open_requests", true))
	}
	s.logger.Info("camera deleted", attrs...)
	return nil
}

// SetTrustTier records the outcome of an admin review of the camera. The tier feeds the
// trust half of the match score.
func (s *CameraService) SetTrustTier(ctx context.Context, id uuid.UUID, actor domain.Viewer, in domain.SetTrustTierRequest) (*domain.Camera, error) {
	const op = "service.CameraService.SetTrustTier"

	if !isAdmin(actor) {
		return nil, fmt.Errorf("%s: only a verified admin can review cameras: %w", op, e.ErrPermissionDenied)
	}
	if err := validator.ValidateStruct(in); err != nil {
		return nil, e.Invalid(op, validator.Describe(err))
	}

	cam, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if cam.DeletedAt != nil {
		return nil, fmt.Errorf("%s: camera %s: %w", op, id, e.ErrNotFound)
	}
	if cam.TrustTier == in.TrustTier {
		return cam, nil
	}

	now := s.clock.Now()
	if err := s.repo.UpdateTrust(ctx, id, in.TrustTier, now); err != nil {
		s.logger.Error("failed to update camera trust", slog.String("op", op), slog.Any("error", err))
		return nil, e.Wrap(op, err)
	}
	s.logger.Info("camera trust updated",
		slog.String("op", op),
		slog.String("camera_id", id.String()),
		slog.Int("from", int(cam.TrustTier)),
		slog.Int("to", int(in.TrustTier)),
		slog.String("actor_id", actor.UserID),
	)
	cam.TrustTier = in.TrustTier
	cam.UpdatedAt = now
	return cam, nil
}

func canMutate(cam *domain.Camera, actor domain.Viewer) bool {
	return (actor.UserID != "" && cam.OwnerID == actor.UserID) || isAdmin(actor)
}
