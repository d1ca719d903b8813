package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/geo"
	"camwatch/internal/privacy"
	"camwatch/internal/storage"
	"camwatch/pkg/clock"
	"camwatch/pkg/e"
	"camwatch/pkg/validator"
)

const (
	DefaultMarkerTTL = 14 * 24 * time.Hour

	markerTrustVerified   = 80
	markerTrustUnverified = 60
	// recordings stamped slightly ahead of the server clock are accepted
	markerClockSkew = 5 * time.Minute
)

type MarkerService struct {
	repo    storage.MarkerRepository
	locator publicLocator
	ttl     time.Duration
	clock   clock.Clock
	logger  *slog.Logger
}

func NewMarkerService(
	repo storage.MarkerRepository,
	pm *privacy.Manager,
	cache LocationCache,
	ttl time.Duration,
	clk clock.Clock,
	logger *slog.Logger,
) *MarkerService {
	if cache == nil {
		cache = noCache{}
	}
	if ttl <= 0 {
		ttl = DefaultMarkerTTL
	}
	return &MarkerService{
		repo:    repo,
		locator: publicLocator{privacy: pm, cache: cache, logger: logger},
		ttl:     ttl,
		clock:   clk,
		logger:  logger,
	}
}

func (s *MarkerService) Register(ctx context.Context, owner domain.Viewer, in domain.RegisterMarkerRequest) (*domain.Marker, error) {
	const op = "service.MarkerService.Register"

	if strings.TrimSpace(owner.UserID) == "" {
		return nil, e.Invalid(op, "owner identity is required")
	}
	if err := validator.ValidateStruct(in); err != nil {
		return nil, e.Invalid(op, validator.Describe(err))
	}
	if !geo.Valid(in.Location) {
		return nil, e.Wrap(op, e.ErrInvalidCoordinates)
	}
	now := s.clock.Now()
	if in.RecordedAt.After(now.Add(markerClockSkew)) {
		return nil, e.Invalid(op, "recorded_at is in the future")
	}

	trust := markerTrustUnverified
	if owner.Verified {
		trust = markerTrustVerified
	}
	m := &domain.Marker{
		ID:             uuid.New(),
		OwnerID:        owner.UserID,
		Location:       in.Location,
		PublicLocation: s.locator.privacy.StoredPublicLocation(in.Location),
		RecordedAt:     in.RecordedAt.UTC(),
		DeviceType:     in.DeviceType,
		Description:    in.Description,
		Status:         domain.MarkerActive,
		Verified:       owner.Verified,
		TrustScore:     trust,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		s.logger.Error("failed to register marker", slog.String("op", op), slog.Any("error", err))
		return nil, e.Wrap(op, err)
	}
	s.logger.Info("marker registered", slog.String("op", op), slog.String("marker_id", m.ID.String()))
	return m, nil
}

// Get shows the marker to viewer. Its precise point is disclosed only to the owner and to
// requesters the owner confirmed.
func (s *MarkerService) Get(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.MarkerView, error) {
	const op = "service.MarkerService.Get"

	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	owned := viewer.UserID != "" && m.OwnerID == viewer.UserID
	if m.Status == domain.MarkerWithdrawn && !owned {
		return nil, fmt.Errorf("%s: marker %s: %w", op, id, e.ErrNotFound)
	}

	loc, precise := s.locator.resolve(ctx, m.ID, m, viewer)
	status := m.Status
	if status != domain.MarkerWithdrawn && !m.Matchable(s.clock.Now()) {
		status = domain.MarkerExpired
	}
	return &domain.MarkerView{
		ID:         m.ID,
		Location:   loc,
		Precise:    precise,
		RecordedAt: m.RecordedAt,
		DeviceType: m.DeviceType,
		Status:     status,
		Verified:   m.Verified,
		ExpiresAt:  m.ExpiresAt,
		Owned:      owned,
	}, nil
}

func (s *MarkerService) ListOwn(ctx context.Context, ownerID string) ([]*domain.Marker, error) {
	const op = "service.MarkerService.ListOwn"

	ms, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return ms, nil
}

// ConfirmRequester lets requesterID see the precise location of the marker.
func (s *MarkerService) ConfirmRequester(ctx context.Context, id uuid.UUID, ownerID, requesterID string) (*domain.Marker, error) {
	const op = "service.MarkerService.ConfirmRequester"

	if strings.TrimSpace(requesterID) == "" {
		return nil, e.Invalid(op, "requester id is required")
	}
	m, err := s.owned(ctx, op, id, ownerID)
	if err != nil {
		return nil, err
	}
	if m.Status == domain.MarkerWithdrawn || m.Status == domain.MarkerExpired {
		return nil, fmt.Errorf("%s: marker is %s: %w", op, m.Status, e.ErrInvalidStateTransition)
	}
	if slices.Contains(m.ConfirmedRequesters, requesterID) {
		return m, nil
	}
	m.ConfirmedRequesters = append(m.ConfirmedRequesters, requesterID)
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, e.Wrap(op, err)
	}
	s.logger.Info("marker disclosed to requester",
		slog.String("op", op),
		slog.String("marker_id", id.String()),
		slog.String("requester_id", requesterID),
	)
	return m, nil
}

// Withdraw removes the marker from matching. Requests that already target it keep their
// response.
func (s *MarkerService) Withdraw(ctx context.Context, id uuid.UUID, ownerID string) error {
	const op = "service.MarkerService.Withdraw"

	m, err := s.owned(ctx, op, id, ownerID)
	if err != nil {
		return err
	}
	switch m.Status {
	case domain.MarkerWithdrawn:
		return nil
	case domain.MarkerExpired:
		return fmt.Errorf("%s: marker already expired: %w", op, e.ErrInvalidStateTransition)
	}
	m.Status = domain.MarkerWithdrawn
	if err := s.repo.Update(ctx, m); err != nil {
		return e.Wrap(op, err)
	}
	s.locator.forget(ctx, id)
	return nil
}

// ExpireMarkers marks markers past their expiry as expired.
func (s *MarkerService) ExpireMarkers(ctx context.Context) (int64, error) {
	const op = "service.MarkerService.ExpireMarkers"

	n, err := s.repo.ExpireDue(ctx, s.clock.Now())
	if err != nil {
		return 0, e.Wrap(op, err)
	}
	return n, nil
}

func (s *MarkerService) owned(ctx context.Context, op string, id uuid.UUID, ownerID string) (*domain.Marker, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if m.OwnerID != ownerID {
		return nil, fmt.Errorf("%s: %w", op, e.ErrPermissionDenied)
	}
	return m, nil
}
