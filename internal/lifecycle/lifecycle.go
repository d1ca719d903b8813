// Package lifecycle runs the footage request state machine: creation from a match, owner
// responses, cancellation and expiry.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/matching"
	"camwatch/internal/storage"
	"camwatch/pkg/clock"
	"camwatch/pkg/e"
	"camwatch/pkg/keylock"
	"camwatch/pkg/validator"
)

const (
	DefaultTTL                 = 7 * 24 * time.Hour
	DefaultMinFootageApprovals = 1
	DefaultUpdateAttempts      = 5
	DefaultNotifyTimeout       = 2 * time.Second
	DefaultSweepBatch          = 100
	// DefaultWindowPad applies on both sides of the incident time when no window is given.
	DefaultWindowPad = time.Hour

	systemActor = "system"
)

type Config struct {
	TTL                 time.Duration
	MinFootageApprovals int
	UpdateAttempts      int
	NotifyTimeout       time.Duration
	SweepBatch          int
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MinFootageApprovals <= 0 {
		c.MinFootageApprovals = DefaultMinFootageApprovals
	}
	if c.UpdateAttempts <= 0 {
		c.UpdateAttempts = DefaultUpdateAttempts
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = DefaultNotifyTimeout
	}
	if c.SweepBatch <= 0 {
		c.SweepBatch = DefaultSweepBatch
	}
	return c
}

// Outcome is the stored request after an operation plus the notifications the operation produced.
type Outcome struct {
	Request       *domain.FootageRequest
	Notifications []domain.NotificationIntent
	Changed       bool
}

type Decision struct {
	Status     domain.ResponseStatus
	FootageRef string
	Reason     string
}

type Lifecycle struct {
	requests storage.RequestRepository
	cameras  storage.CameraRepository
	markers  storage.MarkerRepository
	engine   *matching.Engine
	notifier Notifier
	clock    clock.Clock
	locks    *keylock.Locker
	cfg      Config
	log      *slog.Logger
}

func New(
	requests storage.RequestRepository,
	cameras storage.CameraRepository,
	markers storage.MarkerRepository,
	engine *matching.Engine,
	notifier Notifier,
	clk clock.Clock,
	cfg Config,
	log *slog.Logger,
) *Lifecycle {
	return &Lifecycle{
		requests: requests,
		cameras:  cameras,
		markers:  markers,
		engine:   engine,
		notifier: notifier,
		clock:    clk,
		locks:    keylock.New(),
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// Create validates in, matches cameras and markers once, and stores a pending request with
// one pending response per match. The match list becomes the fixed TargetCameraIDs.
func (l *Lifecycle) Create(ctx context.Context, requester domain.Viewer, in domain.CreateFootageRequest) (*Outcome, error) {
	const op = "lifecycle.Lifecycle.Create"
	log := l.log.With(slog.String("op", op), slog.String("requester_id", requester.UserID))

	if strings.TrimSpace(requester.UserID) == "" {
		return nil, e.Invalid(op, "requester identity is required")
	}
	if err := validator.ValidateStruct(in); err != nil {
		return nil, e.Invalid(op, validator.Describe(err))
	}

	window := in.Window
	if window.Start.IsZero() && window.End.IsZero() {
		window = domain.TimeWindow{Start: in.IncidentAt.Add(-DefaultWindowPad), End: in.IncidentAt.Add(DefaultWindowPad)}
	}
	incident := matching.Incident{
		Type:     in.IncidentType,
		Location: in.IncidentLocation,
		RadiusM:  in.SearchRadiusM,
		Window:   window,
	}
	if err := incident.Validate(); err != nil {
		return nil, err
	}

	cameras, err := l.cameras.Within(ctx, incident.Location, incident.RadiusM)
	if err != nil {
		log.Error("camera registry lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: camera lookup: %w: %w", op, e.ErrTransient, err)
	}
	markers, err := l.markers.Within(ctx, incident.Location, incident.RadiusM)
	if err != nil {
		log.Error("marker lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: marker lookup: %w: %w", op, e.ErrTransient, err)
	}

	matches, err := l.engine.FindCandidates(incident, cameras, markers)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now()
	req := &domain.FootageRequest{
		ID:                 uuid.New(),
		IncidentType:       in.IncidentType,
		IncidentAt:         in.IncidentAt,
		Window:             window,
		Description:        in.Description,
		PoliceReportNumber: in.PoliceReportNumber,
		Priority:           in.Priority,
		RequesterID:        requester.UserID,
		RequesterRole:      requester.Role,
		IncidentLocation:   in.IncidentLocation,
		SearchRadiusM:      in.SearchRadiusM,
		TargetCameraIDs:    make([]uuid.UUID, 0, len(matches)),
		Responses:          make([]domain.CameraResponse, 0, len(matches)),
		Status:             domain.RequestPending,
		StatusHistory:      []domain.StatusChange{{Status: domain.RequestPending, ChangedAt: now, ChangedBy: requester.UserID}},
		CreatedAt:          now,
		UpdatedAt:          now,
		ExpiresAt:          now.Add(l.cfg.TTL),
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	if len(matches) == 0 {
		req.ExpiresAt = now
	}

	var intents []domain.NotificationIntent
	notified := make(map[string]bool)
	for i, m := range matches {
		req.TargetCameraIDs = append(req.TargetCameraIDs, m.SourceID)
		req.Responses = append(req.Responses, domain.CameraResponse{
			RequestID: req.ID,
			CameraID:  m.SourceID,
			Kind:      m.Kind,
			OwnerID:   m.OwnerID,
			Rank:      i,
			Status:    domain.ResponsePending,
		})
		if !notified[m.OwnerID] {
			notified[m.OwnerID] = true
			intents = append(intents, intent(m.OwnerID, domain.NotifyNewRequest, req.ID, cameraRef(m.SourceID), now))
		}
	}

	if err := l.requests.Create(ctx, req); err != nil {
		log.Error("failed to store request", slog.Any("error", err))
		return nil, e.Wrap(op, err)
	}
	log.Info("footage request created",
		slog.String("request_id", req.ID.String()),
		slog.Int("targets", len(req.TargetCameraIDs)),
	)

	l.markMatched(ctx, matches)
	l.dispatch(ctx, intents)
	return &Outcome{Request: req, Notifications: intents, Changed: true}, nil
}

// Respond records the decision of the owner of cameraID. Only that owner may respond, and
// only while the request is pending or approved.
func (l *Lifecycle) Respond(ctx context.Context, requestID, cameraID uuid.UUID, actorID string, d Decision) (*Outcome, error) {
	const op = "lifecycle.Lifecycle.Respond"

	switch d.Status {
	case domain.ResponseApproved, domain.ResponseDenied, domain.ResponseNoFootage:
	default:
		return nil, e.Invalid(op, fmt.Sprintf("unsupported decision %q", d.Status))
	}

	return l.mutate(ctx, op, requestID, func(req *domain.FootageRequest, now time.Time) ([]domain.NotificationIntent, error) {
		if !req.Status.Open() {
			return nil, fmt.Errorf("%s: request is %s: %w", op, req.Status, e.ErrInvalidStateTransition)
		}
		idx := req.Response(cameraID)
		if idx < 0 {
			return nil, fmt.Errorf("%s: camera %s is not targeted by request: %w", op, cameraID, e.ErrNotFound)
		}
		resp := &req.Responses[idx]
		if resp.OwnerID != actorID {
			return nil, fmt.Errorf("%s: %w", op, e.ErrPermissionDenied)
		}

		switch {
		case resp.Status == domain.ResponsePending:
		case resp.Status == domain.ResponseApproved && d.Status == domain.ResponseApproved:
			if d.FootageRef == "" || d.FootageRef == resp.FootageRef {
				return nil, e.Invalid(op, "an approved response can only be updated with new footage")
			}
		default:
			return nil, fmt.Errorf("%s: response already %s: %w", op, resp.Status, e.ErrInvalidStateTransition)
		}

		resp.Status = d.Status
		resp.Reason = d.Reason
		if d.Status == domain.ResponseApproved {
			if d.FootageRef != "" {
				resp.FootageRef = d.FootageRef
			}
		} else {
			resp.FootageRef = ""
		}
		at := now
		resp.RespondedAt = &at

		intents := []domain.NotificationIntent{
			intent(req.RequesterID, responseNotification(resp), req.ID, cameraRef(cameraID), now),
		}

		next := l.aggregate(req)
		if next != req.Status {
			appendStatus(req, next, now, actorID, "")
			intents = append(intents, intent(req.RequesterID, statusNotification(next), req.ID, nil, now))
		}
		return intents, nil
	})
}

// Cancel moves a pending or approved request to cancelled. Only the requester may cancel.
func (l *Lifecycle) Cancel(ctx context.Context, requestID uuid.UUID, actorID, reason string) (*Outcome, error) {
	const op = "lifecycle.Lifecycle.Cancel"

	return l.mutate(ctx, op, requestID, func(req *domain.FootageRequest, now time.Time) ([]domain.NotificationIntent, error) {
		if req.RequesterID != actorID {
			return nil, fmt.Errorf("%s: only the requester may cancel: %w", op, e.ErrPermissionDenied)
		}
		if !req.Status.Open() {
			return nil, fmt.Errorf("%s: request is %s: %w", op, req.Status, e.ErrInvalidStateTransition)
		}
		appendStatus(req, domain.RequestCancelled, now, actorID, reason)

		var intents []domain.NotificationIntent
		notified := make(map[string]bool)
		for _, resp := range req.Responses {
			if resp.Status == domain.ResponsePending && !notified[resp.OwnerID] {
				notified[resp.OwnerID] = true
				intents = append(intents, intent(resp.OwnerID, domain.NotifyRequestCancelled, req.ID, cameraRef(resp.CameraID), now))
			}
		}
		return intents, nil
	})
}

// Expire expires the request if it is due. Calling it on a request that is not due or
// already expired changes nothing.
func (l *Lifecycle) Expire(ctx context.Context, requestID uuid.UUID) (*Outcome, error) {
	const op = "lifecycle.Lifecycle.Expire"

	return l.mutate(ctx, op, requestID, func(*domain.FootageRequest, time.Time) ([]domain.NotificationIntent, error) {
		return nil, nil
	})
}

// SweepExpired expires every due request and returns how many it expired.
func (l *Lifecycle) SweepExpired(ctx context.Context) (int, error) {
	const op = "lifecycle.Lifecycle.SweepExpired"
	log := l.log.With(slog.String("op", op))

	ids, err := l.requests.ListDue(ctx, l.clock.Now(), l.cfg.SweepBatch)
	if err != nil {
		log.Error("failed to list due requests", slog.Any("error", err))
		return 0, e.Wrap(op, err)
	}

	expired := 0
	var errs []error
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		out, err := l.Expire(ctx, id)
		if err != nil {
			log.Warn("failed to expire request", slog.String("request_id", id.String()), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		if out.Changed {
			expired++
		}
	}
	if expired > 0 {
		log.Info("expired requests", slog.Int("count", expired))
	}
	return expired, errors.Join(errs...)
}

// Get returns the request, expiring it first when it is due.
func (l *Lifecycle) Get(ctx context.Context, requestID uuid.UUID) (*domain.FootageRequest, error) {
	const op = "lifecycle.Lifecycle.Get"

	req, err := l.requests.Get(ctx, requestID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if !req.DueForExpiry(l.clock.Now()) {
		return req, nil
	}
	out, err := l.Expire(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return out.Request, nil
}

func (l *Lifecycle) ListByRequester(ctx context.Context, requesterID string) ([]*domain.FootageRequest, error) {
	const op = "lifecycle.Lifecycle.ListByRequester"

	reqs, err := l.requests.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return l.expireListed(ctx, reqs)
}

// ListForOwner returns requests that target any camera or marker of ownerID.
func (l *Lifecycle) ListForOwner(ctx context.Context, ownerID string) ([]*domain.FootageRequest, error) {
	const op = "lifecycle.Lifecycle.ListForOwner"

	reqs, err := l.requests.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return l.expireListed(ctx, reqs)
}

// CanView reports whether viewer may read req: its requester, a targeted owner, or an admin.
func CanView(req *domain.FootageRequest, viewer domain.Viewer) bool {
	if viewer.UserID == "" {
		return false
	}
	if req.RequesterID == viewer.UserID {
		return true
	}
	if viewer.Role == domain.RoleAdmin || viewer.Role == domain.RoleSuperAdmin {
		return viewer.Verified
	}
	for _, resp := range req.Responses {
		if resp.OwnerID == viewer.UserID {
			return true
		}
	}
	return false
}

func (l *Lifecycle) expireListed(ctx context.Context, reqs []*domain.FootageRequest) ([]*domain.FootageRequest, error) {
	now := l.clock.Now()
	for i, req := range reqs {
		if !req.DueForExpiry(now) {
			continue
		}
		out, err := l.Expire(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		reqs[i] = out.Request
	}
	return reqs, nil
}

type mutation func(req *domain.FootageRequest, now time.Time) ([]domain.NotificationIntent, error)

// mutate is the single write path for an existing request. It serializes writers per
// request in process, retries on version conflicts from other processes, applies lazy
// expiry before fn, and dispatches notifications only after the write is stored.
func (l *Lifecycle) mutate(ctx context.Context, op string, id uuid.UUID, fn mutation) (*Outcome, error) {
	log := l.log.With(slog.String("op", op), slog.String("request_id", id.String()))

	unlock := l.locks.Lock(id.String())
	defer unlock()

	for attempt := 1; ; attempt++ {
		req, err := l.requests.Get(ctx, id)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		now := l.clock.Now()
		before := len(req.StatusHistory)

		var intents []domain.NotificationIntent
		expired := false
		if req.DueForExpiry(now) {
			appendStatus(req, domain.RequestExpired, now, systemActor, "request expired")
			intents = append(intents, intent(req.RequesterID, domain.NotifyRequestExpired, req.ID, nil, now))
			expired = true
		}

		more, fnErr := fn(req, now)
		if fnErr != nil && !expired {
			return nil, fnErr
		}
		if fnErr != nil {
			// Keep the lazy expiry even though the requested change was rejected.
			req = l.reloadExpired(ctx, id, now)
			if req == nil {
				return nil, fnErr
			}
			intents = intents[:1]
		} else {
			intents = append(intents, more...)
		}

		changed := len(req.StatusHistory) != before || len(more) > 0
		if !changed {
			return &Outcome{Request: req}, nil
		}

		req.UpdatedAt = now
		err = l.requests.Update(ctx, req)
		if err == nil {
			log.Info("request updated", slog.String("status", string(req.Status)), slog.Int64("version", req.Version))
			l.dispatch(ctx, intents)
			if fnErr != nil {
				return nil, fnErr
			}
			return &Outcome{Request: req, Notifications: intents, Changed: true}, nil
		}
		if !errors.Is(err, e.ErrConflict) || attempt >= l.cfg.UpdateAttempts {
			log.Error("failed to update request", slog.Any("error", err), slog.Int("attempt", attempt))
			return nil, e.Wrap(op, err)
		}
		log.Warn("request version moved, retrying", slog.Int("attempt", attempt))
	}
}

// reloadExpired re-reads the request and applies only the expiry, discarding any partial
// change fn made before it failed.
func (l *Lifecycle) reloadExpired(ctx context.Context, id uuid.UUID, now time.Time) *domain.FootageRequest {
	req, err := l.requests.Get(ctx, id)
	if err != nil || !req.DueForExpiry(now) {
		return nil
	}
	appendStatus(req, domain.RequestExpired, now, systemActor, "request expired")
	return req
}

// aggregate derives the request status from its responses.
func (l *Lifecycle) aggregate(req *domain.FootageRequest) domain.RequestStatus {
	withFootage, approved, pending := 0, 0, 0
	for _, resp := range req.Responses {
		switch resp.Status {
		case domain.ResponseApproved:
			approved++
			if resp.HasFootage() {
				withFootage++
			}
		case domain.ResponsePending:
			pending++
		}
	}
	switch {
	case withFootage >= l.cfg.MinFootageApprovals:
		return domain.RequestFulfilled
	case approved > 0:
		return domain.RequestApproved
	case pending == 0 && len(req.Responses) > 0:
		return domain.RequestDenied
	default:
		return req.Status
	}
}

func appendStatus(req *domain.FootageRequest, status domain.RequestStatus, now time.Time, actor, reason string) {
	req.Status = status
	req.StatusHistory = append(req.StatusHistory, domain.StatusChange{
		Status:    status,
		ChangedAt: now,
		ChangedBy: actor,
		Reason:    reason,
	})
}

func responseNotification(resp *domain.CameraResponse) domain.NotificationType {
	switch resp.Status {
	case domain.ResponseApproved:
		return domain.NotifyResponseApproved
	case domain.ResponseDenied:
		return domain.NotifyResponseDenied
	default:
		return domain.NotifyNoFootage
	}
}

func statusNotification(s domain.RequestStatus) domain.NotificationType {
	switch s {
	case domain.RequestFulfilled:
		return domain.NotifyRequestFulfilled
	case domain.RequestApproved:
		return domain.NotifyRequestApproved
	default:
		return domain.NotifyRequestDenied
	}
}

// markMatched flags offered markers as matched. Failures only affect listings.
func (l *Lifecycle) markMatched(ctx context.Context, matches []domain.EvidenceMatch) {
	for _, m := range matches {
		if m.Kind != domain.SourceMarker {
			continue
		}
		marker, err := l.markers.Get(ctx, m.SourceID)
		if err != nil || marker.Status != domain.MarkerActive {
			continue
		}
		marker.Status = domain.MarkerMatched
		if err := l.markers.Update(ctx, marker); err != nil {
			l.log.Warn("failed to mark marker matched",
				slog.String("marker_id", m.SourceID.String()),
				slog.Any("error", err),
			)
		}
	}
}

// dispatch hands intents to the notifier without letting a slow or failed delivery reach
// the caller. The caller's cancellation does not abort delivery of a stored transition.
func (l *Lifecycle) dispatch(ctx context.Context, intents []domain.NotificationIntent) {
	if len(intents) == 0 || l.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.NotifyTimeout)
	defer cancel()
	if err := l.notifier.Notify(ctx, intents); err != nil {
		l.log.Warn("notification dispatch failed",
			slog.Int("intents", len(intents)),
			slog.Any("error", fmt.Errorf("%w: %w", e.ErrTransient, err)),
		)
	}
}
