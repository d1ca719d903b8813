package service

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/custody"
	"camwatch/internal/domain"
	"camwatch/internal/lifecycle"
	"camwatch/internal/privacy"
	"camwatch/internal/storage"
	"camwatch/pkg/clock"
	"camwatch/pkg/e"
)

const enqueueTimeout = 3 * time.Second

// Upload is one footage file offered for a targeted camera of a request.
type Upload struct {
	RequestID   uuid.UUID
	CameraID    uuid.UUID
	Uploader    domain.Viewer
	ContentType string
	// Size is -1 when unknown.
	Size int64
	Body io.Reader
}

type EvidenceService struct {
	evidence storage.EvidenceRepository
	requests *lifecycle.Lifecycle
	footage  FootageStore
	custody  *custody.Manager
	queue    VerificationQueue
	privacy  *privacy.Manager
	clock    clock.Clock
	logger   *slog.Logger
}

// NewEvidenceService wires evidence intake. queue may be nil, in which case uploads are
// not verified in the background.
func NewEvidenceService(
	evidence storage.EvidenceRepository,
	requests *lifecycle.Lifecycle,
	footage FootageStore,
	cm *custody.Manager,
	queue VerificationQueue,
	pm *privacy.Manager,
	clk clock.Clock,
	logger *slog.Logger,
) *EvidenceService {
	return &EvidenceService{
		evidence: evidence,
		requests: requests,
		footage:  footage,
		custody:  cm,
		queue:    queue,
		privacy:  pm,
		clock:    clk,
		logger:   logger,
	}
}

// Upload streams the footage to object storage while hashing it, records the evidence and
// its first custody entry, and approves the camera's response with the evidence as footage.
func (s *EvidenceService) Upload(ctx context.Context, up Upload) (*domain.Evidence, *domain.FootageRequest, error) {
	const op = "service.EvidenceService.Upload"
	log := s.logger.With(
		slog.String("op", op),
		slog.String("request_id", up.RequestID.String()),
		slog.String("camera_id", up.CameraID.String()),
	)

	if up.Body == nil {
		return nil, nil, e.Invalid(op, "footage body is required")
	}
	req, err := s.requests.Get(ctx, up.RequestID)
	if err != nil {
		return nil, nil, err
	}
	idx := req.Response(up.CameraID)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%s: camera %s is not targeted by request: %w", op, up.CameraID, e.ErrNotFound)
	}
	resp := req.Responses[idx]
	if resp.OwnerID != up.Uploader.UserID {
		return nil, nil, fmt.Errorf("%s: %w", op, e.ErrPermissionDenied)
	}
	if !req.Status.Open() {
		return nil, nil, fmt.Errorf("%s: request is %s: %w", op, req.Status, e.ErrInvalidStateTransition)
	}
	if resp.Status != domain.ResponsePending && resp.Status != domain.ResponseApproved {
		return nil, nil, fmt.Errorf("%s: response already %s: %w", op, resp.Status, e.ErrInvalidStateTransition)
	}

	if up.Size == 0 {
		return nil, nil, e.Invalid(op, "footage is empty")
	}
	// Size may be unknown, so look for a first byte before anything reaches the store.
	src := bufio.NewReader(up.Body)
	if _, err := src.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, e.Invalid(op, "footage is empty")
		}
		return nil, nil, fmt.Errorf("%s: read footage: %w", op, err)
	}

	contentType := strings.TrimSpace(up.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ev := &domain.Evidence{
		ID:          uuid.New(),
		RequestID:   up.RequestID,
		CameraID:    up.CameraID,
		UploaderID:  up.Uploader.UserID,
		ContentType: contentType,
		CreatedAt:   s.clock.Now(),
	}
	ev.ObjectKey = fmt.Sprintf("requests/%s/%s/%s", ev.RequestID, ev.CameraID, ev.ID)

	h := sha256.New()
	body := &countingReader{r: io.TeeReader(src, h)}
	sealed, err := s.footage.Save(ctx, ev.ObjectKey, body, up.Size, contentType)
	if err != nil {
		log.Error("failed to store footage", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: store footage: %w: %w", op, e.ErrTransient, err)
	}
	ev.Sealed = sealed
	ev.SizeBytes = body.n
	ev.ContentHash = hex.EncodeToString(h.Sum(nil))

	if err := s.evidence.Create(ctx, ev); err != nil {
		log.Error("failed to store evidence", slog.Any("error", err))
		return nil, nil, e.Wrap(op, err)
	}
	if _, err := s.custody.RecordDigest(ctx, ev.ID, up.Uploader.UserID, domain.CustodyUploaded, ev.ContentHash); err != nil {
		log.Error("failed to open custody chain", slog.Any("error", err))
		return nil, nil, err
	}

	out, err := s.requests.Respond(ctx, up.RequestID, up.CameraID, up.Uploader.UserID, lifecycle.Decision{
		Status:     domain.ResponseApproved,
		FootageRef: ev.ID.String(),
	})
	if err != nil {
		log.Warn("footage stored but response not recorded",
			slog.String("evidence_id", ev.ID.String()),
			slog.Any("error", err),
		)
		return nil, nil, err
	}

	s.enqueueVerify(ctx, ev.ID)
	log.Info("footage uploaded",
		slog.String("evidence_id", ev.ID.String()),
		slog.Int64("size_bytes", ev.SizeBytes),
		slog.Bool("sealed", ev.Sealed),
	)
	return ev, out.Request, nil
}

// Download opens the footage for a viewer allowed to read its request and records the
// access in the custody chain first.
func (s *EvidenceService) Download(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.Evidence, io.ReadCloser, error) {
	const op = "service.EvidenceService.Download"

	ev, err := s.authorize(ctx, op, id, viewer)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.custody.RecordEvent(ctx, ev.ID, viewer.UserID, domain.CustodyAccessed, nil); err != nil {
		return nil, nil, err
	}
	rc, err := s.footage.Open(ctx, ev.ObjectKey, ev.Sealed)
	if err != nil {
		s.logger.Error("failed to open footage", slog.String("op", op), slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: %w: %w", op, e.ErrTransient, err)
	}
	return ev, rc, nil
}

func (s *EvidenceService) Get(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.Evidence, error) {
	return s.authorize(ctx, "service.EvidenceService.Get", id, viewer)
}

// Custody returns the chain of evidence. Actors other than the viewer are pseudonymised
// unless the viewer is a verified admin.
func (s *EvidenceService) Custody(ctx context.Context, id uuid.UUID, viewer domain.Viewer) ([]domain.CustodyEntry, error) {
	const op = "service.EvidenceService.Custody"

	if _, err := s.authorize(ctx, op, id, viewer); err != nil {
		return nil, err
	}
	chain, err := s.custody.Chain(ctx, id)
	if err != nil {
		return nil, err
	}
	if isAdmin(viewer) {
		return chain, nil
	}
	for i := range chain {
		if chain[i].ActorID != viewer.UserID {
			chain[i].ActorID = s.privacy.AnonymousID(chain[i].ActorID)
		}
	}
	return chain, nil
}

// Verify checks the custody chain and the stored footage of evidence against it.
func (s *EvidenceService) Verify(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.IntegrityReport, error) {
	const op = "service.EvidenceService.Verify"

	ev, err := s.authorize(ctx, op, id, viewer)
	if err != nil {
		return nil, err
	}
	chain, err := s.custody.VerifyChain(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	rc, err := s.footage.Open(ctx, ev.ObjectKey, ev.Sealed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, e.ErrTransient, err)
	}
	defer rc.Close()

	intact, err := s.custody.VerifyContent(ctx, ev.ID, rc)
	if err != nil {
		return nil, err
	}
	if !intact {
		s.logger.Warn("stored footage does not match custody record",
			slog.String("op", op),
			slog.String("evidence_id", ev.ID.String()),
			slog.Any("error", e.ErrIntegrityViolation),
		)
	}
	return &domain.IntegrityReport{EvidenceID: ev.ID, Chain: chain, ContentIntact: intact}, nil
}

func (s *EvidenceService) authorize(ctx context.Context, op string, id uuid.UUID, viewer domain.Viewer) (*domain.Evidence, error) {
	ev, err := s.evidence.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	req, err := s.requests.Get(ctx, ev.RequestID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(req, viewer) {
		return nil, fmt.Errorf("%s: %w", op, e.ErrPermissionDenied)
	}
	return ev, nil
}

func (s *EvidenceService) enqueueVerify(ctx context.Context, id uuid.UUID) {
	if s.queue == nil {
		return
	}
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	if err := s.queue.EnqueueVerify(qctx, id); err != nil {
		s.logger.Warn("failed to schedule verification",
			slog.String("evidence_id", id.String()),
			slog.Any("error", err),
		)
	}
}

func isAdmin(v domain.Viewer) bool {
	return v.Verified && (v.Role == domain.RoleAdmin || v.Role == domain.RoleSuperAdmin)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
