package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"camwatch/internal/custody"
	"camwatch/internal/domain"
	"camwatch/internal/objectstore"
	"camwatch/internal/queue"
	"camwatch/internal/storage"
	"camwatch/pkg/e"
)

// VerifierActor is the custody actor recorded for automated verification.
const VerifierActor = "system:verifier"

// EvidenceVerifier re-reads stored footage, checks it against the custody chain and
// records a verified entry.
type EvidenceVerifier struct {
	evidence storage.EvidenceRepository
	footage  *objectstore.FootageStore
	custody  *custody.Manager
	logger   *slog.Logger
}

func NewEvidenceVerifier(evidence storage.EvidenceRepository, footage *objectstore.FootageStore, cm *custody.Manager, logger *slog.Logger) *EvidenceVerifier {
	return &EvidenceVerifier{
		evidence: evidence,
		footage:  footage,
		custody:  cm,
		logger:   logger,
	}
}

func (v *EvidenceVerifier) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.VerifyEvidenceTask, v.handleVerify)
	return mux
}

func (v *EvidenceVerifier) handleVerify(ctx context.Context, task *asynq.Task) error {
	p, err := queue.ParseVerifyPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	err = v.Verify(ctx, p.EvidenceID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, e.ErrIntegrityViolation), errors.Is(err, e.ErrNotFound):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}

// Verify checks the chain and the stored bytes of one piece of evidence. A disposed chain
// is left alone.
func (v *EvidenceVerifier) Verify(ctx context.Context, evidenceID uuid.UUID) error {
	const op = "workers.EvidenceVerifier.Verify"

	log := v.logger.With(slog.String("op", op), slog.String("evidence_id", evidenceID.String()))

	ev, err := v.evidence.Get(ctx, evidenceID)
	if err != nil {
		return e.Wrap(op, err)
	}
	if err := v.custody.EnsureIntact(ctx, evidenceID); err != nil {
		log.Error("custody chain broken", slog.Any("error", err))
		return err
	}

	rc, err := v.footage.Open(ctx, ev.ObjectKey, ev.Sealed)
	if err != nil {
		return e.Wrap(op, err)
	}
	ok, err := v.custody.VerifyContent(ctx, evidenceID, rc)
	_ = rc.Close()
	if err != nil {
		return err
	}
	if !ok {
		log.Error("stored footage does not match custody record", slog.String("object_key", ev.ObjectKey))
		return fmt.Errorf("%s: footage hash mismatch: %w", op, e.ErrIntegrityViolation)
	}

	if _, err := v.custody.RecordEvent(ctx, evidenceID, VerifierActor, domain.CustodyVerified, nil); err != nil {
		if errors.Is(err, e.ErrInvalidStateTransition) {
			log.Info("evidence disposed, verification not recorded")
			return nil
		}
		return err
	}
	log.Info("evidence verified")
	return nil
}
