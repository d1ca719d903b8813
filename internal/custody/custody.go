// Package custody keeps the append-only, hash-linked handling record of each piece of evidence.
package custody

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/storage"
	"camwatch/pkg/clock"
	"camwatch/pkg/e"
	"camwatch/pkg/keylock"
)

const appendAttempts = 3

type Manager struct {
	repo  storage.CustodyRepository
	clock clock.Clock
	locks *keylock.Locker
	log   *slog.Logger
}

func NewManager(repo storage.CustodyRepository, clk clock.Clock, log *slog.Logger) *Manager {
	return &Manager{
		repo:  repo,
		clock: clk,
		locks: keylock.New(),
		log:   log,
	}
}

// RecordEvent appends an entry for evidenceID. contentHash is the digest of payload; a nil
// payload carries the previous entry's content hash forward and is not allowed on an empty chain.
func (m *Manager) RecordEvent(ctx context.Context, evidenceID uuid.UUID, actorID string, action domain.CustodyAction, payload io.Reader) (domain.CustodyEntry, error) {
	const op = "custody.Manager.RecordEvent"

	if action == domain.CustodyCorrected {
		return domain.CustodyEntry{}, e.Invalid(op, "corrections must reference an entry")
	}
	sum, err := hashPayload(op, payload)
	if err != nil {
		return domain.CustodyEntry{}, err
	}
	return m.record(ctx, op, domain.CustodyEntry{
		EvidenceID: evidenceID,
		ActorID:    actorID,
		Action:     action,
	}, sum)
}

// RecordDigest appends an entry whose content hash was computed by the caller while the
// payload streamed elsewhere.
func (m *Manager) RecordDigest(ctx context.Context, evidenceID uuid.UUID, actorID string, action domain.CustodyAction, contentHash string) (domain.CustodyEntry, error) {
	const op = "custody.Manager.RecordDigest"

	if action == domain.CustodyCorrected {
		return domain.CustodyEntry{}, e.Invalid(op, "corrections must reference an entry")
	}
	if !isDigest(contentHash) {
		return domain.CustodyEntry{}, e.Invalid(op, "content hash must be 64 lowercase hex characters")
	}
	return m.record(ctx, op, domain.CustodyEntry{
		EvidenceID: evidenceID,
		ActorID:    actorID,
		Action:     action,
	}, contentHash)
}

// RecordCorrection appends a corrected entry that references correctsIndex. The original
// entry is left untouched.
func (m *Manager) RecordCorrection(ctx context.Context, evidenceID uuid.UUID, actorID string, correctsIndex int, note string, payload io.Reader) (domain.CustodyEntry, error) {
	const op = "custody.Manager.RecordCorrection"

	if strings.TrimSpace(note) == "" {
		return domain.CustodyEntry{}, e.Invalid(op, "a correction needs a note")
	}
	if correctsIndex < 0 {
		return domain.CustodyEntry{}, e.Invalid(op, "corrected index must not be negative")
	}
	sum, err := hashPayload(op, payload)
	if err != nil {
		return domain.CustodyEntry{}, err
	}
	idx := correctsIndex
	return m.record(ctx, op, domain.CustodyEntry{
		EvidenceID:    evidenceID,
		ActorID:       actorID,
		Action:        domain.CustodyCorrected,
		CorrectsIndex: &idx,
		Note:          note,
	}, sum)
}

func (m *Manager) record(ctx context.Context, op string, en domain.CustodyEntry, contentHash string) (domain.CustodyEntry, error) {
	log := m.log.With(slog.String("op", op), slog.String("evidence_id", en.EvidenceID.String()))

	if en.EvidenceID == uuid.Nil {
		return domain.CustodyEntry{}, e.Invalid(op, "evidence id is required")
	}
	if strings.TrimSpace(en.ActorID) == "" {
		return domain.CustodyEntry{}, e.Invalid(op, "actor id is required")
	}
	if !en.Action.Valid() {
		return domain.CustodyEntry{}, e.Invalid(op, fmt.Sprintf("unknown action %q", en.Action))
	}

	unlock := m.locks.Lock(en.EvidenceID.String())
	defer unlock()

	for attempt := 1; ; attempt++ {
		tail, err := m.repo.Tail(ctx, en.EvidenceID)
		if err != nil {
			log.Error("failed to load chain tail", slog.Any("error", err))
			return domain.CustodyEntry{}, e.Wrap(op, err)
		}

		next := en
		next.ContentHash = contentHash
		next.PreviousEntryHash = GenesisHash
		if tail != nil {
			if tail.Action == domain.CustodyDisposed {
				return domain.CustodyEntry{}, fmt.Errorf("%s: evidence already disposed: %w", op, e.ErrInvalidStateTransition)
			}
			if next.CorrectsIndex != nil && *next.CorrectsIndex > tail.Index {
				return domain.CustodyEntry{}, e.Invalid(op, "corrected index does not exist")
			}
			next.Index = tail.Index + 1
			next.PreviousEntryHash = tail.EntryHash
			if contentHash == "" {
				next.ContentHash = tail.ContentHash
			}
		} else {
			if contentHash == "" {
				return domain.CustodyEntry{}, e.Invalid(op, "the first entry needs the evidence payload")
			}
			if next.CorrectsIndex != nil {
				return domain.CustodyEntry{}, e.Invalid(op, "corrected index does not exist")
			}
		}
		// Stored timestamps keep microseconds, so hash what will be read back.
		next.Timestamp = m.clock.Now().UTC().Truncate(time.Microsecond)
		next.EntryHash = HashEntry(next)

		err = m.repo.Append(ctx, next)
		if err == nil {
			log.Info("custody entry recorded", slog.Int("index", next.Index), slog.String("action", string(next.Action)))
			return next, nil
		}
		if !errors.Is(err, e.ErrConflict) || attempt == appendAttempts {
			log.Error("failed to append custody entry", slog.Any("error", err), slog.Int("attempt", attempt))
			return domain.CustodyEntry{}, e.Wrap(op, err)
		}
		log.Warn("chain tail moved, retrying", slog.Int("attempt", attempt))
	}
}

// Chain returns the stored entries for evidenceID.
func (m *Manager) Chain(ctx context.Context, evidenceID uuid.UUID) ([]domain.CustodyEntry, error) {
	const op = "custody.Manager.Chain"

	entries, err := m.repo.Chain(ctx, evidenceID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return entries, nil
}

// VerifyChain recomputes the chain from genesis and reports the first index whose link or
// hash does not match. An empty chain is valid. A broken chain is reported, never repaired.
func (m *Manager) VerifyChain(ctx context.Context, evidenceID uuid.UUID) (domain.ChainVerification, error) {
	const op = "custody.Manager.VerifyChain"

	entries, err := m.repo.Chain(ctx, evidenceID)
	if err != nil {
		return domain.ChainVerification{}, e.Wrap(op, err)
	}

	res := Verify(entries)
	if !res.Valid {
		m.log.Warn("custody chain broken",
			slog.String("op", op),
			slog.String("evidence_id", evidenceID.String()),
			slog.Int("broken_at_index", *res.BrokenAtIndex),
			slog.Any("error", e.ErrIntegrityViolation),
		)
	}
	return res, nil
}

// EnsureIntact is VerifyChain returning e.ErrIntegrityViolation for a broken chain.
func (m *Manager) EnsureIntact(ctx context.Context, evidenceID uuid.UUID) error {
	const op = "custody.Manager.EnsureIntact"

	res, err := m.VerifyChain(ctx, evidenceID)
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("%s: chain broken at index %d: %w", op, *res.BrokenAtIndex, e.ErrIntegrityViolation)
	}
	return nil
}

// VerifyContent hashes payload and compares it with the content hash of the last entry.
func (m *Manager) VerifyContent(ctx context.Context, evidenceID uuid.UUID, payload io.Reader) (bool, error) {
	const op = "custody.Manager.VerifyContent"

	tail, err := m.repo.Tail(ctx, evidenceID)
	if err != nil {
		return false, e.Wrap(op, err)
	}
	if tail == nil {
		return false, fmt.Errorf("%s: no custody record: %w", op, e.ErrNotFound)
	}
	sum, _, err := HashContent(payload)
	if err != nil {
		return false, e.Wrap(op, err)
	}
	return sum == tail.ContentHash, nil
}

// Verify checks a chain already loaded in index order.
func Verify(entries []domain.CustodyEntry) domain.ChainVerification {
	prev := GenesisHash
	for i, en := range entries {
		recomputed := HashEntry(en)
		if en.Index != i || en.PreviousEntryHash != prev || en.EntryHash != recomputed {
			at := i
			return domain.ChainVerification{Valid: false, Length: len(entries), BrokenAtIndex: &at}
		}
		prev = recomputed
	}
	return domain.ChainVerification{Valid: true, Length: len(entries)}
}
