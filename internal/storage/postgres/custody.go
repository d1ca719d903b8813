package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"camwatch/internal/domain"
	"camwatch/pkg/e"
)

type CustodyRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const custodyColumns = `
	evidence_id, idx, actor_id, action, ts, content_hash, previous_entry_hash,
	entry_hash, corrects_index, note`

func (r *CustodyRepo) Chain(ctx context.Context, evidenceID uuid.UUID) ([]domain.CustodyEntry, error) {
	const op = "postgres.Custody.Chain"

	rows, err := r.pool.Query(ctx, `SELECT `+custodyColumns+` FROM custody_entries WHERE evidence_id = $1 ORDER BY idx`, evidenceID)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var out []domain.CustodyEntry
	for rows.Next() {
		en, err := scanCustody(rows)
		if err != nil {
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, en)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

func (r *CustodyRepo) Tail(ctx context.Context, evidenceID uuid.UUID) (*domain.CustodyEntry, error) {
	const op = "postgres.Custody.Tail"

	en, err := scanCustody(r.pool.QueryRow(ctx, `
		SELECT `+custodyColumns+`
		FROM custody_entries
		WHERE evidence_id = $1
		ORDER BY idx DESC
		LIMIT 1
	`, evidenceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return &en, nil
}

// Append serializes writers of one chain with a transaction-scoped advisory lock, then
// checks that the caller saw the current tail.
func (r *CustodyRepo) Append(ctx context.Context, en domain.CustodyEntry) error {
	const op = "postgres.Custody.Append"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return e.WrapError(ctx, op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, en.EvidenceID.String()); err != nil {
		return e.WrapError(ctx, op, err)
	}

	tailHash := domain.GenesisHash
	tailIndex := -1
	err = tx.QueryRow(ctx, `
		SELECT entry_hash, idx
		FROM custody_entries
		WHERE evidence_id = $1
		ORDER BY idx DESC
		LIMIT 1
	`, en.EvidenceID).Scan(&tailHash, &tailIndex)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return e.WrapError(ctx, op, err)
	}
	if tailHash != en.PreviousEntryHash || tailIndex+1 != en.Index {
		return fmt.Errorf("%s: chain tail moved: %w", op, e.ErrConflict)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO custody_entries (`+custodyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, en.EvidenceID, en.Index, en.ActorID, string(en.Action), en.Timestamp, en.ContentHash,
		en.PreviousEntryHash, en.EntryHash, en.CorrectsIndex, en.Note)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		if errors.Is(e.WrapError(ctx, op, err), e.ErrUniqueViolation) {
			return fmt.Errorf("%s: index %d taken: %w", op, en.Index, e.ErrConflict)
		}
		return e.WrapError(ctx, op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func scanCustody(row pgx.Row) (domain.CustodyEntry, error) {
	var (
		en      domain.CustodyEntry
		action  string
		correct *int32
	)
	err := row.Scan(&en.EvidenceID, &en.Index, &en.ActorID, &action, &en.Timestamp,
		&en.ContentHash, &en.PreviousEntryHash, &en.EntryHash, &correct, &en.Note)
	if err != nil {
		return en, err
	}
	en.Action = domain.CustodyAction(action)
	en.Timestamp = en.Timestamp.UTC()
	if correct != nil {
		idx := int(*correct)
		en.CorrectsIndex = &idx
	}
	return en, nil
}
