package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"camwatch/internal/domain"
	"camwatch/pkg/e"
)

type EvidenceRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const evidenceColumns = `
	id, request_id, camera_id, uploader_id, object_key, content_type, size_bytes,
	content_hash, sealed, created_at`

func (r *EvidenceRepo) Create(ctx context.Context, ev *domain.Evidence) error {
	const op = "postgres.Evidence.Create"

	_, err := r.pool.Exec(ctx, `
		INSERT INTO evidence (`+evidenceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, ev.ID, ev.RequestID, ev.CameraID, ev.UploaderID, ev.ObjectKey, ev.ContentType,
		ev.SizeBytes, ev.ContentHash, ev.Sealed, ev.CreatedAt)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (r *EvidenceRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Evidence, error) {
	const op = "postgres.Evidence.Get"

	ev, err := scanEvidence(r.pool.QueryRow(ctx, `SELECT `+evidenceColumns+` FROM evidence WHERE id = $1`, id))
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return &ev, nil
}

func (r *EvidenceRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*domain.Evidence, error) {
	const op = "postgres.Evidence.ListByRequest"

	rows, err := r.pool.Query(ctx, `SELECT `+evidenceColumns+` FROM evidence WHERE request_id = $1 ORDER BY created_at, id`, requestID)
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var out []*domain.Evidence
	for rows.Next() {
		ev, err := scanEvidence(rows)
		if err != nil {
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

func scanEvidence(row pgx.Row) (domain.Evidence, error) {
	var ev domain.Evidence
	err := row.Scan(&ev.ID, &ev.RequestID, &ev.CameraID, &ev.UploaderID, &ev.ObjectKey,
		&ev.ContentType, &ev.SizeBytes, &ev.ContentHash, &ev.Sealed, &ev.CreatedAt)
	ev.CreatedAt = ev.CreatedAt.UTC()
	return ev, err
}
