package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"camwatch/internal/domain"
	"camwatch/internal/storage"
	"camwatch/pkg/e"
)

type MarkerRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const markerColumns = `
	id, owner_id,
	ST_Y(geo_point::geometry), ST_X(geo_point::geometry),
	public_lat, public_lng, recorded_at, device_type, description, status,
	verified, trust_score, confirmed_requesters, created_at, expires_at`

func (r *MarkerRepo) Create(ctx context.Context, m *domain.Marker) error {
	const op = "postgres.Marker.Create"

	const query = `
		INSERT INTO markers (
			id, owner_id, geo_point, public_lat, public_lng, recorded_at, device_type,
			description, status, verified, trust_score, confirmed_requesters, created_at, expires_at
		)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326), $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.pool.Exec(ctx, query,
		m.ID, m.OwnerID, m.Location.Lng, m.Location.Lat,
		m.PublicLocation.Lat, m.PublicLocation.Lng, m.RecordedAt, string(m.DeviceType),
		m.Description, string(m.Status), m.Verified, m.TrustScore, nonNil(m.ConfirmedRequesters),
		m.CreatedAt, m.ExpiresAt,
	)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (r *MarkerRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Marker, error) {
	const op = "postgres.Marker.Get"

	m, err := scanMarker(r.pool.QueryRow(ctx, `SELECT `+markerColumns+` FROM markers WHERE id = $1`, id))
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return &m, nil
}

// Update writes the mutable fields of a marker. Location and recording time never change.
func (r *MarkerRepo) Update(ctx context.Context, m *domain.Marker) error {
	const op = "postgres.Marker.Update"

	tag, err := r.pool.Exec(ctx, `
		UPDATE markers
		SET description = $2, status = $3, verified = $4, trust_score = $5,
			confirmed_requesters = $6, expires_at = $7
		WHERE id = $1
	`, m.ID, m.Description, string(m.Status), m.Verified, m.TrustScore, nonNil(m.ConfirmedRequesters), m.ExpiresAt)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: marker %s: %w", op, m.ID, e.ErrNotFound)
	}
	return nil
}

func (r *MarkerRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Marker, error) {
	const op = "postgres.Marker.ListByOwner"

	rows, err := r.pool.Query(ctx, `SELECT `+markerColumns+` FROM markers WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var out []*domain.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

func (r *MarkerRepo) Within(ctx context.Context, center domain.Location, radiusM float64) ([]domain.Marker, error) {
	const op = "postgres.Marker.Within"

	query := `
		SELECT ` + markerColumns + `
		FROM markers
		WHERE status IN ('active', 'matched')
		  AND ST_DWithin(
			geo_point,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			$3
		  )
	`
	rows, err := r.pool.Query(ctx, query, center.Lng, center.Lat, storage.WithinMargin(radiusM))
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var out []domain.Marker
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

func (r *MarkerRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const op = "postgres.Marker.ExpireDue"

	tag, err := r.pool.Exec(ctx, `
		UPDATE markers
		SET status = 'expired'
		WHERE status IN ('active', 'matched') AND expires_at <= $1
	`, now)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return 0, e.WrapError(ctx, op, err)
	}
	return tag.RowsAffected(), nil
}

func scanMarker(row pgx.Row) (domain.Marker, error) {
	var (
		m      domain.Marker
		device string
		status string
	)
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Location.Lat, &m.Location.Lng,
		&m.PublicLocation.Lat, &m.PublicLocation.Lng, &m.RecordedAt, &device,
		&m.Description, &status, &m.Verified, &m.TrustScore, &m.ConfirmedRequesters,
		&m.CreatedAt, &m.ExpiresAt,
	)
	if err != nil {
		return m, err
	}
	m.DeviceType = domain.DeviceType(device)
	m.Status = domain.MarkerStatus(status)
	m.RecordedAt = m.RecordedAt.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	m.ExpiresAt = m.ExpiresAt.UTC()
	return m, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
