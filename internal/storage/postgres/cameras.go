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

type CameraRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const cameraColumns = `
	id, owner_id, name, type,
	ST_Y(geo_point::geometry), ST_X(geo_point::geometry),
	public_lat, public_lng, active, coverage_radius_m, trust_tier,
	opt_out_incident_types, quiet_start_hour, quiet_end_hour,
	installed_at, updated_at, deleted_at`

func (r *CameraRepo) Create(ctx context.Context, cam *domain.Camera) error {
	const op = "postgres.Camera.Create"

	const query = `
		INSERT INTO cameras (
			id, owner_id, name, type, geo_point, public_lat, public_lng, active,
			coverage_radius_m, trust_tier, opt_out_incident_types, quiet_start_hour,
			quiet_end_hour, installed_at, updated_at
		)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326), $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16)
	`

	var quietStart, quietEnd *int16
	if q := cam.QuietHours; q != nil {
		qs, qe := int16(q.StartHour), int16(q.EndHour)
		quietStart, quietEnd = &qs, &qe
	}

	_, err := r.pool.Exec(ctx, query,
		cam.ID, cam.OwnerID, cam.Name, string(cam.Type),
		cam.Location.Lng, cam.Location.Lat,
		cam.PublicLocation.Lat, cam.PublicLocation.Lng,
		cam.Active, cam.CoverageRadiusM, int(cam.TrustTier), nonNil(cam.OptOutIncidentTypes),
		quietStart, quietEnd,
		cam.InstalledAt, cam.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (r *CameraRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Camera, error) {
	const op = "postgres.Camera.Get"

	row := r.pool.QueryRow(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE id = $1`, id)
	cam, err := scanCamera(row)
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return &cam, nil
}

func (r *CameraRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Camera, error) {
	const op = "postgres.Camera.ListByOwner"

	rows, err := r.pool.Query(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE owner_id = $1 ORDER BY installed_at, id`, ownerID)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	out := make([]*domain.Camera, 0, 4)
	for rows.Next() {
		cam, err := scanCamera(rows)
		if err != nil {
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, &cam)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

// Within casts to geography so the distance is in meters on the spheroid; the margin
// keeps every camera the spherical distance in matching would accept.
func (r *CameraRepo) Within(ctx context.Context, center domain.Location, radiusM float64) ([]domain.Camera, error) {
	const op = "postgres.Camera.Within"

	query := `
		SELECT ` + cameraColumns + `
		FROM cameras
		WHERE deleted_at IS NULL
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

	out := make([]domain.Camera, 0, 16)
	for rows.Next() {
		cam, err := scanCamera(rows)
		if err != nil {
			r.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, cam)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

func (r *CameraRepo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	const op = "postgres.Camera.SoftDelete"

	tag, err := r.pool.Exec(ctx, `
		UPDATE cameras
		SET deleted_at = $2, active = false, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, id, at)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: camera %s: %w", op, id, e.ErrNotFound)
	}
	return nil
}

func (r *CameraRepo) UpdateTrust(ctx context.Context, id uuid.UUID, tier domain.TrustTier, at time.Time) error {
	const op = "postgres.Camera.UpdateTrust"

	tag, err := r.pool.Exec(ctx, `
		UPDATE cameras
		SET trust_tier = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`, id, int16(tier), at)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: camera %s: %w", op, id, e.ErrNotFound)
	}
	return nil
}

func scanCamera(row pgx.Row) (domain.Camera, error) {
	var (
		cam        domain.Camera
		typ        string
		tier       int16
		quietStart *int16
		quietEnd   *int16
	)
	err := row.Scan(
		&cam.ID, &cam.OwnerID, &cam.Name, &typ,
		&cam.Location.Lat, &cam.Location.Lng,
		&cam.PublicLocation.Lat, &cam.PublicLocation.Lng,
		&cam.Active, &cam.CoverageRadiusM, &tier,
		&cam.OptOutIncidentTypes, &quietStart, &quietEnd,
		&cam.InstalledAt, &cam.UpdatedAt, &cam.DeletedAt,
	)
	if err != nil {
		return cam, err
	}
	cam.Type = domain.CameraType(typ)
	cam.TrustTier = domain.TrustTier(tier)
	if quietStart != nil && quietEnd != nil {
		cam.QuietHours = &domain.QuietHours{StartHour: int(*quietStart), EndHour: int(*quietEnd)}
	}
	cam.InstalledAt = cam.InstalledAt.UTC()
	cam.UpdatedAt = cam.UpdatedAt.UTC()
	if cam.DeletedAt != nil {
		t := cam.DeletedAt.UTC()
		cam.DeletedAt = &t
	}
	return cam, nil
}
