package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"camwatch/internal/domain"
	"camwatch/pkg/e"
)

// RequestRepo stores a request row plus one camera_responses row per target. Targets are
// fixed at creation, so the response set itself never changes, only its columns.
type RequestRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const requestColumns = `
	id, incident_type, incident_at, window_start, window_end, description,
	police_report_number, priority, requester_id, requester_role,
	ST_Y(geo_point::geometry), ST_X(geo_point::geometry), search_radius_m,
	status, status_history, created_at, updated_at, expires_at, version`

const openStatuses = `('pending', 'approved')`

func (r *RequestRepo) Create(ctx context.Context, req *domain.FootageRequest) error {
	const op = "postgres.Request.Create"

	history, err := json.Marshal(req.StatusHistory)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return e.WrapError(ctx, op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO footage_requests (
			id, incident_type, incident_at, window_start, window_end, description,
			police_report_number, priority, requester_id, requester_role, geo_point,
			search_radius_m, status, status_history, created_at, updated_at, expires_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			ST_SetSRID(ST_MakePoint($11, $12), 4326), $13, $14, $15, $16, $17, $18, $19)
	`,
		req.ID, req.IncidentType, req.IncidentAt, req.Window.Start, req.Window.End, req.Description,
		req.PoliceReportNumber, string(req.Priority), req.RequesterID, req.RequesterRole.String(),
		req.IncidentLocation.Lng, req.IncidentLocation.Lat,
		req.SearchRadiusM, string(req.Status), history, req.CreatedAt, req.UpdatedAt, req.ExpiresAt, req.Version,
	)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}

	if len(req.Responses) > 0 {
		batch := &pgx.Batch{}
		for _, resp := range req.Responses {
			batch.Queue(`
				INSERT INTO camera_responses (
					request_id, camera_id, kind, owner_id, rank, status, footage_ref, reason, responded_at
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, req.ID, resp.CameraID, string(resp.Kind), resp.OwnerID, resp.Rank,
				string(resp.Status), resp.FootageRef, resp.Reason, resp.RespondedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			r.logger.Error("db batch failed", slog.String("op", op), slog.Any("error", err))
			return e.WrapError(ctx, op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (r *RequestRepo) Get(ctx context.Context, id uuid.UUID) (*domain.FootageRequest, error) {
	const op = "postgres.Request.Get"

	req, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM footage_requests WHERE id = $1`, id))
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	if err := r.attachResponses(ctx, []*domain.FootageRequest{req}); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return req, nil
}

func (r *RequestRepo) Update(ctx context.Context, req *domain.FootageRequest) error {
	const op = "postgres.Request.Update"

	history, err := json.Marshal(req.StatusHistory)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return e.WrapError(ctx, op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE footage_requests
		SET status = $3, status_history = $4, updated_at = $5, expires_at = $6, version = version + 1
		WHERE id = $1 AND version = $2
	`, req.ID, req.Version, string(req.Status), history, req.UpdatedAt, req.ExpiresAt)
	if err != nil {
		r.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM footage_requests WHERE id = $1)`, req.ID).Scan(&exists); err != nil {
			return e.WrapError(ctx, op, err)
		}
		if !exists {
			return fmt.Errorf("%s: request %s: %w", op, req.ID, e.ErrNotFound)
		}
		return fmt.Errorf("%s: request %s changed concurrently: %w", op, req.ID, e.ErrConflict)
	}

	if len(req.Responses) > 0 {
		batch := &pgx.Batch{}
		for _, resp := range req.Responses {
			batch.Queue(`
				UPDATE camera_responses
				SET status = $3, footage_ref = $4, reason = $5, responded_at = $6
				WHERE request_id = $1 AND camera_id = $2
			`, req.ID, resp.CameraID, string(resp.Status), resp.FootageRef, resp.Reason, resp.RespondedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			r.logger.Error("db batch failed", slog.String("op", op), slog.Any("error", err))
			return e.WrapError(ctx, op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return e.WrapError(ctx, op, err)
	}
	req.Version++
	return nil
}

func (r *RequestRepo) ListByRequester(ctx context.Context, requesterID string) ([]*domain.FootageRequest, error) {
	const op = "postgres.Request.ListByRequester"

	return r.list(ctx, op, `
		SELECT `+requestColumns+`
		FROM footage_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC, id
	`, requesterID)
}

func (r *RequestRepo) ListForOwner(ctx context.Context, ownerID string) ([]*domain.FootageRequest, error) {
	const op = "postgres.Request.ListForOwner"

	return r.list(ctx, op, `
		SELECT `+requestColumns+`
		FROM footage_requests
		WHERE id IN (SELECT request_id FROM camera_responses WHERE owner_id = $1)
		ORDER BY created_at DESC, id
	`, ownerID)
}

func (r *RequestRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	const op = "postgres.Request.ListDue"

	rows, err := r.pool.Query(ctx, `
		SELECT fr.id
		FROM footage_requests fr
		WHERE fr.status IN `+openStatuses+`
		  AND (
		      fr.expires_at < $1
		      OR (fr.expires_at = $1 AND NOT EXISTS (
		          SELECT 1 FROM camera_responses cr WHERE cr.request_id = fr.id
		      ))
		  )
		ORDER BY fr.expires_at, fr.id
		LIMIT $2
	`, now, limit)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return ids, nil
}

func (r *RequestRepo) HasOpenForSource(ctx context.Context, sourceID uuid.UUID) (bool, error) {
	const op = "postgres.Request.HasOpenForSource"

	var open bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM camera_responses cr
			JOIN footage_requests fr ON fr.id = cr.request_id
			WHERE cr.camera_id = $1 AND fr.status IN `+openStatuses+`
		)
	`, sourceID).Scan(&open)
	if err != nil {
		return false, e.WrapError(ctx, op, err)
	}
	return open, nil
}

func (r *RequestRepo) list(ctx context.Context, op, query string, args ...any) ([]*domain.FootageRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	var out []*domain.FootageRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	if err := r.attachResponses(ctx, out); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return out, nil
}

// attachResponses loads the responses of reqs in one query, ordered by rank.
func (r *RequestRepo) attachResponses(ctx context.Context, reqs []*domain.FootageRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.FootageRequest, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		byID[req.ID] = req
		ids = append(ids, req.ID.String())
		req.TargetCameraIDs = []uuid.UUID{}
		req.Responses = []domain.CameraResponse{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT request_id, camera_id, kind, owner_id, rank, status, footage_ref, reason, responded_at
		FROM camera_responses
		WHERE request_id = ANY($1::uuid[])
		ORDER BY request_id, rank
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resp   domain.CameraResponse
			kind   string
			status string
		)
		if err := rows.Scan(&resp.RequestID, &resp.CameraID, &kind, &resp.OwnerID, &resp.Rank,
			&status, &resp.FootageRef, &resp.Reason, &resp.RespondedAt); err != nil {
			return err
		}
		resp.Kind = domain.SourceKind(kind)
		resp.Status = domain.ResponseStatus(status)
		if resp.RespondedAt != nil {
			at := resp.RespondedAt.UTC()
			resp.RespondedAt = &at
		}
		req := byID[resp.RequestID]
		req.Responses = append(req.Responses, resp)
		req.TargetCameraIDs = append(req.TargetCameraIDs, resp.CameraID)
	}
	return rows.Err()
}

func scanRequest(row pgx.Row) (*domain.FootageRequest, error) {
	var (
		req      domain.FootageRequest
		priority string
		role     string
		status   string
		history  []byte
	)
	err := row.Scan(
		&req.ID, &req.IncidentType, &req.IncidentAt, &req.Window.Start, &req.Window.End, &req.Description,
		&req.PoliceReportNumber, &priority, &req.RequesterID, &role,
		&req.IncidentLocation.Lat, &req.IncidentLocation.Lng, &req.SearchRadiusM,
		&status, &history, &req.CreatedAt, &req.UpdatedAt, &req.ExpiresAt, &req.Version,
	)
	if err != nil {
		return nil, err
	}
	req.Priority = domain.Priority(priority)
	req.Status = domain.RequestStatus(status)
	if req.RequesterRole, err = domain.ParseRole(role); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &req.StatusHistory); err != nil {
		return nil, fmt.Errorf("decode status history: %w", err)
	}
	req.IncidentAt = req.IncidentAt.UTC()
	req.Window.Start = req.Window.Start.UTC()
	req.Window.End = req.Window.End.UTC()
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	req.ExpiresAt = req.ExpiresAt.UTC()
	return &req, nil
}
