package requests

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"camwatch/internal/api/handlers/http/httpx"
	"camwatch/internal/domain"
	"camwatch/internal/middleware"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Requests interface {
	Create(ctx context.Context, viewer domain.Viewer, in domain.CreateFootageRequest) (*domain.FootageRequest, error)
	Get(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.FootageRequest, error)
	Respond(ctx context.Context, id, cameraID uuid.UUID, viewer domain.Viewer, in domain.RespondRequest) (*domain.FootageRequest, error)
	Cancel(ctx context.Context, id uuid.UUID, viewer domain.Viewer, in domain.CancelRequest) (*domain.FootageRequest, error)
	List(ctx context.Context, viewer domain.Viewer, incoming bool) ([]*domain.FootageRequest, error)
}

type Handler struct {
	logger   *slog.Logger
	Requests Requests
}

func NewHandler(logger *slog.Logger, requests Requests) *Handler {
	return &Handler{
		logger:   logger,
		Requests: requests,
	}
}

func (h *Handler) RequestCreate(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}

	var in domain.CreateFootageRequest
	if err := middleware.BindJSON(r, &in); err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("creating footage request",
		slog.String("incident_type", in.IncidentType),
		slog.Float64("search_radius_m", in.SearchRadiusM),
		slog.String("role", viewer.Role.String()),
	)

	req, err := h.Requests.Create(r.Context(), viewer, in)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("footage request created",
		slog.String("id", req.ID.String()),
		slog.Int("targets", len(req.TargetCameraIDs)),
	)
	httpx.WriteJSON(w, h.logger, http.StatusCreated, req)
}

// RequestList lists the viewer's own requests, or with ?incoming=true the requests
// targeting the viewer's cameras and markers.
func (h *Handler) RequestList(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}

	incoming := false
	if raw := r.URL.Query().Get("incoming"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			l.Warn("invalid incoming flag", slog.String("incoming", raw))
			httpx.WriteJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "incoming must be a boolean", "kind": "validation"})
			return
		}
		incoming = v
	}

	reqs, err := h.Requests.List(r.Context(), viewer, incoming)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]any{
		"requests": reqs,
		"total":    len(reqs),
	})
}

func (h *Handler) RequestGet(w http.ResponseWriter, r *http.Request) {
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	req, err := h.Requests.Get(r.Context(), id, viewer)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, req)
}

func (h *Handler) RequestRespond(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}
	cameraID, ok := httpx.PathID(w, r, h.logger, "cameraId")
	if !ok {
		return
	}

	var in domain.RespondRequest
	if err := middleware.BindJSON(r, &in); err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	req, err := h.Requests.Respond(r.Context(), id, cameraID, viewer, in)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("response recorded",
		slog.String("id", id.String()),
		slog.String("camera_id", cameraID.String()),
		slog.String("decision", string(in.Decision)),
		slog.String("status", string(req.Status)),
	)
	httpx.WriteJSON(w, h.logger, http.StatusOK, req)
}

func (h *Handler) RequestCancel(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	var in domain.CancelRequest
	if r.ContentLength != 0 {
		if err := middleware.BindJSON(r, &in); err != nil {
			httpx.HandleError(w, r, h.logger, err)
			return
		}
	}

	req, err := h.Requests.Cancel(r.Context(), id, viewer, in)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("footage request cancelled", slog.String("id", id.String()))
	httpx.WriteJSON(w, h.logger, http.StatusOK, req)
}
