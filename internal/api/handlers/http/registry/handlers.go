package registry

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"camwatch/internal/api/handlers/http/httpx"
	"camwatch/internal/domain"
	"camwatch/internal/middleware"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Cameras interface {
	Register(ctx context.Context, ownerID string, in domain.RegisterCameraRequest) (*domain.Camera, error)
	Get(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.CameraView, error)
	ListOwn(ctx context.Context, ownerID string) ([]*domain.Camera, error)
	Delete(ctx context.Context, id uuid.UUID, actor domain.Viewer) error
	SetTrustTier(ctx context.Context, id uuid.UUID, actor domain.Viewer, in domain.SetTrustTierRequest) (*domain.Camera, error)
}

type Markers interface {
	Register(ctx context.Context, owner domain.Viewer, in domain.RegisterMarkerRequest) (*domain.Marker, error)
	Get(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.MarkerView, error)
	ListOwn(ctx context.Context, ownerID string) ([]*domain.Marker, error)
	ConfirmRequester(ctx context.Context, id uuid.UUID, ownerID, requesterID string) (*domain.Marker, error)
	Withdraw(ctx context.Context, id uuid.UUID, ownerID string) error
}

// Handler serves the camera registry and temporary markers.
type Handler struct {
	logger  *slog.Logger
	Cameras Cameras
	Markers Markers
}

func NewHandler(logger *slog.Logger, cameras Cameras, markers Markers) *Handler {
	return &Handler{
		logger:  logger,
		Cameras: cameras,
		Markers: markers,
	}
}

func (h *Handler) CameraCreate(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}

	var req domain.RegisterCameraRequest
	if err := middleware.BindJSON(r, &req); err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	cam, err := h.Cameras.Register(r.Context(), viewer.UserID, req)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("camera registered", slog.String("id", cam.ID.String()))
	httpx.WriteJSON(w, h.logger, http.StatusCreated, cam)
}

func (h *Handler) CameraGet(w http.ResponseWriter, r *http.Request) {
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	view, err := h.Cameras.Get(r.Context(), id, viewer)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, view)
}

func (h *Handler) CameraList(w http.ResponseWriter, r *http.Request) {
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}

	cams, err := h.Cameras.ListOwn(r.Context(), viewer.UserID)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]any{
		"cameras": cams,
		"total":   len(cams),
	})
}

func (h *Handler) CameraDelete(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	if err := h.Cameras.Delete(r.Context(), id, viewer); err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("camera deleted", slog.String("id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CameraVerify(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	var req domain.SetTrustTierRequest
	if err := middleware.BindJSON(r, &req); err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	cam, err := h.Cameras.SetTrustTier(r.Context(), id, viewer, req)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("camera reviewed", slog.String("id", id.String()), slog.Int("trust_tier", int(cam.TrustTier)))
	httpx.WriteJSON(w, h.logger, http.StatusOK, cam)
}

func (h *Handler) MarkerCreate(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}

	var req domain.RegisterMarkerRequest
	if err := middleware.BindJSON(r, &req); err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	m, err := h.Markers.Register(r.Context(), viewer, req)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("marker registered", slog.String("id", m.ID.String()), slog.Time("expires_at", m.ExpiresAt))
	httpx.WriteJSON(w, h.logger, http.StatusCreated, m)
}

func (h *Handler) MarkerGet(w http.ResponseWriter, r *http.Request) {
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	view, err := h.Markers.Get(r.Context(), id, viewer)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, view)
}

func (h *Handler) MarkerList(w http.ResponseWriter, r *http.Request) {
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}

	markers, err := h.Markers.ListOwn(r.Context(), viewer.UserID)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]any{
		"markers": markers,
		"total":   len(markers),
	})
}

func (h *Handler) MarkerConfirm(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	var req domain.ConfirmRequesterRequest
	if err := middleware.BindJSON(r, &req); err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	m, err := h.Markers.ConfirmRequester(r.Context(), id, viewer.UserID, req.RequesterID)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("precise location shared", slog.String("id", id.String()))
	httpx.WriteJSON(w, h.logger, http.StatusOK, m)
}

func (h *Handler) MarkerWithdraw(w http.ResponseWriter, r *http.Request) {
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	if err := h.Markers.Withdraw(r.Context(), id, viewer.UserID); err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
