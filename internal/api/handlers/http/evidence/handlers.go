package evidence

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"camwatch/internal/api/handlers/http/httpx"
	"camwatch/internal/domain"
	"camwatch/internal/service"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Evidence interface {
	Upload(ctx context.Context, up service.Upload) (*domain.Evidence, *domain.FootageRequest, error)
	Get(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.Evidence, error)
	Download(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.Evidence, io.ReadCloser, error)
	Custody(ctx context.Context, id uuid.UUID, viewer domain.Viewer) ([]domain.CustodyEntry, error)
	Verify(ctx context.Context, id uuid.UUID, viewer domain.Viewer) (*domain.IntegrityReport, error)
}

type Handler struct {
	logger         *slog.Logger
	maxUploadBytes int64
	Evidence       Evidence
}

// NewHandler serves footage intake and custody reads. Uploads above maxUploadBytes are
// refused with 413.
func NewHandler(logger *slog.Logger, maxUploadBytes int64, evidence Evidence) *Handler {
	return &Handler{
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		Evidence:       evidence,
	}
}

// FootageUpload takes the raw footage as the request body.
func (h *Handler) FootageUpload(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	requestID, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}
	cameraID, ok := httpx.PathID(w, r, h.logger, "cameraId")
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		if r.ContentLength > h.maxUploadBytes {
			l.Warn("footage too large", slog.Int64("content_length", r.ContentLength))
			httpx.WriteJSON(w, h.logger, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "footage exceeds the upload limit",
				"kind":  "too_large",
			})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	ev, req, err := h.Evidence.Upload(r.Context(), service.Upload{
		RequestID:   requestID,
		CameraID:    cameraID,
		Uploader:    viewer,
		ContentType: r.Header.Get("Content-Type"),
		Size:        r.ContentLength,
		Body:        r.Body,
	})
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}

	l.Info("footage accepted",
		slog.String("evidence_id", ev.ID.String()),
		slog.String("request_id", requestID.String()),
		slog.String("status", string(req.Status)),
	)
	httpx.WriteJSON(w, h.logger, http.StatusCreated, map[string]any{
		"evidence": ev,
		"request":  req,
	})
}

func (h *Handler) EvidenceGet(w http.ResponseWriter, r *http.Request) {
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	ev, err := h.Evidence.Get(r.Context(), id, viewer)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, ev)
}

// EvidenceContent streams the footage back. The access is recorded before any byte is sent.
func (h *Handler) EvidenceContent(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	ev, body, err := h.Evidence.Download(r.Context(), id, viewer)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", ev.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(ev.SizeBytes, 10))
	w.Header().Set("X-Content-SHA256", ev.ContentHash)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		l.Error("footage stream interrupted", slog.String("evidence_id", id.String()), slog.Any("error", err))
	}
}

func (h *Handler) EvidenceCustody(w http.ResponseWriter, r *http.Request) {
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	entries, err := h.Evidence.Custody(r.Context(), id, viewer)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]any{
		"evidence_id": id,
		"entries":     entries,
	})
}

// EvidenceVerify reports chain and content integrity. A broken chain is a normal 200
// answer with valid=false; it is never repaired here.
func (h *Handler) EvidenceVerify(w http.ResponseWriter, r *http.Request) {
	l := httpx.Log(h.logger, r)
	viewer, ok := httpx.Viewer(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := httpx.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	report, err := h.Evidence.Verify(r.Context(), id, viewer)
	if err != nil {
		httpx.HandleError(w, r, h.logger, err)
		return
	}
	if !report.Chain.Valid || !report.ContentIntact {
		l.Warn("evidence integrity check failed",
			slog.String("evidence_id", id.String()),
			slog.Bool("chain_valid", report.Chain.Valid),
			slog.Bool("content_intact", report.ContentIntact),
		)
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, report)
}
