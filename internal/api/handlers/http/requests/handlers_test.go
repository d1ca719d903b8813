package requests_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"camwatch/internal/api/handlers/http/requests"
	mock_requests "camwatch/internal/api/handlers/http/requests/mocks"
	"camwatch/internal/domain"
	"camwatch/internal/middleware"
	"camwatch/pkg/e"
)

var police = domain.Viewer{UserID: "officer-7", Role: domain.RolePolice, Verified: true}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func addChiURLParam(r *http.Request, key, val string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func asViewer(r *http.Request, v domain.Viewer) *http.Request {
	return r.WithContext(middleware.WithViewer(r.Context(), v))
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v, body=%s", err, rr.Body.String())
	}
	return out
}

func newHandler(t *testing.T) (*requests.Handler, *mock_requests.MockRequests) {
	ctrl := gomock.NewController(t)
	svc := mock_requests.NewMockRequests(ctrl)
	return requests.NewHandler(newTestLogger(), svc), svc
}

func TestRequestCreate_OK(t *testing.T) {
	t.Parallel()

	h, svc := newHandler(t)

	body := `{
		"incident_type":"burglary",
		"incident_at":"2024-07-01T13:00:00Z",
		"priority":"high",
		"incident_location":{"lat":51.5074,"lng":-0.1278},
		"search_radius_m":500
	}`
	req := asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewBufferString(body)), police)
	rr := httptest.NewRecorder()

	want := domain.CreateFootageRequest{
		IncidentType:     "burglary",
		IncidentAt:       time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC),
		Priority:         domain.PriorityHigh,
		IncidentLocation: domain.Location{Lat: 51.5074, Lng: -0.1278},
		SearchRadiusM:    500,
	}
	targets := []uuid.UUID{uuid.New(), uuid.New()}
	svc.EXPECT().
		Create(gomock.Any(), police, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.Viewer, in domain.CreateFootageRequest) (*domain.FootageRequest, error) {
			if !in.IncidentAt.Equal(want.IncidentAt) || in.IncidentType != want.IncidentType ||
				in.IncidentLocation != want.IncidentLocation || in.SearchRadiusM != want.SearchRadiusM || in.Priority != want.Priority {
				t.Errorf("unexpected input %+v", in)
			}
			return &domain.FootageRequest{ID: uuid.New(), TargetCameraIDs: targets, Status: domain.RequestPending}, nil
		}).
		Times(1)

	h.RequestCreate(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rr.Code, rr.Body.String())
	}
	got := decodeJSON[domain.FootageRequest](t, rr)
	if len(got.TargetCameraIDs) != 2 || got.Status != domain.RequestPending {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestRequestCreate_ValidationRejectedBeforeService(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"negative_radius", `{"incident_type":"x","incident_at":"2024-07-01T13:00:00Z","incident_location":{"lat":1,"lng":1},"search_radius_m":-1}`},
		{"missing_type", `{"incident_at":"2024-07-01T13:00:00Z","incident_location":{"lat":1,"lng":1},"search_radius_m":10}`},
		{"bad_location", `{"incident_type":"x","incident_at":"2024-07-01T13:00:00Z","incident_location":{"lat":1,"lng":181},"search_radius_m":10}`},
		{"missing_time", `{"incident_type":"x","incident_location":{"lat":1,"lng":1},"search_radius_m":10}`},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			h, _ := newHandler(t)
			req := asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewBufferString(c.body)), police)
			rr := httptest.NewRecorder()
			h.RequestCreate(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d body=%s", rr.Code, rr.Body.String())
			}
			if got := decodeJSON[map[string]string](t, rr); got["kind"] != "validation" {
				t.Fatalf("expected validation kind, got %v", got)
			}
		})
	}
}

func TestRequestGet_Forbidden(t *testing.T) {
	t.Parallel()

	h, svc := newHandler(t)
	id := uuid.New()
	stranger := domain.Viewer{UserID: "stranger"}
	svc.EXPECT().Get(gomock.Any(), id, stranger).Return(nil, fmt.Errorf("x: %w", e.ErrPermissionDenied)).Times(1)

	req := asViewer(httptest.NewRequest(http.MethodGet, "/api/v1/requests/"+id.String(), nil), stranger)
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.RequestGet(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestRequestList_Incoming(t *testing.T) {
	t.Parallel()

	h, svc := newHandler(t)
	owner := domain.Viewer{UserID: "owner-1"}
	svc.EXPECT().List(gomock.Any(), owner, true).Return([]*domain.FootageRequest{{ID: uuid.New()}}, nil).Times(1)

	req := asViewer(httptest.NewRequest(http.MethodGet, "/api/v1/requests?incoming=true", nil), owner)
	rr := httptest.NewRecorder()
	h.RequestList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	bad := asViewer(httptest.NewRequest(http.MethodGet, "/api/v1/requests?incoming=maybe", nil), owner)
	rr = httptest.NewRecorder()
	h.RequestList(rr, bad)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestRequestRespond(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"approved", nil, http.StatusOK},
		{"expired", fmt.Errorf("x: %w", e.ErrInvalidStateTransition), http.StatusConflict},
		{"not_owner", fmt.Errorf("x: %w", e.ErrPermissionDenied), http.StatusForbidden},
		{"unknown_camera", fmt.Errorf("x: %w", e.ErrNotFound), http.StatusNotFound},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			h, svc := newHandler(t)
			id, cam := uuid.New(), uuid.New()
			owner := domain.Viewer{UserID: "owner-1"}
			in := domain.RespondRequest{Decision: domain.ResponseApproved, FootageRef: "clip-1"}

			var out *domain.FootageRequest
			if c.err == nil {
				out = &domain.FootageRequest{ID: id, Status: domain.RequestFulfilled}
			}
			svc.EXPECT().Respond(gomock.Any(), id, cam, owner, in).Return(out, c.err).Times(1)

			req := asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+id.String()+"/responses/"+cam.String(),
				bytes.NewBufferString(`{"decision":"approved","footage_ref":"clip-1"}`)), owner)
			req = addChiURLParam(req, "id", id.String())
			req = addChiURLParam(req, "cameraId", cam.String())
			rr := httptest.NewRecorder()

			h.RequestRespond(rr, req)

			if rr.Code != c.want {
				t.Fatalf("expected %d got %d body=%s", c.want, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestRequestRespond_UnknownDecision_400(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t)
	id, cam := uuid.New(), uuid.New()
	req := asViewer(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"decision":"maybe"}`)), police)
	req = addChiURLParam(req, "id", id.String())
	req = addChiURLParam(req, "cameraId", cam.String())
	rr := httptest.NewRecorder()

	h.RequestRespond(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestRequestCancel_EmptyBody(t *testing.T) {
	t.Parallel()

	h, svc := newHandler(t)
	id := uuid.New()
	svc.EXPECT().Cancel(gomock.Any(), id, police, domain.CancelRequest{}).
		Return(&domain.FootageRequest{ID: id, Status: domain.RequestCancelled}, nil).
		Times(1)

	req := asViewer(httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+id.String()+"/cancel", nil), police)
	req = addChiURLParam(req, "id", id.String())
	rr := httptest.NewRecorder()

	h.RequestCancel(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeJSON[domain.FootageRequest](t, rr); got.Status != domain.RequestCancelled {
		t.Fatalf("unexpected status %s", got.Status)
	}
}
