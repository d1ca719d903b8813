package service_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"filippo.io/age"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"camwatch/internal/custody"
	"camwatch/internal/domain"
	"camwatch/internal/geo"
	"camwatch/internal/lifecycle"
	"camwatch/internal/matching"
	"camwatch/internal/objectstore"
	"camwatch/internal/privacy"
	"camwatch/internal/service"
	mock_service "camwatch/internal/service/mocks"
	"camwatch/internal/storage/memory"
	"camwatch/pkg/clock"
	"camwatch/pkg/e"
)

var (
	london = domain.Location{Lat: 51.5074, Lng: -0.1278}
	start  = time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC)

	owner     = domain.Viewer{UserID: "owner-1", Role: domain.RoleCommunity}
	requester = domain.Viewer{UserID: "requester-1", Role: domain.RoleCommunity}
	stranger  = domain.Viewer{UserID: "stranger-1", Role: domain.RoleCommunity}
	admin     = domain.Viewer{UserID: "admin-1", Role: domain.RoleAdmin, Verified: true}
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	store    *memory.Store
	clk      *clock.Manual
	blobs    *objectstore.MemoryBlobs
	privacy  *privacy.Manager
	custody  *custody.Manager
	lc       *lifecycle.Lifecycle
	cameras  *service.CameraService
	markers  *service.MarkerService
	requests *service.RequestService
	evidence *service.EvidenceService
}

func newFixture(t *testing.T, cache service.LocationCache, q service.VerificationQueue, sealer *objectstore.Sealer) *fixture {
	t.Helper()

	log := newTestLogger()
	store := memory.New()
	clk := clock.NewManual(start)
	pm := privacy.NewManager(privacy.DefaultConfig(), privacy.DefaultPolicy(), rand.New(rand.NewPCG(7, 8)))
	lc := lifecycle.New(store.Requests, store.Cameras, store.Markers, matching.NewEngine(clk), nil, clk, lifecycle.Config{}, log)
	cm := custody.NewManager(store.Custody, clk, log)
	blobs := objectstore.NewMemoryBlobs()
	footage := objectstore.NewFootageStore(blobs, sealer)

	return &fixture{
		store:    store,
		clk:      clk,
		blobs:    blobs,
		privacy:  pm,
		custody:  cm,
		lc:       lc,
		cameras:  service.NewCameraService(store.Cameras, store.Requests, pm, cache, clk, log),
		markers:  service.NewMarkerService(store.Markers, pm, cache, 0, clk, log),
		requests: service.NewRequestService(lc),
		evidence: service.NewEvidenceService(store.Evidence, lc, footage, cm, q, pm, clk, log),
	}
}

func (f *fixture) registerCamera(t *testing.T, meters float64) *domain.Camera {
	t.Helper()

	cam, err := f.cameras.Register(context.Background(), owner.UserID, domain.RegisterCameraRequest{
		Name:        "front door",
		Type:        domain.CameraDoorbell,
		Location:    geo.Destination(london, 45, meters),
		InstalledAt: start.Add(-30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("register camera: %v", err)
	}
	return cam
}

func (f *fixture) openRequest(t *testing.T) *domain.FootageRequest {
	t.Helper()

	req, err := f.requests.Create(context.Background(), requester, domain.CreateFootageRequest{
		IncidentType:     "burglary",
		IncidentAt:       start.Add(-2 * time.Hour),
		IncidentLocation: london,
		SearchRadiusM:    300,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func TestCameraService_Register(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	cam := f.registerCamera(t, 100)

	if !cam.Active || cam.OwnerID != owner.UserID || cam.ID == uuid.Nil {
		t.Fatalf("unexpected camera %+v", cam)
	}
	if cam.PublicLocation == cam.Location {
		t.Fatalf("stored public location must not equal the true location")
	}
	if d := geo.HaversineMeters(cam.Location, cam.PublicLocation); d > 25+1e-6 {
		t.Fatalf("stored public location %.2fm away exceeds community radius", d)
	}

	_, err := f.cameras.Register(context.Background(), owner.UserID, domain.RegisterCameraRequest{
		Name:     "broken",
		Location: domain.Location{Lat: 123, Lng: 0},
	})
	if !errors.Is(err, e.ErrInvalidCoordinates) {
		t.Fatalf("expected invalid coordinates, got %v", err)
	}
	_, err = f.cameras.Register(context.Background(), "", domain.RegisterCameraRequest{Name: "x", Location: london})
	if !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected validation error for missing owner, got %v", err)
	}
}

func TestCameraService_Get_CachesFuzzedLocationPerRole(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockLocationCache(ctrl)
	f := newFixture(t, cache, nil, nil)
	cam := f.registerCamera(t, 50)

	var stored domain.Location
	cache.EXPECT().Get(gomock.Any(), cam.ID, domain.RoleCommunity).Return(domain.Location{}, false, nil).Times(1)
	cache.EXPECT().Set(gomock.Any(), cam.ID, domain.RoleCommunity, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ domain.Role, loc domain.Location) error {
			stored = loc
			return nil
		}).Times(1)

	first, err := f.cameras.Get(context.Background(), cam.ID, stranger)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.Precise || first.Location == cam.Location || first.Location != stored {
		t.Fatalf("expected cached fuzzed location, got %+v", first)
	}

	cache.EXPECT().Get(gomock.Any(), cam.ID, domain.RoleCommunity).Return(stored, true, nil).Times(1)
	second, err := f.cameras.Get(context.Background(), cam.ID, stranger)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.Location != first.Location {
		t.Fatalf("expected the same point for the same role")
	}

	mine, err := f.cameras.Get(context.Background(), cam.ID, owner)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if !mine.Precise || mine.Location != cam.Location || !mine.Owned {
		t.Fatalf("owner should see the precise location, got %+v", mine)
	}
}

func TestCameraService_Get_CacheFailureStillFuzzes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockLocationCache(ctrl)
	f := newFixture(t, cache, nil, nil)
	cam := f.registerCamera(t, 50)

	cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.Location{}, false, errors.New("redis down"))
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	view, err := f.cameras.Get(context.Background(), cam.ID, stranger)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Precise || view.Location == cam.Location {
		t.Fatalf("cache failure must not disclose the true location")
	}
}

func TestCameraService_Delete(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mock_service.NewMockLocationCache(ctrl)
	f := newFixture(t, cache, nil, nil)
	cam := f.registerCamera(t, 100)
	req := f.openRequest(t)
	ctx := context.Background()

	unverifiedAdmin := admin
	unverifiedAdmin.Verified = false
	for _, who := range []domain.Viewer{stranger, unverifiedAdmin, {}} {
		if err := f.cameras.Delete(ctx, cam.ID, who); !errors.Is(err, e.ErrPermissionDenied) {
			t.Fatalf("expected permission denied for %+v, got %v", who, err)
		}
	}

	cache.EXPECT().Forget(gomock.Any(), cam.ID).Return(nil).Times(1)
	if err := f.cameras.Delete(ctx, cam.ID, owner); err != nil {
		t.Fatalf("owner should soft-delete while a request is open: %v", err)
	}
	if err := f.cameras.Delete(ctx, cam.ID, owner); err != nil {
		t.Fatalf("repeated delete should be a no-op, got %v", err)
	}
	if _, err := f.cameras.Get(ctx, cam.ID, stranger); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("deleted camera should be hidden, got %v", err)
	}

	still, err := f.requests.Get(ctx, req.ID, requester)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if still.Status != domain.RequestPending || len(still.TargetCameraIDs) != 1 || still.TargetCameraIDs[0] != cam.ID {
		t.Fatalf("open request must keep its targets, got %s %v", still.Status, still.TargetCameraIDs)
	}
	if _, err := f.requests.Respond(ctx, req.ID, cam.ID, owner, domain.RespondRequest{Decision: domain.ResponseNoFootage}); err != nil {
		t.Fatalf("owner should still answer the snapshot response: %v", err)
	}

	next := f.openRequest(t)
	if len(next.TargetCameraIDs) != 0 {
		t.Fatalf("deleted camera must not be matched again")
	}
}

func TestCameraService_DeleteByAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	cam := f.registerCamera(t, 100)
	ctx := context.Background()

	if err := f.cameras.Delete(ctx, cam.ID, admin); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	stored, err := f.store.Cameras.Get(ctx, cam.ID)
	if err != nil {
		t.Fatalf("soft-deleted camera should remain stored: %v", err)
	}
	if stored.DeletedAt == nil || stored.Available() {
		t.Fatalf("expected soft-deleted camera, got %+v", stored)
	}
}

func TestCameraService_SetTrustTierChangesRanking(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	near := f.registerCamera(t, 100)
	far := f.registerCamera(t, 150)
	ctx := context.Background()

	before := f.openRequest(t)
	if len(before.TargetCameraIDs) != 2 || before.TargetCameraIDs[0] != near.ID {
		t.Fatalf("expected the nearer camera first, got %v", before.TargetCameraIDs)
	}

	raise := domain.SetTrustTierRequest{TrustTier: domain.TrustPartner}
	if _, err := f.cameras.SetTrustTier(ctx, far.ID, owner, raise); !errors.Is(err, e.ErrPermissionDenied) {
		t.Fatalf("owners must not set their own trust, got %v", err)
	}
	if _, err := f.cameras.SetTrustTier(ctx, far.ID, admin, domain.SetTrustTierRequest{TrustTier: domain.MaxTrustTier + 1}); !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected out of range tier to be rejected, got %v", err)
	}
	if _, err := f.cameras.SetTrustTier(ctx, uuid.New(), admin, raise); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected not found for unknown camera, got %v", err)
	}

	updated, err := f.cameras.SetTrustTier(ctx, far.ID, admin, raise)
	if err != nil {
		t.Fatalf("set trust: %v", err)
	}
	if updated.TrustTier != domain.TrustPartner {
		t.Fatalf("expected partner tier, got %v", updated.TrustTier)
	}
	view, err := f.cameras.Get(ctx, far.ID, stranger)
	if err != nil || view.TrustTier != domain.TrustPartner {
		t.Fatalf("stored tier not visible, got %+v %v", view, err)
	}

	// near: 0.7*(1-100/300) = 0.47, far: 0.7*(1-150/300) + 0.3 = 0.65
	after := f.openRequest(t)
	if len(after.TargetCameraIDs) != 2 || after.TargetCameraIDs[0] != far.ID {
		t.Fatalf("expected the partner camera to rank first, got %v", after.TargetCameraIDs)
	}

	if err := f.cameras.Delete(ctx, far.ID, owner); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.cameras.SetTrustTier(ctx, far.ID, admin, domain.SetTrustTierRequest{TrustTier: domain.TrustVerified}); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("deleted cameras cannot be reviewed, got %v", err)
	}
}

func TestMarkerService_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	ctx := context.Background()
	in := domain.RegisterMarkerRequest{
		Location:   geo.Destination(london, 90, 40),
		RecordedAt: start.Add(-2 * time.Hour),
		DeviceType: domain.DeviceDashcam,
	}

	unverified, err := f.markers.Register(ctx, owner, in)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if unverified.TrustScore != 60 || unverified.Status != domain.MarkerActive {
		t.Fatalf("unexpected marker %+v", unverified)
	}
	if !unverified.ExpiresAt.Equal(start.Add(service.DefaultMarkerTTL)) {
		t.Fatalf("expected 14 day expiry, got %v", unverified.ExpiresAt)
	}
	verified, err := f.markers.Register(ctx, domain.Viewer{UserID: "owner-2", Verified: true}, in)
	if err != nil || verified.TrustScore != 80 {
		t.Fatalf("expected trust 80 for verified owner, got %+v %v", verified, err)
	}

	future := in
	future.RecordedAt = start.Add(time.Hour)
	if _, err := f.markers.Register(ctx, owner, future); !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected future recording to be rejected, got %v", err)
	}

	view, err := f.markers.Get(ctx, unverified.ID, requester)
	if err != nil || view.Precise {
		t.Fatalf("unconfirmed requester must get a fuzzed location, got %+v %v", view, err)
	}
	if _, err := f.markers.ConfirmRequester(ctx, unverified.ID, stranger.UserID, requester.UserID); !errors.Is(err, e.ErrPermissionDenied) {
		t.Fatalf("only the owner may confirm, got %v", err)
	}
	if _, err := f.markers.ConfirmRequester(ctx, unverified.ID, owner.UserID, requester.UserID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	view, err = f.markers.Get(ctx, unverified.ID, requester)
	if err != nil || !view.Precise || view.Location != in.Location {
		t.Fatalf("confirmed requester should see the precise location, got %+v %v", view, err)
	}

	if err := f.markers.Withdraw(ctx, verified.ID, "owner-2"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := f.markers.Get(ctx, verified.ID, requester); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("withdrawn marker should be hidden, got %v", err)
	}

	f.clk.Advance(service.DefaultMarkerTTL + time.Minute)
	n, err := f.markers.ExpireMarkers(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one marker expired, got %d %v", n, err)
	}
	if err := f.markers.Withdraw(ctx, unverified.ID, owner.UserID); !errors.Is(err, e.ErrInvalidStateTransition) {
		t.Fatalf("expired marker cannot be withdrawn, got %v", err)
	}
}

func TestRequestService_Visibility(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	f.registerCamera(t, 100)
	req := f.openRequest(t)
	ctx := context.Background()

	for _, v := range []domain.Viewer{requester, owner, admin} {
		if _, err := f.requests.Get(ctx, req.ID, v); err != nil {
			t.Fatalf("%s should see the request: %v", v.UserID, err)
		}
	}
	if _, err := f.requests.Get(ctx, req.ID, stranger); !errors.Is(err, e.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for stranger, got %v", err)
	}

	incoming, err := f.requests.List(ctx, owner, true)
	if err != nil || len(incoming) != 1 {
		t.Fatalf("expected one incoming request, got %d %v", len(incoming), err)
	}
	mine, err := f.requests.List(ctx, requester, false)
	if err != nil || len(mine) != 1 {
		t.Fatalf("expected one own request, got %d %v", len(mine), err)
	}

	_, err = f.requests.Respond(ctx, req.ID, req.TargetCameraIDs[0], owner, domain.RespondRequest{Decision: "maybe"})
	if !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	out, err := f.requests.Respond(ctx, req.ID, req.TargetCameraIDs[0], owner, domain.RespondRequest{Decision: domain.ResponseDenied, Reason: "not recording"})
	if err != nil || out.Status != domain.RequestDenied {
		t.Fatalf("expected denied request, got %+v %v", out, err)
	}
}

func upload(f *fixture, req *domain.FootageRequest, who domain.Viewer, body string) (*domain.Evidence, *domain.FootageRequest, error) {
	return f.evidence.Upload(context.Background(), service.Upload{
		RequestID:   req.ID,
		CameraID:    req.TargetCameraIDs[0],
		Uploader:    who,
		ContentType: "video/mp4",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	})
}

func TestEvidenceService_UploadFulfilsRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	q := mock_service.NewMockVerificationQueue(ctrl)
	f := newFixture(t, nil, q, nil)
	f.registerCamera(t, 100)
	req := f.openRequest(t)
	ctx := context.Background()

	if _, _, err := upload(f, req, stranger, "frames"); !errors.Is(err, e.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for non-owner upload, got %v", err)
	}

	var queued uuid.UUID
	q.EXPECT().EnqueueVerify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID) error {
			queued = id
			return nil
		}).Times(1)

	body := "frame-1 frame-2 frame-3"
	ev, updated, err := upload(f, req, owner, body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	sum := sha256.Sum256([]byte(body))
	if ev.ContentHash != hex.EncodeToString(sum[:]) || ev.SizeBytes != int64(len(body)) {
		t.Fatalf("unexpected evidence %+v", ev)
	}
	if queued != ev.ID {
		t.Fatalf("expected verification for %s, got %s", ev.ID, queued)
	}
	if updated.Status != domain.RequestFulfilled {
		t.Fatalf("expected fulfilled request, got %s", updated.Status)
	}
	if updated.Responses[0].FootageRef != ev.ID.String() {
		t.Fatalf("response should reference the evidence, got %q", updated.Responses[0].FootageRef)
	}

	chain, err := f.custody.Chain(ctx, ev.ID)
	if err != nil || len(chain) != 1 || chain[0].Action != domain.CustodyUploaded || chain[0].ContentHash != ev.ContentHash {
		t.Fatalf("expected uploaded custody entry, got %+v %v", chain, err)
	}

	if _, _, err := upload(f, updated, owner, "more"); !errors.Is(err, e.ErrInvalidStateTransition) {
		t.Fatalf("fulfilled request must not take more footage, got %v", err)
	}
}

func TestEvidenceService_UploadRejectsEmptyAndExpired(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	f.registerCamera(t, 100)
	req := f.openRequest(t)

	if _, _, err := upload(f, req, owner, ""); !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected empty footage to be rejected, got %v", err)
	}
	_, _, err := f.evidence.Upload(context.Background(), service.Upload{
		RequestID: req.ID,
		CameraID:  req.TargetCameraIDs[0],
		Uploader:  owner,
		Size:      -1,
		Body:      strings.NewReader(""),
	})
	if !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected empty footage of unknown size to be rejected, got %v", err)
	}
	if n := f.blobs.Len(); n != 0 {
		t.Fatalf("empty uploads must not reach object storage, found %d objects", n)
	}

	f.clk.Advance(lifecycle.DefaultTTL + time.Second)
	if _, _, err := upload(f, req, owner, "late frames"); !errors.Is(err, e.ErrInvalidStateTransition) {
		t.Fatalf("expected expired request to refuse footage, got %v", err)
	}
}

func TestEvidenceService_DownloadCustodyVerify(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, nil, nil)
	f.registerCamera(t, 100)
	req := f.openRequest(t)
	ctx := context.Background()

	body := "original footage"
	ev, _, err := upload(f, req, owner, body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, _, err := f.evidence.Download(ctx, ev.ID, stranger); !errors.Is(err, e.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	_, rc, err := f.evidence.Download(ctx, ev.ID, requester)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != body {
		t.Fatalf("expected %q, got %q", body, got)
	}

	chain, err := f.evidence.Custody(ctx, ev.ID, requester)
	if err != nil || len(chain) != 2 {
		t.Fatalf("expected upload and access entries, got %d %v", len(chain), err)
	}
	if chain[1].Action != domain.CustodyAccessed || chain[1].ActorID != requester.UserID {
		t.Fatalf("viewer's own entry should keep its id, got %+v", chain[1])
	}
	if chain[0].ActorID != f.privacy.AnonymousID(owner.UserID) {
		t.Fatalf("other actors should be pseudonymised, got %q", chain[0].ActorID)
	}
	full, _ := f.evidence.Custody(ctx, ev.ID, admin)
	if full[0].ActorID != owner.UserID {
		t.Fatalf("admin should see real actor ids")
	}

	report, err := f.evidence.Verify(ctx, ev.ID, requester)
	if err != nil || !report.Chain.Valid || !report.ContentIntact {
		t.Fatalf("expected intact evidence, got %+v %v", report, err)
	}

	f.blobs.Overwrite(ev.ObjectKey, []byte("edited footage"))
	report, err = f.evidence.Verify(ctx, ev.ID, requester)
	if err != nil || !report.Chain.Valid || report.ContentIntact {
		t.Fatalf("expected content mismatch with a valid chain, got %+v %v", report, err)
	}
}

func TestEvidenceService_SealedAtRest(t *testing.T) {
	t.Parallel()

	id, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	f := newFixture(t, nil, nil, objectstore.NewSealer(id.Recipient(), id))
	f.registerCamera(t, 100)
	req := f.openRequest(t)

	body := "sensitive frames"
	ev, _, err := upload(f, req, owner, body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !ev.Sealed || ev.SizeBytes != int64(len(body)) {
		t.Fatalf("expected sealed evidence of plaintext size, got %+v", ev)
	}
	raw, ok := f.blobs.Raw(ev.ObjectKey)
	if !ok || bytes.Contains(raw, []byte(body)) {
		t.Fatalf("stored object must be ciphertext")
	}

	_, rc, err := f.evidence.Download(context.Background(), ev.ID, requester)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != body {
		t.Fatalf("expected decrypted footage, got %q", got)
	}
}
