package memory

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/geo"
	"camwatch/pkg/e"
)

var center = domain.Location{Lat: 51.5074, Lng: -0.1278}

func TestCameraRepo_WithinAndSoftDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()

	near := &domain.Camera{ID: uuid.New(), OwnerID: "a", Location: geo.Destination(center, 10, 500), Active: true}
	far := &domain.Camera{ID: uuid.New(), OwnerID: "a", Location: geo.Destination(center, 10, 700), Active: true}
	for _, c := range []*domain.Camera{near, far} {
		if err := s.Cameras.Create(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := s.Cameras.Create(ctx, near); !errors.Is(err, e.ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	got, err := s.Cameras.Within(ctx, center, 500)
	if err != nil {
		t.Fatalf("within: %v", err)
	}
	if len(got) != 1 || got[0].ID != near.ID {
		t.Fatalf("expected only the near camera, got %+v", got)
	}

	if err := s.Cameras.SoftDelete(ctx, near.ID, time.Now()); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	got, _ = s.Cameras.Within(ctx, center, 500)
	if len(got) != 0 {
		t.Fatalf("deleted camera still returned")
	}
	if _, err := s.Cameras.Get(ctx, near.ID); err != nil {
		t.Fatalf("soft deleted camera must remain readable: %v", err)
	}
}

func TestRequestRepo_OptimisticUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	req := &domain.FootageRequest{ID: uuid.New(), Status: domain.RequestPending}
	if err := s.Requests.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	a, _ := s.Requests.Get(ctx, req.ID)
	b, _ := s.Requests.Get(ctx, req.ID)

	a.Status = domain.RequestApproved
	if err := s.Requests.Update(ctx, a); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if a.Version != 1 {
		t.Fatalf("expected version 1, got %d", a.Version)
	}

	b.Status = domain.RequestCancelled
	if err := s.Requests.Update(ctx, b); !errors.Is(err, e.ErrConflict) {
		t.Fatalf("expected conflict for stale write, got %v", err)
	}

	stored, _ := s.Requests.Get(ctx, req.ID)
	if stored.Status != domain.RequestApproved {
		t.Fatalf("stale write leaked, status %s", stored.Status)
	}
}

func TestCustodyRepo_CompareAndAppend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	id := uuid.New()

	first := domain.CustodyEntry{EvidenceID: id, Index: 0, PreviousEntryHash: domain.GenesisHash, EntryHash: "h0"}
	if err := s.Custody.Append(ctx, first); err != nil {
		t.Fatalf("append genesis: %v", err)
	}
	stale := domain.CustodyEntry{EvidenceID: id, Index: 1, PreviousEntryHash: domain.GenesisHash, EntryHash: "h1"}
	if err := s.Custody.Append(ctx, stale); !errors.Is(err, e.ErrConflict) {
		t.Fatalf("expected conflict on stale tail, got %v", err)
	}
	next := domain.CustodyEntry{EvidenceID: id, Index: 1, PreviousEntryHash: "h0", EntryHash: "h1"}
	if err := s.Custody.Append(ctx, next); err != nil {
		t.Fatalf("append: %v", err)
	}

	tail, _ := s.Custody.Tail(ctx, id)
	if tail == nil || tail.EntryHash != "h1" {
		t.Fatalf("unexpected tail %+v", tail)
	}
	empty, _ := s.Custody.Tail(ctx, uuid.New())
	if empty != nil {
		t.Fatalf("expected nil tail for unknown evidence")
	}
}

func TestRequestRepo_ListDueAndOpenSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cam := uuid.New()

	due := &domain.FootageRequest{ID: uuid.New(), Status: domain.RequestPending, ExpiresAt: now.Add(-time.Minute), TargetCameraIDs: []uuid.UUID{cam}}
	later := &domain.FootageRequest{ID: uuid.New(), Status: domain.RequestApproved, ExpiresAt: now.Add(time.Hour)}
	done := &domain.FootageRequest{ID: uuid.New(), Status: domain.RequestFulfilled, ExpiresAt: now.Add(-time.Hour)}
	atExpiry := &domain.FootageRequest{ID: uuid.New(), Status: domain.RequestPending, ExpiresAt: now, TargetCameraIDs: []uuid.UUID{uuid.New()}}
	untargeted := &domain.FootageRequest{ID: uuid.New(), Status: domain.RequestPending, ExpiresAt: now}
	for _, r := range []*domain.FootageRequest{due, later, done, atExpiry, untargeted} {
		if err := s.Requests.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	ids, err := s.Requests.ListDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(ids) != 2 || !slices.Contains(ids, due.ID) || !slices.Contains(ids, untargeted.ID) {
		t.Fatalf("expected the past-due and untargeted requests, got %v", ids)
	}
	for _, r := range []*domain.FootageRequest{due, later, done, atExpiry, untargeted} {
		if got := slices.Contains(ids, r.ID); got != r.DueForExpiry(now) {
			t.Fatalf("request %s listed=%v but DueForExpiry=%v", r.ID, got, r.DueForExpiry(now))
		}
	}

	open, _ := s.Requests.HasOpenForSource(ctx, cam)
	if !open {
		t.Fatalf("expected camera to be referenced by an open request")
	}
	open, _ = s.Requests.HasOpenForSource(ctx, uuid.New())
	if open {
		t.Fatalf("unknown camera reported as referenced")
	}
}
