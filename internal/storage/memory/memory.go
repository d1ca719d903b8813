// Package memory implements the storage repositories in process. It backs tests and
// single-node local runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/geo"
	"camwatch/internal/storage"
	"camwatch/pkg/e"
)

type Store struct {
	mu       sync.RWMutex
	cameras  map[uuid.UUID]domain.Camera
	markers  map[uuid.UUID]domain.Marker
	requests map[uuid.UUID]*domain.FootageRequest
	custody  map[uuid.UUID][]domain.CustodyEntry
	evidence map[uuid.UUID]domain.Evidence

	Cameras  *CameraRepo
	Markers  *MarkerRepo
	Requests *RequestRepo
	Custody  *CustodyRepo
	Evidence *EvidenceRepo
}

func New() *Store {
	s := &Store{
		cameras:  make(map[uuid.UUID]domain.Camera),
		markers:  make(map[uuid.UUID]domain.Marker),
		requests: make(map[uuid.UUID]*domain.FootageRequest),
		custody:  make(map[uuid.UUID][]domain.CustodyEntry),
		evidence: make(map[uuid.UUID]domain.Evidence),
	}
	s.Cameras = &CameraRepo{s: s}
	s.Markers = &MarkerRepo{s: s}
	s.Requests = &RequestRepo{s: s}
	s.Custody = &CustodyRepo{s: s}
	s.Evidence = &EvidenceRepo{s: s}
	return s
}

var (
	_ storage.CameraRepository   = (*CameraRepo)(nil)
	_ storage.MarkerRepository   = (*MarkerRepo)(nil)
	_ storage.RequestRepository  = (*RequestRepo)(nil)
	_ storage.CustodyRepository  = (*CustodyRepo)(nil)
	_ storage.EvidenceRepository = (*EvidenceRepo)(nil)
)

func notFound(op string, id uuid.UUID) error {
	return fmt.Errorf("%s: %s: %w", op, id, e.ErrNotFound)
}

func within(center, loc domain.Location, box geo.Bounds, radiusM float64) bool {
	return box.Contains(loc) && geo.HaversineMeters(center, loc) <= radiusM
}

type CameraRepo struct{ s *Store }

func (r *CameraRepo) Create(_ context.Context, cam *domain.Camera) error {
	const op = "memory.CameraRepo.Create"

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cameras[cam.ID]; ok {
		return fmt.Errorf("%s: %w", op, e.ErrUniqueViolation)
	}
	c := *cam
	c.OptOutIncidentTypes = slices.Clone(cam.OptOutIncidentTypes)
	if cam.QuietHours != nil {
		q := *cam.QuietHours
		c.QuietHours = &q
	}
	r.s.cameras[cam.ID] = c
	return nil
}

func (r *CameraRepo) Get(_ context.Context, id uuid.UUID) (*domain.Camera, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.cameras[id]
	if !ok {
		return nil, notFound("memory.CameraRepo.Get", id)
	}
	return &c, nil
}

func (r *CameraRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Camera, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Camera
	for _, c := range r.s.cameras {
		if c.OwnerID == ownerID && c.DeletedAt == nil {
			c := c
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Camera) int { return a.InstalledAt.Compare(b.InstalledAt) })
	return out, nil
}

func (r *CameraRepo) Within(_ context.Context, center domain.Location, radiusM float64) ([]domain.Camera, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	reach := storage.WithinMargin(radiusM)
	box := geo.BoundingBox(center, reach)
	var out []domain.Camera
	for _, c := range r.s.cameras {
		if c.DeletedAt == nil && within(center, c.Location, box, reach) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *CameraRepo) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cameras[id]
	if !ok || c.DeletedAt != nil {
		return notFound("memory.CameraRepo.SoftDelete", id)
	}
	c.DeletedAt = &at
	c.Active = false
	c.UpdatedAt = at
	r.s.cameras[id] = c
	return nil
}

func (r *CameraRepo) UpdateTrust(_ context.Context, id uuid.UUID, tier domain.TrustTier, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cameras[id]
	if !ok || c.DeletedAt != nil {
		return notFound("memory.CameraRepo.UpdateTrust", id)
	}
	c.TrustTier = tier
	c.UpdatedAt = at
	r.s.cameras[id] = c
	return nil
}

type MarkerRepo struct{ s *Store }

func copyMarker(m domain.Marker) domain.Marker {
	m.ConfirmedRequesters = slices.Clone(m.ConfirmedRequesters)
	return m
}

func (r *MarkerRepo) Create(_ context.Context, m *domain.Marker) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.markers[m.ID]; ok {
		return fmt.Errorf("memory.MarkerRepo.Create: %w", e.ErrUniqueViolation)
	}
	r.s.markers[m.ID] = copyMarker(*m)
	return nil
}

func (r *MarkerRepo) Get(_ context.Context, id uuid.UUID) (*domain.Marker, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.markers[id]
	if !ok {
		return nil, notFound("memory.MarkerRepo.Get", id)
	}
	m = copyMarker(m)
	return &m, nil
}

func (r *MarkerRepo) Update(_ context.Context, m *domain.Marker) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.markers[m.ID]; !ok {
		return notFound("memory.MarkerRepo.Update", m.ID)
	}
	r.s.markers[m.ID] = copyMarker(*m)
	return nil
}

func (r *MarkerRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Marker, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Marker
	for _, m := range r.s.markers {
		if m.OwnerID == ownerID {
			m := copyMarker(m)
			out = append(out, &m)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Marker) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *MarkerRepo) Within(_ context.Context, center domain.Location, radiusM float64) ([]domain.Marker, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	reach := storage.WithinMargin(radiusM)
	box := geo.BoundingBox(center, reach)
	var out []domain.Marker
	for _, m := range r.s.markers {
		if within(center, m.Location, box, reach) {
			out = append(out, copyMarker(m))
		}
	}
	return out, nil
}

func (r *MarkerRepo) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, m := range r.s.markers {
		if (m.Status == domain.MarkerActive || m.Status == domain.MarkerMatched) && !now.Before(m.ExpiresAt) {
			m.Status = domain.MarkerExpired
			r.s.markers[id] = m
			n++
		}
	}
	return n, nil
}

type RequestRepo struct{ s *Store }

func (r *RequestRepo) Create(_ context.Context, req *domain.FootageRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[req.ID]; ok {
		return fmt.Errorf("memory.RequestRepo.Create: %w", e.ErrUniqueViolation)
	}
	r.s.requests[req.ID] = req.Clone()
	return nil
}

func (r *RequestRepo) Get(_ context.Context, id uuid.UUID) (*domain.FootageRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, notFound("memory.RequestRepo.Get", id)
	}
	return req.Clone(), nil
}

func (r *RequestRepo) Update(_ context.Context, req *domain.FootageRequest) error {
	const op = "memory.RequestRepo.Update"

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.requests[req.ID]
	if !ok {
		return notFound(op, req.ID)
	}
	if cur.Version != req.Version {
		return fmt.Errorf("%s: stored version %d, have %d: %w", op, cur.Version, req.Version, e.ErrConflict)
	}
	req.Version++
	r.s.requests[req.ID] = req.Clone()
	return nil
}

func (r *RequestRepo) list(match func(*domain.FootageRequest) bool) []*domain.FootageRequest {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.FootageRequest
	for _, req := range r.s.requests {
		if match(req) {
			out = append(out, req.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *domain.FootageRequest) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (r *RequestRepo) ListByRequester(_ context.Context, requesterID string) ([]*domain.FootageRequest, error) {
	return r.list(func(req *domain.FootageRequest) bool { return req.RequesterID == requesterID }), nil
}

func (r *RequestRepo) ListForOwner(_ context.Context, ownerID string) ([]*domain.FootageRequest, error) {
	return r.list(func(req *domain.FootageRequest) bool {
		for _, resp := range req.Responses {
			if resp.OwnerID == ownerID {
				return true
			}
		}
		return false
	}), nil
}

func (r *RequestRepo) ListDue(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	due := r.list(func(req *domain.FootageRequest) bool {
		return req.DueForExpiry(now)
	})
	ids := make([]uuid.UUID, 0, len(due))
	for _, req := range due {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, req.ID)
	}
	return ids, nil
}

func (r *RequestRepo) HasOpenForSource(_ context.Context, sourceID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.requests {
		if req.Status.Open() && slices.Contains(req.TargetCameraIDs, sourceID) {
			return true, nil
		}
	}
	return false, nil
}

type CustodyRepo struct{ s *Store }

func (r *CustodyRepo) Chain(_ context.Context, evidenceID uuid.UUID) ([]domain.CustodyEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.custody[evidenceID]), nil
}

func (r *CustodyRepo) Tail(_ context.Context, evidenceID uuid.UUID) (*domain.CustodyEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	chain := r.s.custody[evidenceID]
	if len(chain) == 0 {
		return nil, nil
	}
	tail := chain[len(chain)-1]
	return &tail, nil
}

func (r *CustodyRepo) Append(_ context.Context, entry domain.CustodyEntry) error {
	const op = "memory.CustodyRepo.Append"

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	chain := r.s.custody[entry.EvidenceID]
	tailHash := domain.GenesisHash
	if len(chain) > 0 {
		tailHash = chain[len(chain)-1].EntryHash
	}
	if entry.PreviousEntryHash != tailHash || entry.Index != len(chain) {
		return fmt.Errorf("%s: tail moved: %w", op, e.ErrConflict)
	}
	r.s.custody[entry.EvidenceID] = append(chain, entry)
	return nil
}

type EvidenceRepo struct{ s *Store }

func (r *EvidenceRepo) Create(_ context.Context, ev *domain.Evidence) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.evidence[ev.ID]; ok {
		return fmt.Errorf("memory.EvidenceRepo.Create: %w", e.ErrUniqueViolation)
	}
	r.s.evidence[ev.ID] = *ev
	return nil
}

func (r *EvidenceRepo) Get(_ context.Context, id uuid.UUID) (*domain.Evidence, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ev, ok := r.s.evidence[id]
	if !ok {
		return nil, notFound("memory.EvidenceRepo.Get", id)
	}
	return &ev, nil
}

func (r *EvidenceRepo) ListByRequest(_ context.Context, requestID uuid.UUID) ([]*domain.Evidence, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Evidence
	for _, ev := range r.s.evidence {
		if ev.RequestID == requestID {
			ev := ev
			out = append(out, &ev)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Evidence) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}
