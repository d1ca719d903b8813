// Package matching selects and ranks the cameras and markers that may hold footage of an incident.
package matching

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"camwatch/internal/domain"
	"camwatch/internal/geo"
	"camwatch/pkg/clock"
	"camwatch/pkg/e"
)

const (
	DefaultProximityWeight = 0.7
	DefaultTrustWeight     = 0.3
	DefaultMarkerBuffer    = 2 * time.Hour

	// pointToleranceM absorbs float noise in stored coordinates for zero-radius searches.
	pointToleranceM = 0.001
)

// Incident is the matching input derived from a footage request.
type Incident struct {
	Type     string
	Location domain.Location
	RadiusM  float64
	Window   domain.TimeWindow
}

type Engine struct {
	clock           clock.Clock
	proximityWeight float64
	trustWeight     float64
	markerBuffer    time.Duration
}

type Option func(*Engine)

func WithWeights(proximity, trust float64) Option {
	return func(en *Engine) {
		en.proximityWeight = proximity
		en.trustWeight = trust
	}
}

func WithMarkerBuffer(d time.Duration) Option {
	return func(en *Engine) { en.markerBuffer = d }
}

func NewEngine(clk clock.Clock, opts ...Option) *Engine {
	en := &Engine{
		clock:           clk,
		proximityWeight: DefaultProximityWeight,
		trustWeight:     DefaultTrustWeight,
		markerBuffer:    DefaultMarkerBuffer,
	}
	for _, opt := range opts {
		opt(en)
	}
	return en
}

func (i Incident) Validate() error {
	const op = "matching.Incident.Validate"

	if !geo.Valid(i.Location) || math.IsNaN(i.Location.Lat) || math.IsNaN(i.Location.Lng) {
		return e.Wrap(op, e.ErrInvalidCoordinates)
	}
	if math.IsNaN(i.RadiusM) || math.IsInf(i.RadiusM, 0) || i.RadiusM < 0 {
		return e.Invalid(op, "radius must be a non-negative number of meters")
	}
	if strings.TrimSpace(i.Type) == "" {
		return e.Invalid(op, "incident type is required")
	}
	if !i.Window.Valid() {
		return e.Invalid(op, "time window must have a start not after its end")
	}
	return nil
}

// FindCandidates returns every eligible camera and marker ranked by score, then distance,
// then id. Distance is measured on true locations and the radius boundary is inclusive.
// Scores only order the result; they never exclude a candidate.
func (en *Engine) FindCandidates(inc Incident, cameras []domain.Camera, markers []domain.Marker) ([]domain.EvidenceMatch, error) {
	if err := inc.Validate(); err != nil {
		return nil, err
	}

	matches := make([]domain.EvidenceMatch, 0, len(cameras))
	for _, cam := range cameras {
		if !cam.Available() || cam.OptedOut(inc.Type) {
			continue
		}
		d, ok := inc.reaches(cam.Location)
		if !ok {
			continue
		}
		if !cam.InstalledAt.IsZero() && cam.InstalledAt.After(inc.Window.End) {
			continue
		}
		if cam.QuietHours != nil && quietThroughout(*cam.QuietHours, inc.Window) {
			continue
		}
		trust := float64(cam.TrustTier) / float64(domain.MaxTrustTier)
		matches = append(matches, domain.EvidenceMatch{
			SourceID:  cam.ID,
			Kind:      domain.SourceCamera,
			OwnerID:   cam.OwnerID,
			DistanceM: d,
			Score:     en.score(d, inc.RadiusM, trust),
		})
	}

	now := en.clock.Now()
	from := inc.Window.Start.Add(-en.markerBuffer)
	to := inc.Window.End.Add(en.markerBuffer)
	for _, m := range markers {
		if !m.Matchable(now) {
			continue
		}
		if m.RecordedAt.Before(from) || m.RecordedAt.After(to) {
			continue
		}
		d, ok := inc.reaches(m.Location)
		if !ok {
			continue
		}
		trust := math.Max(0, math.Min(1, float64(m.TrustScore)/100))
		matches = append(matches, domain.EvidenceMatch{
			SourceID:  m.ID,
			Kind:      domain.SourceMarker,
			OwnerID:   m.OwnerID,
			DistanceM: d,
			Score:     en.score(d, inc.RadiusM, trust),
		})
	}

	slices.SortFunc(matches, func(a, b domain.EvidenceMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.DistanceM, b.DistanceM); c != 0 {
			return c
		}
		return strings.Compare(a.SourceID.String(), b.SourceID.String())
	})
	return matches, nil
}

// reaches returns the rounded distance to loc and whether loc is inside the search radius.
// Rounded distances would let radius 0 admit points up to half a metre away, so a zero
// radius is checked against the unrounded distance to the incident point itself.
func (i Incident) reaches(loc domain.Location) (float64, bool) {
	d := geo.DistanceMeters(i.Location, loc)
	if i.RadiusM == 0 {
		return d, geo.HaversineMeters(i.Location, loc) <= pointToleranceM
	}
	return d, d <= i.RadiusM
}

func (en *Engine) score(distance, radius, trust float64) float64 {
	proximity := 1.0
	if radius > 0 {
		proximity = math.Max(0, 1-distance/radius)
	}
	return en.proximityWeight*proximity + en.trustWeight*trust
}

// quietThroughout reports whether quiet hours cover every hour the window touches.
func quietThroughout(q domain.QuietHours, w domain.TimeWindow) bool {
	if w.End.Sub(w.Start) >= 24*time.Hour {
		return false
	}
	at := w.Start.UTC()
	end := w.End.UTC()
	for {
		if !q.Covers(at.Hour()) {
			return false
		}
		next := at.Truncate(time.Hour).Add(time.Hour)
		if next.After(end) {
			return true
		}
		at = next
	}
}
