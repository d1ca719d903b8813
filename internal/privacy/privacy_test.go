package privacy

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/geo"
)

var home = domain.Location{Lat: 51.5074, Lng: -0.1278}

func newManager(seed uint64) *Manager {
	return NewManager(DefaultConfig(), DefaultPolicy(), rand.New(rand.NewPCG(seed, seed+1)))
}

func TestResolvePublicLocation_RadiusBound(t *testing.T) {
	t.Parallel()

	cam := domain.Camera{ID: uuid.New(), OwnerID: "owner-1", Location: home}
	cases := []struct {
		name   string
		viewer domain.Viewer
		radius float64
	}{
		{"community", domain.Viewer{UserID: "u1", Role: domain.RoleCommunity}, 25},
		{"insurance", domain.Viewer{UserID: "u2", Role: domain.RoleInsurance}, 15},
		{"unverified_police", domain.Viewer{UserID: "u3", Role: domain.RolePolice}, 10},
		{"anonymous", domain.Viewer{}, 25},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			m := newManager(1)
			distinct := make(map[domain.Location]struct{})
			for i := 0; i < 1000; i++ {
				p := m.ResolvePublicLocation(cam, c.viewer)
				if p == home {
					t.Fatalf("sample %d returned the true location", i)
				}
				if d := geo.HaversineMeters(home, p); d > c.radius+1e-6 {
					t.Fatalf("sample %d at %.4fm exceeds %vm", i, d, c.radius)
				}
				distinct[p] = struct{}{}
			}
			if len(distinct) < 2 {
				t.Fatalf("expected varying output")
			}
		})
	}
}

func TestResolvePublicLocation_PreciseAccess(t *testing.T) {
	t.Parallel()

	cam := domain.Camera{OwnerID: "owner-1", Location: home}
	m := newManager(2)

	precise := []domain.Viewer{
		{UserID: "owner-1", Role: domain.RoleCommunity},
		{UserID: "p1", Role: domain.RolePolice, Verified: true},
		{UserID: "a1", Role: domain.RoleAdmin, Verified: true},
		{UserID: "s1", Role: domain.RoleSuperAdmin, Verified: true},
	}
	for _, v := range precise {
		if got := m.ResolvePublicLocation(cam, v); got != home {
			t.Fatalf("viewer %+v should see the true location, got %v", v, got)
		}
	}

	if got := m.ResolvePublicLocation(cam, domain.Viewer{UserID: "i1", Role: domain.RoleInsurance, Verified: true}); got == home {
		t.Fatalf("verified insurance must not get precise location")
	}
}

func TestResolvePublicLocation_MarkerRequiresConfirmation(t *testing.T) {
	t.Parallel()

	marker := domain.Marker{OwnerID: "owner-2", Location: home}
	police := domain.Viewer{UserID: "p1", Role: domain.RolePolice, Verified: true}
	m := newManager(3)

	if got := m.ResolvePublicLocation(marker, police); got == home {
		t.Fatalf("marker precision requires owner confirmation")
	}

	marker.ConfirmedRequesters = []string{"p1"}
	if got := m.ResolvePublicLocation(marker, police); got != home {
		t.Fatalf("confirmed requester should see the true location")
	}
	if got := m.ResolvePublicLocation(marker, domain.Viewer{UserID: "owner-2"}); got != home {
		t.Fatalf("owner should always see the true location")
	}
}

func TestResolvePublicLocation_DoesNotMutateSubject(t *testing.T) {
	t.Parallel()

	cam := domain.Camera{OwnerID: "o", Location: home, PublicLocation: home}
	before := cam
	_ = newManager(4).ResolvePublicLocation(&cam, domain.Viewer{UserID: "x"})
	if cam.Location != before.Location || cam.PublicLocation != before.PublicLocation {
		t.Fatalf("camera was mutated")
	}
}

func TestRadiusFor_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{RadiiM: map[domain.Role]float64{domain.RolePolice: 5}}, nil, nil)
	if got := m.RadiusFor(domain.RolePolice); got != 5 {
		t.Fatalf("expected override 5, got %v", got)
	}
	if got := m.RadiusFor(domain.RoleSecurity); got != DefaultRadiusM {
		t.Fatalf("expected default radius, got %v", got)
	}
}

func TestAnonymousID(t *testing.T) {
	t.Parallel()

	a := NewManager(Config{Salt: "alpha"}, nil, nil)
	b := NewManager(Config{Salt: "beta"}, nil, nil)

	id := a.AnonymousID("user-42")
	if !strings.HasPrefix(id, "ANON-") || len(id) != len("ANON-")+16 {
		t.Fatalf("unexpected pseudonym format %q", id)
	}
	if id != a.AnonymousID("user-42") {
		t.Fatalf("pseudonym not stable")
	}
	if id == b.AnonymousID("user-42") {
		t.Fatalf("pseudonym should depend on the salt")
	}
}

func TestCoarseCell_Stable(t *testing.T) {
	t.Parallel()

	m := newManager(5)
	if m.CoarseCell(home) != m.CoarseCell(home) {
		t.Fatalf("coarse cell should be deterministic")
	}
}
