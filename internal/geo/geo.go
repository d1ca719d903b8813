// Package geo holds spherical-earth distance and location fuzzing primitives.
package geo

import (
	"math"
	"math/rand/v2"

	"camwatch/internal/domain"
)

const (
	EarthRadiusM = 6_371_000.0
	// MetersPerDegreeLat is the length of one degree of latitude on the sphere.
	MetersPerDegreeLat = EarthRadiusM * math.Pi / 180
)

// Rand is the random source used for fuzzing. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// SystemRand draws from the package-level generator and is safe for concurrent use.
type SystemRand struct{}

func (SystemRand) Float64() float64 { return rand.Float64() }

func Valid(loc domain.Location) bool {
	return loc.Valid()
}

// HaversineMeters is the unrounded great-circle distance between a and b.
func HaversineMeters(a, b domain.Location) float64 {
	phi1 := radians(a.Lat)
	phi2 := radians(b.Lat)
	dPhi := phi2 - phi1
	dLambda := radians(b.Lng - a.Lng)

	sPhi := math.Sin(dPhi / 2)
	sLambda := math.Sin(dLambda / 2)
	h := sPhi*sPhi + math.Cos(phi1)*math.Cos(phi2)*sLambda*sLambda
	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceMeters is the haversine distance rounded to whole meters.
func DistanceMeters(a, b domain.Location) float64 {
	return math.Round(HaversineMeters(a, b))
}

// Destination returns the point reached by travelling meters from origin along bearingDeg
// (clockwise from north) on a great circle.
func Destination(origin domain.Location, bearingDeg, meters float64) domain.Location {
	if meters == 0 {
		return origin
	}
	phi1 := radians(origin.Lat)
	lambda1 := radians(origin.Lng)
	theta := radians(bearingDeg)
	delta := meters / EarthRadiusM

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(math.Max(-1, math.Min(1, sinPhi2)))
	// cos(phi1) scales the longitude step so east-west displacement shrinks toward the poles.
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	return domain.Location{
		Lat: degrees(phi2),
		Lng: normalizeLng(degrees(lambda2)),
	}
}

// Fuzz returns a point uniformly distributed over the disk of radiusM around loc.
// The distance is drawn as r*sqrt(u) so sampling is uniform in area, not in radius.
func Fuzz(loc domain.Location, radiusM float64, rnd Rand) domain.Location {
	if radiusM <= 0 {
		return loc
	}
	u := 1 - rnd.Float64() // (0, 1]
	v := rnd.Float64()
	d := radiusM * math.Sqrt(u)
	return Destination(loc, 360*v, d)
}

// GridCell snaps loc to the centre of its cellM-sized grid cell. Every point in a cell maps
// to the same centre, which makes the result a stable but coarse pseudonym.
func GridCell(loc domain.Location, cellM float64) domain.Location {
	if cellM <= 0 {
		return loc
	}
	latStep := cellM / MetersPerDegreeLat
	lat := (math.Floor(loc.Lat/latStep) + 0.5) * latStep
	lat = math.Max(-90, math.Min(90, lat))

	lngStep := 360.0
	if c := math.Cos(radians(lat)); c > 1e-9 {
		lngStep = math.Min(360, cellM/(MetersPerDegreeLat*c))
	}
	lng := (math.Floor((loc.Lng+180)/lngStep)+0.5)*lngStep - 180
	return domain.Location{Lat: lat, Lng: normalizeLng(lng)}
}

// Bounds is a lat/lng box enclosing a circle, used to prefilter registry lookups.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundingBox returns a box that contains every point within radiusM of center.
// Near the poles or the antimeridian the longitude range widens to the full circle.
func BoundingBox(center domain.Location, radiusM float64) Bounds {
	dLat := degrees(radiusM / EarthRadiusM)
	b := Bounds{
		MinLat: math.Max(-90, center.Lat-dLat),
		MaxLat: math.Min(90, center.Lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}
	if b.MinLat == -90 || b.MaxLat == 90 {
		return b
	}
	maxAbsLat := math.Max(math.Abs(b.MinLat), math.Abs(b.MaxLat))
	dLng := degrees(radiusM / (EarthRadiusM * math.Cos(radians(maxAbsLat))))
	if center.Lng-dLng < -180 || center.Lng+dLng > 180 {
		return b
	}
	b.MinLng = center.Lng - dLng
	b.MaxLng = center.Lng + dLng
	return b
}

func (b Bounds) Contains(loc domain.Location) bool {
	return loc.Lat >= b.MinLat && loc.Lat <= b.MaxLat && loc.Lng >= b.MinLng && loc.Lng <= b.MaxLng
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
