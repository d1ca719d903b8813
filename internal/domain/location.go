package domain

type Location struct {
	Lat float64 `json:"lat" validate:"lat"` // -90..90
	Lng float64 `json:"lng" validate:"lng"` // -180..180
}

func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Subject is anything with a true location that may be disclosed to a viewer.
type Subject interface {
	TrueLocation() Location
	OwnerUserID() string
	// RequiresConsent reports whether precision needs explicit owner confirmation
	// regardless of the viewer's role.
	RequiresConsent() bool
	// PreciseGrantedTo reports whether the owner explicitly confirmed disclosure to userID.
	PreciseGrantedTo(userID string) bool
}
