package tracking

import (
	"log/slog"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/pkg/geospatial"
)

const (
	// DefaultMultiplier scales the origin→destination distance.
	DefaultMultiplier = 1.5
	// DefaultAllowanceKm is the flat allowance added on top, so short routes
	// and detours are not rejected by the multiplier alone.
	DefaultAllowanceKm = 50.0
)

// PlausibilityFilter decides whether a reported driver position is consistent
// enough with the contract endpoints to be shown on the map.
type PlausibilityFilter struct {
	Multiplier  float64
	AllowanceKm float64
	Logger      *slog.Logger
}

// NewPlausibilityFilter returns a filter with the default constants.
func NewPlausibilityFilter() *PlausibilityFilter {
	return &PlausibilityFilter{
		Multiplier:  DefaultMultiplier,
		AllowanceKm: DefaultAllowanceKm,
	}
}

// Check measures the reported position against the route length.
// The position is accepted iff its distance from the origin is strictly less
// than routeKm*Multiplier + AllowanceKm.
func (f *PlausibilityFilter) Check(origin, destination, reported domain.GeoPoint) domain.Verdict {
	routeKm := geospatial.HaversineKm(origin, destination)
	driverKm := geospatial.HaversineKm(origin, reported)
	limitKm := routeKm*f.Multiplier + f.AllowanceKm

	return domain.Verdict{
		Accepted: driverKm < limitKm,
		RouteKm:  routeKm,
		DriverKm: driverKm,
		LimitKm:  limitKm,
	}
}

// Filter returns the reported position when it is plausible and nil
// otherwise. A rejection is logged at warn level and is never an error.
func (f *PlausibilityFilter) Filter(origin, destination, reported domain.GeoPoint) (*domain.GeoPoint, domain.Verdict) {
	v := f.Check(origin, destination, reported)
	if !v.Accepted {
		f.logger().Warn("discarding implausible driver position",
			"lat", reported.Lat,
			"lon", reported.Lon,
			"driver_km", v.DriverKm,
			"route_km", v.RouteKm,
			"limit_km", v.LimitKm,
		)
		return nil, v
	}
	p := reported
	return &p, v
}

func (f *PlausibilityFilter) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
