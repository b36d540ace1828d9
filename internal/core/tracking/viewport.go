package tracking

import (
	"github.com/paulmach/orb"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/pkg/geospatial"
)

// Padding and zoom levels per viewport pattern.
const (
	PaddingRouteAndLive      = 60
	PaddingRouteOnly         = 50
	PaddingOriginDestination = 70

	ZoomLive     = 15 // street level
	ZoomOrigin   = 11 // regional
	ZoomFallback = 5  // country level
)

// DefaultFallbackCenter is Brasília.
var DefaultFallbackCenter = domain.GeoPoint{Lat: -15.793889, Lon: -47.882778}

// ViewportInput is a snapshot of everything currently known about a map.
// Every field is optional. Live must already be filtered.
type ViewportInput struct {
	Origin      *domain.LabeledPoint `json:"origin,omitempty"`
	Destination *domain.LabeledPoint `json:"destination,omitempty"`
	Route       domain.RoutePolyline `json:"route,omitempty"`
	Live        *domain.GeoPoint     `json:"live,omitempty"`
}

// ViewportFitter turns a ViewportInput into a ViewportSpec.
type ViewportFitter struct {
	FallbackCenter domain.GeoPoint
}

// NewViewportFitter returns a fitter centered on DefaultFallbackCenter when
// nothing is known.
func NewViewportFitter() *ViewportFitter {
	return &ViewportFitter{FallbackCenter: DefaultFallbackCenter}
}

// Classify picks the richest pattern the input supports. Patterns are checked
// in priority order and the first match wins.
func Classify(in ViewportInput) domain.ViewportPattern {
	switch {
	case len(in.Route) > 0 && in.Live != nil:
		return domain.PatternRouteAndLive
	case len(in.Route) > 0:
		return domain.PatternRouteOnly
	case in.Origin != nil && in.Destination != nil:
		return domain.PatternOriginDestination
	case in.Live != nil:
		return domain.PatternLiveOnly
	case in.Origin != nil:
		return domain.PatternOriginOnly
	default:
		return domain.PatternNone
	}
}

// Fit computes the viewport for the input. It never fails.
func (f *ViewportFitter) Fit(in ViewportInput) domain.ViewportSpec {
	pattern := Classify(in)

	switch pattern {
	case domain.PatternRouteAndLive:
		return boundsSpec(pattern, PaddingRouteAndLive, append(clonePoints(in.Route), *in.Live)...)
	case domain.PatternRouteOnly:
		return boundsSpec(pattern, PaddingRouteOnly, in.Route...)
	case domain.PatternOriginDestination:
		return boundsSpec(pattern, PaddingOriginDestination, in.Origin.GeoPoint, in.Destination.GeoPoint)
	case domain.PatternLiveOnly:
		return centerSpec(pattern, *in.Live, ZoomLive)
	case domain.PatternOriginOnly:
		return centerSpec(pattern, in.Origin.GeoPoint, ZoomOrigin)
	case domain.PatternNone:
		return centerSpec(pattern, f.FallbackCenter, ZoomFallback)
	}
	panic("tracking: unhandled viewport pattern " + string(pattern))
}

func boundsSpec(pattern domain.ViewportPattern, padding int, points ...domain.GeoPoint) domain.ViewportSpec {
	mp := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		mp = append(mp, geospatial.ToOrb(p))
	}
	b := mp.Bound()

	return domain.ViewportSpec{
		Pattern: pattern,
		Bounds: &domain.Bounds{
			SouthWest: geospatial.FromOrb(b.Min),
			NorthEast: geospatial.FromOrb(b.Max),
		},
		PaddingPx: padding,
	}
}

func centerSpec(pattern domain.ViewportPattern, center domain.GeoPoint, zoom int) domain.ViewportSpec {
	c := center
	return domain.ViewportSpec{Pattern: pattern, Center: &c, Zoom: zoom}
}

// clonePoints copies the route so appending the live position never writes
// into the caller's backing array.
func clonePoints(route domain.RoutePolyline) []domain.GeoPoint {
	out := make([]domain.GeoPoint, len(route), len(route)+1)
	copy(out, route)
	return out
}
