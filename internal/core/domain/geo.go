package domain

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point lies inside the valid degree ranges.
func (p GeoPoint) Validate() error {
	if !finite(p.Lat) || !finite(p.Lon) {
		return fmt.Errorf("coordinate (%v, %v) is not a finite number", p.Lat, p.Lon)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", p.Lon)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// LabeledPoint is a GeoPoint with a display label (origin or destination).
type LabeledPoint struct {
	GeoPoint
	Label string `json:"label"`
}

// RoutePolyline is an ordered sequence of coordinates in travel order.
// An empty polyline means no route has been computed.
type RoutePolyline []GeoPoint

// Bounds represents a geographic bounding box.
type Bounds struct {
	SouthWest GeoPoint `json:"south_west"`
	NorthEast GeoPoint `json:"north_east"`
}

// ViewportPattern names which combination of inputs produced a viewport.
type ViewportPattern string

const (
	PatternRouteAndLive      ViewportPattern = "route_and_live"
	PatternRouteOnly         ViewportPattern = "route_only"
	PatternOriginDestination ViewportPattern = "origin_destination"
	PatternLiveOnly          ViewportPattern = "live_only"
	PatternOriginOnly        ViewportPattern = "origin_only"
	PatternNone              ViewportPattern = "none"
)

// ViewportSpec is either a bounding box with padding or a center with a zoom
// level. Exactly one of Bounds and Center is set.
type ViewportSpec struct {
	Pattern   ViewportPattern `json:"pattern"`
	Bounds    *Bounds         `json:"bounds,omitempty"`
	PaddingPx int             `json:"padding_px,omitempty"`
	Center    *GeoPoint       `json:"center,omitempty"`
	Zoom      int             `json:"zoom,omitempty"`
}

// IsBounds reports whether the spec is the bounding-box shape.
func (v ViewportSpec) IsBounds() bool {
	return v.Bounds != nil
}
