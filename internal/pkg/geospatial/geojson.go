package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/freightline/tracker/internal/core/domain"
)

// ToOrb converts a domain point to an orb point (lon, lat order).
func ToOrb(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb point back to a domain point.
func FromOrb(p orb.Point) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
}

// MapViewFeatures renders a map view as a GeoJSON feature collection: the
// route as a LineString plus one Point per marker.
func MapViewFeatures(view *domain.MapView) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if len(view.Route) > 0 {
		line := make(orb.LineString, 0, len(view.Route))
		for _, p := range view.Route {
			line = append(line, ToOrb(p))
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "route"
		fc.Append(f)
	}

	if view.Origin != nil {
		f := geojson.NewFeature(ToOrb(view.Origin.GeoPoint))
		f.Properties["kind"] = "origin"
		f.Properties["label"] = view.Origin.Label
		fc.Append(f)
	}
	if view.Destination != nil {
		f := geojson.NewFeature(ToOrb(view.Destination.GeoPoint))
		f.Properties["kind"] = "destination"
		f.Properties["label"] = view.Destination.Label
		fc.Append(f)
	}
	if view.Live != nil {
		f := geojson.NewFeature(ToOrb(*view.Live))
		f.Properties["kind"] = "live"
		f.Properties["source"] = view.LiveSource
		fc.Append(f)
	}

	if view.Viewport.Bounds != nil {
		fc.BBox = geojson.BBox{
			view.Viewport.Bounds.SouthWest.Lon, view.Viewport.Bounds.SouthWest.Lat,
			view.Viewport.Bounds.NorthEast.Lon, view.Viewport.Bounds.NorthEast.Lat,
		}
	}

	return fc
}
