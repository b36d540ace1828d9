package geospatial

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/freightline/tracker/internal/core/domain"
)

// DecodePolyline converts a Google encoded polyline (precision 1e5) to a route.
func DecodePolyline(encoded string) (domain.RoutePolyline, error) {
	if encoded == "" {
		return domain.RoutePolyline{}, nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	route := make(domain.RoutePolyline, 0, len(coords))
	for _, c := range coords {
		route = append(route, domain.GeoPoint{Lat: c[0], Lon: c[1]})
	}
	return route, nil
}
