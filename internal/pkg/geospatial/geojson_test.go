package geospatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightline/tracker/internal/core/domain"
)

func TestMapViewFeatures(t *testing.T) {
	live := domain.GeoPoint{Lat: -20.0, Lon: -47.0}
	view := &domain.MapView{
		Origin:      &domain.LabeledPoint{GeoPoint: brasilia, Label: "Brasília"},
		Destination: &domain.LabeledPoint{GeoPoint: saoPaulo, Label: "São Paulo"},
		Route:       domain.RoutePolyline{brasilia, live, saoPaulo},
		Live:        &live,
		LiveSource:  domain.LiveSourceReport,
		Viewport: domain.ViewportSpec{
			Pattern: domain.PatternRouteAndLive,
			Bounds: &domain.Bounds{
				SouthWest: domain.GeoPoint{Lat: -23.55052, Lon: -47.882778},
				NorthEast: domain.GeoPoint{Lat: -15.793889, Lon: -46.633309},
			},
			PaddingPx: 60,
		},
	}

	fc := MapViewFeatures(view)
	require.Len(t, fc.Features, 4)

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, line, 3)
	assert.Equal(t, orb.Point{brasilia.Lon, brasilia.Lat}, line[0])

	assert.Equal(t, "origin", fc.Features[1].Properties["kind"])
	assert.Equal(t, "São Paulo", fc.Features[2].Properties["label"])
	assert.Equal(t, domain.LiveSourceReport, fc.Features[3].Properties["source"])
	assert.Len(t, fc.BBox, 4)
}

func TestMapViewFeatures_Empty(t *testing.T) {
	fc := MapViewFeatures(&domain.MapView{})
	assert.Empty(t, fc.Features)
	assert.Nil(t, fc.BBox)
}

func TestOrbRoundTrip(t *testing.T) {
	p := domain.GeoPoint{Lat: 1.5, Lon: -2.5}
	assert.Equal(t, p, FromOrb(ToOrb(p)))
}
