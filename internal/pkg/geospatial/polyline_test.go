package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightline/tracker/internal/core/domain"
)

func TestDecodePolyline_ReferenceVector(t *testing.T) {
	route, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, route, 3)

	want := domain.RoutePolyline{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	}
	for i := range want {
		assert.InDelta(t, want[i].Lat, route[i].Lat, 1e-5)
		assert.InDelta(t, want[i].Lon, route[i].Lon, 1e-5)
	}
}

func TestDecodePolyline_Empty(t *testing.T) {
	route, err := DecodePolyline("")
	require.NoError(t, err)
	assert.Empty(t, route)
}

func TestDecodePolyline_Truncated(t *testing.T) {
	_, err := DecodePolyline("_p~iF~ps|U_ulL")
	assert.Error(t, err)
}
