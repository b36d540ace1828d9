package tracking

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/pkg/geospatial"
)

var (
	brasilia  = domain.GeoPoint{Lat: -15.793889, Lon: -47.882778}
	saoPaulo  = domain.GeoPoint{Lat: -23.55052, Lon: -46.633309}
	rio       = domain.GeoPoint{Lat: -22.906847, Lon: -43.172896}
	fortaleza = domain.GeoPoint{Lat: -3.731862, Lon: -38.526669}
)

func TestPlausibility_Defaults(t *testing.T) {
	f := NewPlausibilityFilter()
	assert.Equal(t, 1.5, f.Multiplier)
	assert.Equal(t, 50.0, f.AllowanceKm)
}

func TestPlausibility_ReportAtOriginAlwaysAccepted(t *testing.T) {
	f := NewPlausibilityFilter()
	for _, dest := range []domain.GeoPoint{saoPaulo, brasilia, fortaleza} {
		v := f.Check(brasilia, dest, brasilia)
		assert.True(t, v.Accepted, "destination %+v", dest)
		assert.Equal(t, 0.0, v.DriverKm)
	}
}

func TestPlausibility_AlongRouteAccepted(t *testing.T) {
	f := NewPlausibilityFilter()
	v := f.Check(brasilia, saoPaulo, rio)
	assert.True(t, v.Accepted)
	assert.InDelta(t, 872.3*1.5+50, v.LimitKm, 2)
}

func TestPlausibility_FarAwayRejected(t *testing.T) {
	f := NewPlausibilityFilter()
	v := f.Check(brasilia, saoPaulo, fortaleza)
	assert.False(t, v.Accepted)
	assert.Greater(t, v.DriverKm, v.LimitKm)
}

func TestPlausibility_ZeroLengthRouteUsesFlatAllowance(t *testing.T) {
	f := NewPlausibilityFilter()

	near := domain.GeoPoint{Lat: saoPaulo.Lat + 0.44, Lon: saoPaulo.Lon} // ~48.9 km
	far := domain.GeoPoint{Lat: saoPaulo.Lat + 0.46, Lon: saoPaulo.Lon}  // ~51.2 km

	v := f.Check(saoPaulo, saoPaulo, near)
	assert.Equal(t, 50.0, v.LimitKm)
	assert.True(t, v.Accepted)

	v = f.Check(saoPaulo, saoPaulo, far)
	assert.False(t, v.Accepted)
}

func TestPlausibility_BoundaryIsExclusive(t *testing.T) {
	d := geospatial.HaversineKm(saoPaulo, rio)

	exact := &PlausibilityFilter{Multiplier: 0, AllowanceKm: d}
	v := exact.Check(saoPaulo, brasilia, rio)
	require.Equal(t, v.DriverKm, v.LimitKm)
	assert.False(t, v.Accepted)

	above := &PlausibilityFilter{Multiplier: 0, AllowanceKm: d + 1}
	assert.True(t, above.Check(saoPaulo, brasilia, rio).Accepted)
}

func TestPlausibility_FilterLogsRejection(t *testing.T) {
	var buf bytes.Buffer
	f := NewPlausibilityFilter()
	f.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	pos, v := f.Filter(brasilia, saoPaulo, fortaleza)
	assert.Nil(t, pos)
	assert.False(t, v.Accepted)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "implausible")
}

func TestPlausibility_FilterReturnsCopy(t *testing.T) {
	f := NewPlausibilityFilter()
	reported := rio
	pos, v := f.Filter(brasilia, saoPaulo, reported)
	require.NotNil(t, pos)
	assert.True(t, v.Accepted)
	assert.Equal(t, rio, *pos)

	pos.Lat = 0
	assert.Equal(t, rio, reported)
}
