package domain

import (
	"math"
	"testing"
)

func TestGeoPointValidate(t *testing.T) {
	tests := []struct {
		name  string
		p     GeoPoint
		valid bool
	}{
		{"brasilia", GeoPoint{Lat: -15.793889, Lon: -47.882778}, true},
		{"corners", GeoPoint{Lat: 90, Lon: -180}, true},
		{"lat out of range", GeoPoint{Lat: 90.5, Lon: 0}, false},
		{"lon out of range", GeoPoint{Lat: 0, Lon: 180.1}, false},
		{"NaN lat", GeoPoint{Lat: math.NaN(), Lon: 0}, false},
		{"NaN lon", GeoPoint{Lat: 0, Lon: math.NaN()}, false},
		{"infinite lat", GeoPoint{Lat: math.Inf(1), Lon: 0}, false},
		{"infinite lon", GeoPoint{Lat: 0, Lon: math.Inf(-1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected an error")
			}
		})
	}
}
