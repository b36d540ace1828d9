package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/ports"
	"github.com/freightline/tracker/internal/core/tracking"
	"github.com/freightline/tracker/internal/pkg/geospatial"
	"github.com/freightline/tracker/internal/pkg/metrics"
)

// GeoService wraps the geocoding and routing collaborators with caching and
// exposes the distance primitives.
type GeoService struct {
	geocoder ports.Geocoder
	router   ports.Router
	cache    ports.CacheService
	filter   *tracking.PlausibilityFilter
}

// NewGeoService creates a new GeoService. cache may be nil.
func NewGeoService(geocoder ports.Geocoder, router ports.Router, cache ports.CacheService, filter *tracking.PlausibilityFilter) *GeoService {
	if filter == nil {
		filter = tracking.NewPlausibilityFilter()
	}
	return &GeoService{geocoder: geocoder, router: router, cache: cache, filter: filter}
}

// Geocode resolves an address, caching hits for a day.
func (s *GeoService) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.GeoPoint{}, fmt.Errorf("%w: address must not be empty", domain.ErrInvalidInput)
	}

	cacheKey := "geo:addr:" + strings.ToLower(address)
	var p domain.GeoPoint
	if s.cacheGet(ctx, "geocode", cacheKey, &p) {
		return p, nil
	}

	p, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("geocode").Inc()
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("geocode %q: %w", address, err)
	}

	s.cacheSet(ctx, cacheKey, p, 86400)
	return p, nil
}

// Route returns the path between two points, caching it for an hour.
func (s *GeoService) Route(ctx context.Context, from, to domain.GeoPoint) (domain.RoutePolyline, error) {
	cacheKey := fmt.Sprintf("geo:route:%.5f,%.5f:%.5f,%.5f", from.Lat, from.Lon, to.Lat, to.Lon)
	var route domain.RoutePolyline
	if s.cacheGet(ctx, "route", cacheKey, &route) {
		return route, nil
	}

	route, err := s.router.Route(ctx, from, to)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("route").Inc()
		return nil, fmt.Errorf("route: %w", err)
	}
	if route == nil {
		route = domain.RoutePolyline{}
	}

	s.cacheSet(ctx, cacheKey, route, 3600)
	return route, nil
}

// Distance returns the great-circle distance in kilometers.
func (s *GeoService) Distance(a, b domain.GeoPoint) float64 {
	return geospatial.HaversineKm(a, b)
}

// Plausibility checks a reported position against a route's endpoints.
func (s *GeoService) Plausibility(origin, destination, reported domain.GeoPoint) domain.Verdict {
	return s.filter.Check(origin, destination, reported)
}

func (s *GeoService) cacheGet(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return true
}

func (s *GeoService) cacheSet(ctx context.Context, key string, v any, ttlSeconds int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttlSeconds)
	}
}
