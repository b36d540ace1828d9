package ports

import (
	"context"

	"github.com/freightline/tracker/internal/core/domain"
)

// Geocoder resolves a free-text address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, error)
}

// Router computes a path between two coordinates.
type Router interface {
	Route(ctx context.Context, from, to domain.GeoPoint) (domain.RoutePolyline, error)
}

// TrackingSource returns the last position a driver reported for a contract.
type TrackingSource interface {
	LatestReport(ctx context.Context, contractID string) (*domain.TrackingReport, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPosition(ctx context.Context, report *domain.TrackingReport) error
	PublishRejection(ctx context.Context, report *domain.TrackingReport, verdict domain.Verdict) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePositions(ctx context.Context, handler func(ctx context.Context, report *domain.TrackingReport) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
