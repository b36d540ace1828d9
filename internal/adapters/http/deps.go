package http

import (
	"github.com/nats-io/nats.go"

	"github.com/freightline/tracker/internal/adapters/postgres"
	"github.com/freightline/tracker/internal/adapters/valkey"
	"github.com/freightline/tracker/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Contracts *usecases.ContractService
	Tracking  *usecases.TrackingService
	Geo       *usecases.GeoService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
