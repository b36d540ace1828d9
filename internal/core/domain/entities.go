package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// ContractStatus is the lifecycle state of a freight contract.
type ContractStatus string

const (
	ContractPending   ContractStatus = "pending"
	ContractActive    ContractStatus = "active"
	ContractCompleted ContractStatus = "completed"
	ContractCancelled ContractStatus = "cancelled"
)

// Contract binds a driver to a freight listing between two addresses.
type Contract struct {
	ID                 string         `json:"id"`
	FreightID          string         `json:"freight_id"`
	DriverID           string         `json:"driver_id"`
	OriginAddress      string         `json:"origin_address"`
	DestinationAddress string         `json:"destination_address"`
	Status             ContractStatus `json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Trackable reports whether live positions are expected for the contract.
func (c *Contract) Trackable() bool {
	return c.Status == ContractActive
}

// TrackingReport is a driver position reported for a contract.
type TrackingReport struct {
	ContractID string    `json:"contract_id"`
	Position   GeoPoint  `json:"position"`
	ReportedAt time.Time `json:"reported_at"`
}

// Verdict is the outcome of a plausibility check on a reported position.
type Verdict struct {
	Accepted bool    `json:"accepted"`
	RouteKm  float64 `json:"route_km"`
	DriverKm float64 `json:"driver_km"`
	LimitKm  float64 `json:"limit_km"`
}

// Live position sources reported in a MapView.
const (
	LiveSourceNone     = "none"
	LiveSourceReport   = "report"
	LiveSourceLastGood = "last_known_good"
)

// MapView is everything the map needs to render a contract.
type MapView struct {
	ContractID  string        `json:"contract_id"`
	Origin      *LabeledPoint `json:"origin,omitempty"`
	Destination *LabeledPoint `json:"destination,omitempty"`
	Route       RoutePolyline `json:"route"`
	Live        *GeoPoint     `json:"live,omitempty"`
	LiveSource  string        `json:"live_source"`
	Viewport    ViewportSpec  `json:"viewport"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// ErrInvalidInput marks caller mistakes such as out-of-range coordinates.
var ErrInvalidInput = errors.New("invalid input")
