package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/tracking"
	"github.com/freightline/tracker/internal/pkg/geospatial"
)

// ListContractsHandler returns a page of contracts, optionally filtered by status.
func ListContractsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := domain.ContractStatus(strings.ToLower(c.Query("status")))
		switch status {
		case "", domain.ContractPending, domain.ContractActive, domain.ContractCompleted, domain.ContractCancelled:
		default:
			return errBadRequest(c, "status must be one of pending, active, completed, cancelled")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		contracts, total, err := deps.Contracts.List(c.UserContext(), status, offset, limit)
		if err != nil {
			return errService(c, err, "")
		}
		if contracts == nil {
			contracts = []domain.Contract{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: contracts, Pagination: pg})
	}
}

// RegisterContractHandler stores a contract mirrored from the freight API.
func RegisterContractHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var contract domain.Contract
		if err := c.BodyParser(&contract); err != nil {
			return errBadRequest(c, "invalid contract body")
		}
		if err := deps.Contracts.Register(c.UserContext(), &contract); err != nil {
			return errService(c, err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(contract)
	}
}

// GetContractHandler returns a single contract by ID.
func GetContractHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "contract id is required")
		}

		contract, err := deps.Contracts.GetByID(c.UserContext(), id)
		if err != nil {
			return errService(c, err, "contract not found")
		}
		return c.JSON(contract)
	}
}

// MapViewHandler returns markers, route, live position and viewport for a contract.
func MapViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Tracking.BuildMapView(c.UserContext(), c.Params("id"))
		if err != nil {
			return errService(c, err, "contract not found")
		}
		c.Set("Cache-Control", "private, max-age=5")
		return c.JSON(view)
	}
}

// MapGeoJSONHandler returns the same map view as a GeoJSON FeatureCollection.
func MapGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Tracking.BuildMapView(c.UserContext(), c.Params("id"))
		if err != nil {
			return errService(c, err, "contract not found")
		}
		data, err := geospatial.MapViewFeatures(view).MarshalJSON()
		if err != nil {
			return errInternal(c, "encode geojson")
		}
		c.Set("Cache-Control", "private, max-age=5")
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

type reportRequest struct {
	Lat        *float64  `json:"lat"`
	Lon        *float64  `json:"lon"`
	ReportedAt time.Time `json:"reported_at"`
}

// SubmitReportHandler accepts a driver position. An implausible position is
// stored and answered with accepted=false, not an error.
func SubmitReportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req reportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid report body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}

		report := &domain.TrackingReport{
			ContractID: c.Params("id"),
			Position:   domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon},
			ReportedAt: req.ReportedAt,
		}
		verdict, err := deps.Tracking.ProcessReport(c.UserContext(), report)
		if err != nil {
			return errService(c, err, "contract not found")
		}
		return c.Status(fiber.StatusAccepted).JSON(verdict)
	}
}

// ViewportHandler fits a viewport to a caller-supplied snapshot.
func ViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in tracking.ViewportInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid viewport body")
		}
		if err := validateViewportInput(in); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(deps.Tracking.FitViewport(in))
	}
}

func validateViewportInput(in tracking.ViewportInput) error {
	if in.Origin != nil {
		if err := in.Origin.Validate(); err != nil {
			return err
		}
	}
	if in.Destination != nil {
		if err := in.Destination.Validate(); err != nil {
			return err
		}
	}
	if in.Live != nil {
		if err := in.Live.Validate(); err != nil {
			return err
		}
	}
	for _, p := range in.Route {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DistanceHandler returns the great-circle distance between two points.
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := queryPoint(c, "from")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		to, err := queryPoint(c, "to")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(fiber.Map{
			"from": from,
			"to":   to,
			"km":   deps.Geo.Distance(from, to),
		})
	}
}

// queryPoint reads <prefix>_lat and <prefix>_lon.
func queryPoint(c *fiber.Ctx, prefix string) (domain.GeoPoint, error) {
	latStr, lonStr := c.Query(prefix+"_lat"), c.Query(prefix+"_lon")
	if latStr == "" || lonStr == "" {
		return domain.GeoPoint{}, fiber.NewError(400, prefix+"_lat and "+prefix+"_lon are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.GeoPoint{}, fiber.NewError(400, prefix+"_lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return domain.GeoPoint{}, fiber.NewError(400, prefix+"_lon must be a number")
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, err
	}
	return p, nil
}

type plausibilityRequest struct {
	Origin      *domain.GeoPoint `json:"origin"`
	Destination *domain.GeoPoint `json:"destination"`
	Reported    *domain.GeoPoint `json:"reported"`
}

// PlausibilityHandler evaluates a reported position against a route's endpoints.
func PlausibilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req plausibilityRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid plausibility body")
		}
		if req.Origin == nil || req.Destination == nil || req.Reported == nil {
			return errBadRequest(c, "origin, destination and reported are required")
		}
		for _, p := range []*domain.GeoPoint{req.Origin, req.Destination, req.Reported} {
			if err := p.Validate(); err != nil {
				return errBadRequest(c, err.Error())
			}
		}
		return c.JSON(deps.Geo.Plausibility(*req.Origin, *req.Destination, *req.Reported))
	}
}
