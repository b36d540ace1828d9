package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/ports"
	"github.com/freightline/tracker/internal/core/tracking"
	"github.com/freightline/tracker/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/freightline/tracker/internal/core/usecases")

// lastGoodTTL bounds how long a last-known-good position may stand in for a
// discarded report.
const lastGoodTTL = 24 * 60 * 60

// TrackingService reconciles driver reports with contract geography and
// produces the map view for a contract.
type TrackingService struct {
	contracts ports.ContractRepository
	reports   ports.TrackingReportRepository
	geo       *GeoService
	publisher ports.EventPublisher
	cache     ports.CacheService
	filter    *tracking.PlausibilityFilter
	fitter    *tracking.ViewportFitter
}

// NewTrackingService creates a new TrackingService. publisher and cache may be nil.
func NewTrackingService(
	contracts ports.ContractRepository,
	reports ports.TrackingReportRepository,
	geo *GeoService,
	publisher ports.EventPublisher,
	cache ports.CacheService,
	filter *tracking.PlausibilityFilter,
	fitter *tracking.ViewportFitter,
) *TrackingService {
	if filter == nil {
		filter = tracking.NewPlausibilityFilter()
	}
	if fitter == nil {
		fitter = tracking.NewViewportFitter()
	}
	return &TrackingService{
		contracts: contracts,
		reports:   reports,
		geo:       geo,
		publisher: publisher,
		cache:     cache,
		filter:    filter,
		fitter:    fitter,
	}
}

// FitViewport computes a viewport from a caller-supplied snapshot.
func (s *TrackingService) FitViewport(in tracking.ViewportInput) domain.ViewportSpec {
	spec := s.fitter.Fit(in)
	metrics.ViewportPatterns.WithLabelValues(string(spec.Pattern)).Inc()
	return spec
}

// BuildMapView assembles everything needed to draw a contract on the map.
// Collaborator failures degrade the view and are reported as warnings; only
// a missing contract is an error.
func (s *TrackingService) BuildMapView(ctx context.Context, contractID string) (*domain.MapView, error) {
	ctx, span := tracer.Start(ctx, "TrackingService.BuildMapView")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", contractID))

	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("get contract %s: %w", contractID, err)
	}

	view := &domain.MapView{
		ContractID: contract.ID,
		Route:      domain.RoutePolyline{},
		LiveSource: domain.LiveSourceNone,
	}

	view.Origin = s.locate(ctx, view, "origin", contract.OriginAddress)
	view.Destination = s.locate(ctx, view, "destination", contract.DestinationAddress)

	if view.Origin != nil && view.Destination != nil {
		route, err := s.geo.Route(ctx, view.Origin.GeoPoint, view.Destination.GeoPoint)
		if err != nil {
			slog.WarnContext(ctx, "route unavailable", "contract_id", contract.ID, "error", err)
			view.Warnings = append(view.Warnings, "route unavailable")
		} else {
			view.Route = route
		}
	}

	if contract.Trackable() {
		s.attachLive(ctx, contract, view)
	}

	view.Viewport = s.FitViewport(tracking.ViewportInput{
		Origin:      view.Origin,
		Destination: view.Destination,
		Route:       view.Route,
		Live:        view.Live,
	})
	span.SetAttributes(attribute.String("viewport.pattern", string(view.Viewport.Pattern)))

	return view, nil
}

func (s *TrackingService) locate(ctx context.Context, view *domain.MapView, role, address string) *domain.LabeledPoint {
	p, err := s.geo.Geocode(ctx, address)
	if err != nil {
		slog.WarnContext(ctx, "geocoding failed", "contract_id", view.ContractID, "role", role, "error", err)
		view.Warnings = append(view.Warnings, role+" could not be geocoded")
		return nil
	}
	return &domain.LabeledPoint{GeoPoint: p, Label: address}
}

func (s *TrackingService) attachLive(ctx context.Context, contract *domain.Contract, view *domain.MapView) {
	report, err := s.reports.Latest(ctx, contract.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "latest report unavailable", "contract_id", contract.ID, "error", err)
			view.Warnings = append(view.Warnings, "live position unavailable")
		}
		return
	}

	live := s.plausible(ctx, view, report.Position)
	if live != nil {
		view.Live = live
		view.LiveSource = domain.LiveSourceReport
		s.storeLastGood(ctx, contract.ID, *live)
		return
	}

	view.Warnings = append(view.Warnings, "live position discarded as implausible")
	if lastGood, ok := s.loadLastGood(ctx, contract.ID); ok {
		view.Live = &lastGood
		view.LiveSource = domain.LiveSourceLastGood
	}
}

// plausible filters a reported position against the view's endpoints. When
// either endpoint is unknown there is nothing to check against and the
// position is kept.
func (s *TrackingService) plausible(ctx context.Context, view *domain.MapView, reported domain.GeoPoint) *domain.GeoPoint {
	if err := reported.Validate(); err != nil {
		slog.WarnContext(ctx, "discarding out-of-range driver position", "contract_id", view.ContractID, "error", err)
		return nil
	}
	if view.Origin == nil || view.Destination == nil {
		p := reported
		return &p
	}
	live, _ := s.filter.Filter(view.Origin.GeoPoint, view.Destination.GeoPoint, reported)
	return live
}

// ProcessReport validates, stores and fans out a driver report. Implausible
// reports are stored flagged and not published; they are not an error.
func (s *TrackingService) ProcessReport(ctx context.Context, report *domain.TrackingReport) (domain.Verdict, error) {
	ctx, span := tracer.Start(ctx, "TrackingService.ProcessReport")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", report.ContractID))

	if err := report.Position.Validate(); err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if report.ReportedAt.IsZero() {
		report.ReportedAt = time.Now()
	}

	contract, err := s.contracts.GetByID(ctx, report.ContractID)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("get contract %s: %w", report.ContractID, err)
	}

	verdict := domain.Verdict{Accepted: true}
	origin, oErr := s.geo.Geocode(ctx, contract.OriginAddress)
	destination, dErr := s.geo.Geocode(ctx, contract.DestinationAddress)
	if oErr == nil && dErr == nil {
		_, verdict = s.filter.Filter(origin, destination, report.Position)
	} else {
		slog.DebugContext(ctx, "endpoints unknown, accepting report unchecked", "contract_id", contract.ID)
	}

	if err := s.reports.Insert(ctx, report, verdict.Accepted); err != nil {
		return verdict, fmt.Errorf("insert report: %w", err)
	}

	if !verdict.Accepted {
		metrics.PositionsRejected.Inc()
		if s.publisher != nil {
			if err := s.publisher.PublishRejection(ctx, report, verdict); err != nil {
				slog.WarnContext(ctx, "publish rejection failed", "contract_id", contract.ID, "error", err)
			}
		}
		return verdict, nil
	}

	metrics.PositionsAccepted.Inc()
	s.storeLastGood(ctx, contract.ID, report.Position)
	if s.publisher != nil {
		if err := s.publisher.PublishPosition(ctx, report); err != nil {
			slog.WarnContext(ctx, "publish position failed", "contract_id", contract.ID, "error", err)
		}
	}
	return verdict, nil
}

func lastGoodKey(contractID string) string {
	return "tracking:lastgood:" + contractID
}

func (s *TrackingService) storeLastGood(ctx context.Context, contractID string, p domain.GeoPoint) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(p); err == nil {
		_ = s.cache.Set(ctx, lastGoodKey(contractID), data, lastGoodTTL)
	}
}

func (s *TrackingService) loadLastGood(ctx context.Context, contractID string) (domain.GeoPoint, bool) {
	var p domain.GeoPoint
	if s.cache == nil {
		return p, false
	}
	data, err := s.cache.Get(ctx, lastGoodKey(contractID))
	if err != nil {
		return p, false
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, false
	}
	return p, true
}
