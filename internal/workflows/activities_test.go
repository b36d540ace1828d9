package workflows

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freightline/tracker/internal/adapters/freightapi"
	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/core/ports"
	"github.com/freightline/tracker/internal/core/usecases"
)

type stubContracts struct {
	contract domain.Contract
}

func (s *stubContracts) Upsert(ctx context.Context, c *domain.Contract) error { return nil }
func (s *stubContracts) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	if id != s.contract.ID {
		return nil, domain.ErrNotFound
	}
	c := s.contract
	return &c, nil
}
func (s *stubContracts) ListActive(ctx context.Context) ([]domain.Contract, error) {
	return []domain.Contract{s.contract}, nil
}
func (s *stubContracts) List(ctx context.Context, status domain.ContractStatus, offset, limit int) ([]domain.Contract, int, error) {
	return []domain.Contract{s.contract}, 1, nil
}

type stubReports struct {
	stored []domain.TrackingReport
}

func (s *stubReports) Insert(ctx context.Context, r *domain.TrackingReport, accepted bool) error {
	s.stored = append(s.stored, *r)
	return nil
}
func (s *stubReports) Latest(ctx context.Context, contractID string) (*domain.TrackingReport, error) {
	if len(s.stored) == 0 {
		return nil, domain.ErrNotFound
	}
	r := s.stored[len(s.stored)-1]
	return &r, nil
}

type stubSource struct {
	report *domain.TrackingReport
	err    error
}

func (s *stubSource) LatestReport(ctx context.Context, contractID string) (*domain.TrackingReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := *s.report
	return &r, nil
}

type stubGeo struct{}

func (stubGeo) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	switch address {
	case "São Paulo":
		return domain.GeoPoint{Lat: -23.5505, Lon: -46.6333}, nil
	case "Rio de Janeiro":
		return domain.GeoPoint{Lat: -22.9068, Lon: -43.1729}, nil
	}
	return domain.GeoPoint{}, domain.ErrNotFound
}

func (stubGeo) Route(ctx context.Context, from, to domain.GeoPoint) (domain.RoutePolyline, error) {
	return domain.RoutePolyline{from, to}, nil
}

func newActivities(source ports.TrackingSource) (*PollActivities, *stubReports) {
	contracts := &stubContracts{contract: domain.Contract{
		ID: "c-1", OriginAddress: "São Paulo", DestinationAddress: "Rio de Janeiro", Status: domain.ContractActive,
	}}
	reports := &stubReports{}
	geo := usecases.NewGeoService(stubGeo{}, stubGeo{}, nil, nil)
	return &PollActivities{
		Contracts: usecases.NewContractService(contracts),
		Tracking:  usecases.NewTrackingService(contracts, reports, geo, nil, nil, nil, nil),
		Source:    source,
		Reports:   reports,
	}, reports
}

func TestPollActivities_ListActiveContracts(t *testing.T) {
	a, _ := newActivities(&stubSource{})
	ids, err := a.ListActiveContracts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1"}, ids)
}

func TestPollActivities_PollContract(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &stubSource{report: &domain.TrackingReport{
		ContractID: "c-1", Position: domain.GeoPoint{Lat: -22.4705, Lon: -44.4509}, ReportedAt: at,
	}}
	a, reports := newActivities(source)

	res, err := a.PollContract(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, PollAccepted, res.Outcome)
	require.Len(t, reports.stored, 1)

	// Same timestamp again is not reprocessed.
	res, err = a.PollContract(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, PollUnchanged, res.Outcome)
	assert.Len(t, reports.stored, 1)

	source.report.ReportedAt = at.Add(time.Minute)
	source.report.Position = domain.GeoPoint{Lat: -3.7319, Lon: -38.5267}
	res, err = a.PollContract(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, PollRejected, res.Outcome)
	assert.Len(t, reports.stored, 2)
}

func TestPollActivities_PollContract_NoPosition(t *testing.T) {
	a, _ := newActivities(&stubSource{err: domain.ErrNotFound})
	res, err := a.PollContract(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, PollNoPosition, res.Outcome)
}

func TestPollActivities_PollContract_SourceError(t *testing.T) {
	a, _ := newActivities(&stubSource{err: errors.New("timeout")})
	_, err := a.PollContract(context.Background(), "c-1")
	assert.Error(t, err)
}

func TestPollActivities_PollContract_UntimedReportsFromFreightAPI(t *testing.T) {
	var moved atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if moved.Load() {
			_, _ = w.Write([]byte(`{"latitude":-22.9068,"longitude":-43.1729}`))
			return
		}
		_, _ = w.Write([]byte(`{"latitude":-22.4705,"longitude":-44.4509}`))
	}))
	defer srv.Close()

	a, reports := newActivities(freightapi.New(srv.URL, domain.Session{Role: domain.RoleAdmin}, 5*time.Second))

	res, err := a.PollContract(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, PollAccepted, res.Outcome)
	require.Len(t, reports.stored, 1)
	assert.False(t, reports.stored[0].ReportedAt.IsZero(), "stored report should be stamped")

	for i := 0; i < 2; i++ {
		res, err = a.PollContract(context.Background(), "c-1")
		require.NoError(t, err)
		assert.Equal(t, PollUnchanged, res.Outcome)
	}
	assert.Len(t, reports.stored, 1)

	moved.Store(true)
	res, err = a.PollContract(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, PollAccepted, res.Outcome)
	assert.Len(t, reports.stored, 2)
}
