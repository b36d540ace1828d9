package freightapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/freightline/tracker/internal/core/domain"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, domain.Session{Token: token, Role: domain.RoleAdmin}, 5*time.Second)
}

func TestParseLonLat(t *testing.T) {
	p, err := ParseLonLat("-46.6333,-23.5505")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lat != -23.5505 || p.Lon != -46.6333 {
		t.Errorf("expected reversed order, got %+v", p)
	}

	for _, bad := range []string{"", "1", "a,b", "1,2,3", "0,95"} {
		if _, err := ParseLonLat(bad); err == nil {
			t.Errorf("ParseLonLat(%q): expected error", bad)
		}
	}
}

func TestClient_BearerToken(t *testing.T) {
	var got string
	c := newTestClient(t, "s3cret", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"coordinates":"-43.1729,-22.9068"}`))
	})

	if _, err := c.Geocode(context.Background(), "Rio"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Bearer s3cret" {
		t.Errorf("expected bearer header, got %q", got)
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("expected no Authorization header, got %q", h)
		}
		_, _ = w.Write([]byte(`{"coordinates":"-43.1729,-22.9068"}`))
	})
	if _, err := c.Geocode(context.Background(), "Rio"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Geocode(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geocode" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("address") != "Av. Paulista, 1000" {
			t.Errorf("unexpected address %q", r.URL.Query().Get("address"))
		}
		_, _ = w.Write([]byte(`{"coordinates":"-46.6333,-23.5505"}`))
	})

	p, err := c.Geocode(context.Background(), "Av. Paulista, 1000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != (domain.GeoPoint{Lat: -23.5505, Lon: -46.6333}) {
		t.Errorf("unexpected point %+v", p)
	}
}

func TestClient_Geocode_ServerError(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Geocode(context.Background(), "x")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Fatalf("expected StatusError 502, got %v", err)
	}
}

func TestClient_Route_Pairs(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") != "-23.550500,-46.633300" {
			t.Errorf("unexpected from %q", r.URL.Query().Get("from"))
		}
		_, _ = w.Write([]byte(`{"coordinates":[[-23.5505,-46.6333],[-22.4705,-44.4509],[-22.9068,-43.1729]]}`))
	})

	route, err := c.Route(context.Background(),
		domain.GeoPoint{Lat: -23.5505, Lon: -46.6333},
		domain.GeoPoint{Lat: -22.9068, Lon: -43.1729})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route) != 3 || route[1].Lon != -44.4509 {
		t.Errorf("unexpected route %+v", route)
	}
}

func TestClient_Route_Polyline(t *testing.T) {
	want := domain.RoutePolyline{{Lat: 38.5, Lon: -120.2}, {Lat: 40.7, Lon: -120.95}, {Lat: 43.252, Lon: -126.453}}
	encoded := string(polyline.EncodeCoords([][]float64{{38.5, -120.2}, {40.7, -120.95}, {43.252, -126.453}}))
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"polyline":"` + encoded + `"}`))
	})

	route, err := c.Route(context.Background(), want[0], want[2])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route) != 3 {
		t.Fatalf("expected 3 points, got %d", len(route))
	}
	if math.Abs(route[2].Lat-want[2].Lat) > 1e-6 || math.Abs(route[2].Lon-want[2].Lon) > 1e-6 {
		t.Errorf("expected %+v, got %+v", want[2], route[2])
	}
}

func TestClient_Route_BadPair(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"coordinates":[[1]]}`))
	})
	if _, err := c.Route(context.Background(), domain.GeoPoint{}, domain.GeoPoint{}); err == nil {
		t.Error("expected error for malformed pair")
	}
}

func TestClient_LatestReport(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contracts/c-1/tracking" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"contract_id":"c-1","latitude":-22.47,"longitude":-44.45,"reported_at":"2026-03-01T12:00:00Z"}`))
	})

	rep, err := c.LatestReport(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Position.Lat != -22.47 || rep.ContractID != "c-1" {
		t.Errorf("unexpected report %+v", rep)
	}
	if rep.ReportedAt.Year() != 2026 {
		t.Errorf("expected reported_at parsed, got %v", rep.ReportedAt)
	}
}

func TestClient_LatestReport_NoTimestamp(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude":-22.4705,"longitude":-44.4509}`))
	})
	rep, err := c.LatestReport(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.ReportedAt.IsZero() {
		t.Errorf("expected zero reported_at, got %v", rep.ReportedAt)
	}
}

func TestClient_LatestReport_NoPosition(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"contract_id":"c-1"}`))
	})
	if _, err := c.LatestReport(context.Background(), "c-1"); !errors.Is(err, ErrNoPosition) {
		t.Fatalf("expected ErrNoPosition, got %v", err)
	}
}

func TestClient_LatestReport_NotFound(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	if _, err := c.LatestReport(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
