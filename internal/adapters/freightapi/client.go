// Package freightapi talks to the freight brokerage API for geocoding,
// routing and driver tracking.
package freightapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/freightline/tracker/internal/core/domain"
	"github.com/freightline/tracker/internal/pkg/geospatial"
)

// Client implements ports.Geocoder, ports.Router and ports.TrackingSource.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client whose every request carries the session's bearer
// token. The session is captured once; callers rebuild the client on login.
func New(baseURL string, session domain.Session, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{token: session.Token, next: http.DefaultTransport},
		},
	}
}

// bearerTransport sets the Authorization header on outgoing requests.
type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token == "" {
		return t.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(req)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Code)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: http.MethodGet, URL: u, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

// ParseLonLat parses the geocoder's "longitude,latitude" string. The order
// is reversed relative to GeoPoint.
func ParseLonLat(s string) (domain.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("coordinates %q: want \"lon,lat\"", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("coordinates %q: longitude: %w", s, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("coordinates %q: latitude: %w", s, err)
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("coordinates %q: %w", s, err)
	}
	return p, nil
}

type geocodeResponse struct {
	Coordinates string `json:"coordinates"`
}

// Geocode resolves an address.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	var resp geocodeResponse
	if err := c.getJSON(ctx, "/geocode", url.Values{"address": {address}}, &resp); err != nil {
		return domain.GeoPoint{}, err
	}
	return ParseLonLat(resp.Coordinates)
}

type routeResponse struct {
	Coordinates [][]float64 `json:"coordinates"`
	Polyline    string      `json:"polyline"`
}

// Route returns the road path between two points. The service answers with
// either a list of [lat, lon] pairs or an encoded polyline.
func (c *Client) Route(ctx context.Context, from, to domain.GeoPoint) (domain.RoutePolyline, error) {
	q := url.Values{
		"from": {formatLatLon(from)},
		"to":   {formatLatLon(to)},
	}
	var resp routeResponse
	if err := c.getJSON(ctx, "/route", q, &resp); err != nil {
		return nil, err
	}

	if resp.Polyline != "" {
		return geospatial.DecodePolyline(resp.Polyline)
	}

	route := make(domain.RoutePolyline, 0, len(resp.Coordinates))
	for i, pair := range resp.Coordinates {
		if len(pair) != 2 {
			return nil, fmt.Errorf("route point %d: want [lat, lon], got %d values", i, len(pair))
		}
		p := domain.GeoPoint{Lat: pair[0], Lon: pair[1]}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("route point %d: %w", i, err)
		}
		route = append(route, p)
	}
	return route, nil
}

type trackingResponse struct {
	ContractID string    `json:"contract_id"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`
}

// ErrNoPosition means the driver has not reported yet. It matches
// domain.ErrNotFound.
var ErrNoPosition = fmt.Errorf("no position reported: %w", domain.ErrNotFound)

// LatestReport returns the driver's last reported position for a contract.
// ReportedAt stays zero when the API does not send reported_at.
func (c *Client) LatestReport(ctx context.Context, contractID string) (*domain.TrackingReport, error) {
	var resp trackingResponse
	if err := c.getJSON(ctx, "/contracts/"+url.PathEscape(contractID)+"/tracking", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Latitude == nil || resp.Longitude == nil {
		return nil, ErrNoPosition
	}
	report := &domain.TrackingReport{
		ContractID: contractID,
		Position:   domain.GeoPoint{Lat: *resp.Latitude, Lon: *resp.Longitude},
		ReportedAt: resp.ReportedAt,
	}
	return report, nil
}

func formatLatLon(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lon, 'f', 6, 64)
}
