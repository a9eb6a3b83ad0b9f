package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"truckFleetManagement/internal/config"
)

const (
	directionsPath = "/v2/directions/driving-car/geojson"
	geocodePath    = "/geocode/search"
	reversePath    = "/geocode/reverse"
	travelMode     = "driving-car"
)

// OpenRouteClient calls the OpenRouteService HTTP API. It is constructed
// once at process start from the routing config; the API key is never read
// from request data.
type OpenRouteClient struct {
	cfg  config.RoutingConfig
	http *http.Client
	log  *zap.Logger
}

func NewOpenRouteClient(cfg config.RoutingConfig, log *zap.Logger) *OpenRouteClient {
	return &OpenRouteClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// CalculateRoute requests a driving route through the points and normalizes
// the GeoJSON response into the route_data shape.
func (c *OpenRouteClient) CalculateRoute(ctx context.Context, points []Coordinate) (json.RawMessage, error) {
	if len(points) < 2 {
		return nil, errors.New("at least two points are required")
	}

	coords := make([][]float64, len(points))
	for i, p := range points {
		// ORS expects [lon, lat].
		coords[i] = []float64{p.Lon, p.Lat}
	}
	payload := map[string]any{
		"coordinates":  coords,
		"units":        "m",
		"geometry":     true,
		"instructions": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	raw, err := c.post(ctx, directionsPath, body)
	if err != nil {
		return nil, err
	}

	var geo struct {
		Features []struct {
			Geometry Geometry `json:"geometry"`
			Properties struct {
				Summary struct {
					Distance float64 `json:"distance"`
					Duration float64 `json:"duration"`
				} `json:"summary"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &geo); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}
	if len(geo.Features) == 0 {
		return nil, errors.New("no route could be calculated between the given coordinates")
	}

	out := RouteData{Waypoints: make([]Waypoint, len(points))}
	for i, p := range points {
		out.Waypoints[i] = Waypoint{Lat: p.Lat, Lon: p.Lon}
	}
	for _, f := range geo.Features {
		out.Routes = append(out.Routes, Route{
			Geometry: f.Geometry,
			Properties: RouteProperties{
				Distance: f.Properties.Summary.Distance,
				Duration: f.Properties.Summary.Duration,
				Mode:     travelMode,
			},
		})
		out.TotalDistance += f.Properties.Summary.Distance
		out.TotalDuration += f.Properties.Summary.Duration
	}
	return json.Marshal(out)
}

// Geocode resolves an address; the provider response is passed through raw.
func (c *OpenRouteClient) Geocode(ctx context.Context, address string) (json.RawMessage, error) {
	if address == "" {
		return nil, errors.New("address is required")
	}
	q := url.Values{"text": {address}}
	return c.get(ctx, geocodePath, q)
}

// ReverseGeocode resolves coordinates; the provider response is passed
// through raw.
func (c *OpenRouteClient) ReverseGeocode(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	q := url.Values{
		"point.lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"point.lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	return c.get(ctx, reversePath, q)
}

func (c *OpenRouteClient) post(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *OpenRouteClient) get(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	q.Set("api_key", c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *OpenRouteClient) do(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("routing request failed", zap.String("url", req.URL.Path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("routing provider error",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("routing provider returned HTTP %d", resp.StatusCode)
	}
	return json.RawMessage(raw), nil
}
