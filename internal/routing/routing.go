// Package routing talks to the external routing/geocoding service. Its
// results are opaque to the rest of the system: they are stored or returned
// verbatim, and a failure degrades into an error descriptor instead of
// failing the enclosing request.
package routing

import (
	"context"
	"encoding/json"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Client is the external routing collaborator.
type Client interface {
	// CalculateRoute computes a driving route through the given points
	// (at least 2) and returns it in the route_data shape.
	CalculateRoute(ctx context.Context, points []Coordinate) (json.RawMessage, error)
	// Geocode resolves an address to coordinates; the provider response is
	// returned raw.
	Geocode(ctx context.Context, address string) (json.RawMessage, error)
	// ReverseGeocode resolves coordinates to an address; the provider
	// response is returned raw.
	ReverseGeocode(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// RouteData is the normalized shape persisted in delivery_tasks.route_data.
type RouteData struct {
	Routes        []Route    `json:"routes"`
	TotalDistance float64    `json:"total_distance"`
	TotalDuration float64    `json:"total_duration"`
	Waypoints     []Waypoint `json:"waypoints"`
}

// Route is one leg-set of a computed route.
type Route struct {
	Geometry   Geometry        `json:"geometry"`
	Properties RouteProperties `json:"properties"`
}

// Geometry is a GeoJSON geometry; coordinates are [lon, lat] pairs.
type Geometry struct {
	Coordinates [][]float64 `json:"coordinates"`
	Type        string      `json:"type"`
}

// RouteProperties summarizes a route: meters, seconds, travel mode.
type RouteProperties struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Mode     string  `json:"mode"`
}

// Waypoint is a visited point in request order.
type Waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FailureData is the error descriptor stored in route_data when the
// collaborator fails; task creation is never rolled back for it.
type FailureData struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Failure encodes the routing_failed descriptor for err.
func Failure(err error) json.RawMessage {
	b, _ := json.Marshal(FailureData{Error: "routing_failed", Message: err.Error()})
	return b
}
