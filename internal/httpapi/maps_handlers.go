package httpapi

import (
	"net/http"

	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/internal/routing"
)

// The maps endpoints proxy the external routing provider for ad-hoc lookups
// from the dashboard. They carry no tenant data, so any authenticated caller
// may use them.

func (s *Server) requireRouter() error {
	if s.router == nil {
		return apperr.New(apperr.KindInternal, "routing service is not configured")
	}
	return nil
}

type calculateRouteRequest struct {
	Coordinates []routing.Coordinate `json:"coordinates"`
}

func (s *Server) handleCalculateRoute(w http.ResponseWriter, r *http.Request) {
	if err := s.requireRouter(); err != nil {
		writeError(w, err)
		return
	}
	var req calculateRouteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Coordinates) < 2 {
		writeError(w, apperr.Validation("invalid route request", map[string]any{"coordinates": "at least 2 points are required"}))
		return
	}
	for _, p := range req.Coordinates {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			writeError(w, apperr.Validation("invalid route request", map[string]any{"coordinates": "out of range"}))
			return
		}
	}

	data, err := s.router.CalculateRoute(r.Context(), req.Coordinates)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, routing.Failure(err))
		return
	}
	writeJSON(w, http.StatusOK, data)
}

type geocodeRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if err := s.requireRouter(); err != nil {
		writeError(w, err)
		return
	}
	var req geocodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Address == "" {
		writeError(w, apperr.Validation("invalid geocode request", map[string]any{"address": "required"}))
		return
	}

	data, err := s.router.Geocode(r.Context(), req.Address)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, routing.Failure(err))
		return
	}
	writeJSON(w, http.StatusOK, data)
}

type reverseGeocodeRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (s *Server) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	if err := s.requireRouter(); err != nil {
		writeError(w, err)
		return
	}
	var req reverseGeocodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		writeError(w, apperr.Validation("invalid reverse geocode request", map[string]any{"coordinates": "out of range"}))
		return
	}

	data, err := s.router.ReverseGeocode(r.Context(), req.Latitude, req.Longitude)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, routing.Failure(err))
		return
	}
	writeJSON(w, http.StatusOK, data)
}
