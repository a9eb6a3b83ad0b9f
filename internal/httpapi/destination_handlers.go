package httpapi

import (
	"net/http"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/models"
)

type destinationPayload struct {
	Company        int64   `json:"company"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	IsBaseLocation bool    `json:"is_base_location"`
}

func (s *Server) handleListDestinations(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	dests, err := s.destinations.List(r.Context(), id.Scope(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(dests))
}

func (s *Server) handleCreateDestination(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req destinationPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	companyID, err := companyForWrite(id, req.Company)
	if err != nil {
		writeError(w, err)
		return
	}

	d, err := s.destinations.Create(r.Context(), &models.Destination{
		CompanyID:      companyID,
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		IsBaseLocation: req.IsBaseLocation,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDestination(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	destID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := s.destinations.GetByID(r.Context(), id.Scope(), destID)
	if err != nil {
		writeError(w, err)
		return
	}
	if d == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "destination not found"))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDestination(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireMutate(id); err != nil {
		writeError(w, err)
		return
	}
	destID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req destinationPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.destinations.Update(r.Context(), id.Scope(), &models.Destination{
		ID:             destID,
		Name:           req.Name,
		Address:        req.Address,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		IsBaseLocation: req.IsBaseLocation,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDestination(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireMutate(id); err != nil {
		writeError(w, err)
		return
	}
	destID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.destinations.Delete(r.Context(), id.Scope(), destID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
