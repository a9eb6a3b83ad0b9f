package httpapi

import (
	"net/http"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/models"
)

type driverPayload struct {
	Company         int64  `json:"company"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	LicenseNumber   string `json:"license_number"`
	ExperienceYears int    `json:"experience_years"`
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status := models.DriverStatus(r.URL.Query().Get("status"))
	drivers, err := s.drivers.List(r.Context(), id.Scope(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(drivers))
}

// handleAvailableDrivers is a shorthand for ?status=available.
func (s *Server) handleAvailableDrivers(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	drivers, err := s.drivers.List(r.Context(), id.Scope(), models.DriverStatusAvailable)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(drivers))
}

func (s *Server) handleCreateDriver(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req driverPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	companyID, err := companyForWrite(id, req.Company)
	if err != nil {
		writeError(w, err)
		return
	}

	d, err := s.drivers.Create(r.Context(), &models.Driver{
		CompanyID:       companyID,
		Name:            req.Name,
		Phone:           req.Phone,
		LicenseNumber:   req.LicenseNumber,
		ExperienceYears: req.ExperienceYears,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	driverID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := s.drivers.GetByID(r.Context(), id.Scope(), driverID)
	if err != nil {
		writeError(w, err)
		return
	}
	if d == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "driver not found"))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateDriver(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireMutate(id); err != nil {
		writeError(w, err)
		return
	}
	driverID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req driverPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.drivers.Update(r.Context(), id.Scope(), &models.Driver{
		ID:              driverID,
		Name:            req.Name,
		Phone:           req.Phone,
		LicenseNumber:   req.LicenseNumber,
		ExperienceYears: req.ExperienceYears,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDriver(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireMutate(id); err != nil {
		writeError(w, err)
		return
	}
	driverID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.drivers.Delete(r.Context(), id.Scope(), driverID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
