package httpapi

import (
	"net/http"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/models"
)

type truckPayload struct {
	Company     int64           `json:"company"`
	PlateNumber string          `json:"plate_number"`
	Model       string          `json:"model"`
	CapacityKg  int             `json:"capacity_kg"`
	FuelType    models.FuelType `json:"fuel_type"`
}

func (s *Server) handleListTrucks(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	trucks, err := s.trucks.List(r.Context(), id.Scope(),
		models.TruckStatus(q.Get("status")), models.FuelType(q.Get("fuel_type")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(trucks))
}

// handleAvailableTrucks is a shorthand for ?status=idle.
func (s *Server) handleAvailableTrucks(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	trucks, err := s.trucks.List(r.Context(), id.Scope(), models.TruckStatusIdle, "")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(trucks))
}

func (s *Server) handleCreateTruck(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req truckPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	companyID, err := companyForWrite(id, req.Company)
	if err != nil {
		writeError(w, err)
		return
	}

	t, err := s.trucks.Create(r.Context(), &models.Truck{
		CompanyID:   companyID,
		PlateNumber: req.PlateNumber,
		Model:       req.Model,
		CapacityKg:  req.CapacityKg,
		FuelType:    req.FuelType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTruck(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	truckID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := s.trucks.GetByID(r.Context(), id.Scope(), truckID)
	if err != nil {
		writeError(w, err)
		return
	}
	if t == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "truck not found"))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTruck(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireMutate(id); err != nil {
		writeError(w, err)
		return
	}
	truckID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req truckPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t, err := s.trucks.Update(r.Context(), id.Scope(), &models.Truck{
		ID:          truckID,
		PlateNumber: req.PlateNumber,
		Model:       req.Model,
		CapacityKg:  req.CapacityKg,
		FuelType:    req.FuelType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTruck(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireMutate(id); err != nil {
		writeError(w, err)
		return
	}
	truckID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.trucks.Delete(r.Context(), id.Scope(), truckID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
