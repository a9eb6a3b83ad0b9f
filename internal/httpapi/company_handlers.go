package httpapi

import (
	"net/http"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/models"
)

type companyPayload struct {
	Name string `json:"name"`
}

// handleListCompanies returns every company for superusers and only the
// caller's own company for admins and drivers.
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if id.Role == access.RoleSuperuser {
		companies, err := s.companies.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, emptyList(companies))
		return
	}

	c, err := s.companies.GetByID(r.Context(), id.CompanyID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := []models.Company{}
	if c != nil {
		out = append(out, *c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireSuperuser(id); err != nil {
		writeError(w, err)
		return
	}

	var req companyPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.companies.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	companyID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// Non-superusers can only read their own company; anything else reads
	// as missing.
	if id.Role != access.RoleSuperuser && companyID != id.CompanyID {
		writeError(w, apperr.New(apperr.KindNotFound, "company not found"))
		return
	}

	c, err := s.companies.GetByID(r.Context(), companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	if c == nil {
		writeError(w, apperr.New(apperr.KindNotFound, "company not found"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireSuperuser(id); err != nil {
		writeError(w, err)
		return
	}
	companyID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req companyPayload
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.companies.Rename(r.Context(), companyID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCompany removes a company and cascades to all of its drivers,
// trucks, destinations and tasks. Superuser only.
func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := access.RequireSuperuser(id); err != nil {
		writeError(w, err)
		return
	}
	companyID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.companies.Delete(r.Context(), companyID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
