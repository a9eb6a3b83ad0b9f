package httpapi

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/internal/assignment"
	"truckFleetManagement/internal/auth"
	"truckFleetManagement/internal/config"
	"truckFleetManagement/internal/routing"
	"truckFleetManagement/repository"
)

// Server wires the REST API: identity resolution, access scoping, the
// resource stores, the assignment engine and the routing collaborator.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	resolver *auth.IdentityResolver

	users        *repository.UserRepository
	companies    *repository.CompanyRepository
	drivers      *repository.DriverRepository
	trucks       *repository.TruckRepository
	destinations *repository.DestinationRepository
	tasks        *repository.TaskRepository

	engine *assignment.Engine
	router routing.Client
}

func NewServer(
	cfg *config.Config,
	log *zap.Logger,
	users *repository.UserRepository,
	companies *repository.CompanyRepository,
	drivers *repository.DriverRepository,
	trucks *repository.TruckRepository,
	destinations *repository.DestinationRepository,
	tasks *repository.TaskRepository,
	engine *assignment.Engine,
	router routing.Client,
) *Server {
	return &Server{
		cfg:          cfg,
		log:          log,
		resolver:     auth.NewIdentityResolver(users, drivers),
		users:        users,
		companies:    companies,
		drivers:      drivers,
		trucks:       trucks,
		destinations: destinations,
		tasks:        tasks,
		engine:       engine,
		router:       router,
	}
}

// Handler builds the route table. All resource routes require a Bearer
// access token; /health and the token endpoints do not.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/token", s.handleToken)
	mux.HandleFunc("POST /auth/token/refresh", s.handleTokenRefresh)

	mux.HandleFunc("GET /companies", s.requireAuth(s.handleListCompanies))
	mux.HandleFunc("POST /companies", s.requireAuth(s.handleCreateCompany))
	mux.HandleFunc("GET /companies/{id}", s.requireAuth(s.handleGetCompany))
	mux.HandleFunc("PUT /companies/{id}", s.requireAuth(s.handleUpdateCompany))
	mux.HandleFunc("DELETE /companies/{id}", s.requireAuth(s.handleDeleteCompany))

	mux.HandleFunc("GET /drivers", s.requireAuth(s.handleListDrivers))
	mux.HandleFunc("GET /drivers/available", s.requireAuth(s.handleAvailableDrivers))
	mux.HandleFunc("POST /drivers", s.requireAuth(s.handleCreateDriver))
	mux.HandleFunc("GET /drivers/{id}", s.requireAuth(s.handleGetDriver))
	mux.HandleFunc("PUT /drivers/{id}", s.requireAuth(s.handleUpdateDriver))
	mux.HandleFunc("DELETE /drivers/{id}", s.requireAuth(s.handleDeleteDriver))

	mux.HandleFunc("GET /trucks", s.requireAuth(s.handleListTrucks))
	mux.HandleFunc("GET /trucks/available", s.requireAuth(s.handleAvailableTrucks))
	mux.HandleFunc("POST /trucks", s.requireAuth(s.handleCreateTruck))
	mux.HandleFunc("GET /trucks/{id}", s.requireAuth(s.handleGetTruck))
	mux.HandleFunc("PUT /trucks/{id}", s.requireAuth(s.handleUpdateTruck))
	mux.HandleFunc("DELETE /trucks/{id}", s.requireAuth(s.handleDeleteTruck))

	mux.HandleFunc("GET /destinations", s.requireAuth(s.handleListDestinations))
	mux.HandleFunc("POST /destinations", s.requireAuth(s.handleCreateDestination))
	mux.HandleFunc("GET /destinations/{id}", s.requireAuth(s.handleGetDestination))
	mux.HandleFunc("PUT /destinations/{id}", s.requireAuth(s.handleUpdateDestination))
	mux.HandleFunc("DELETE /destinations/{id}", s.requireAuth(s.handleDeleteDestination))

	mux.HandleFunc("GET /delivery-tasks", s.requireAuth(s.handleListTasks))
	mux.HandleFunc("POST /delivery-tasks", s.requireAuth(s.handleAssignTask))
	mux.HandleFunc("GET /delivery-tasks/active", s.requireAuth(s.handleActiveTasks))
	mux.HandleFunc("POST /delivery-tasks/assign", s.requireAuth(s.handleAssignTask))
	mux.HandleFunc("GET /delivery-tasks/{id}", s.requireAuth(s.handleGetTask))
	mux.HandleFunc("PUT /delivery-tasks/{id}", s.requireAuth(s.handleUpdateTask))
	mux.HandleFunc("DELETE /delivery-tasks/{id}", s.requireAuth(s.handleDeleteTask))
	mux.HandleFunc("POST /delivery-tasks/{id}/start", s.requireAuth(s.handleStartTask))
	mux.HandleFunc("POST /delivery-tasks/{id}/complete", s.requireAuth(s.handleCompleteTask))
	mux.HandleFunc("POST /delivery-tasks/{id}/optimize-route", s.requireAuth(s.handleOptimizeRoute))

	mux.HandleFunc("POST /maps/calculate-route", s.requireAuth(s.handleCalculateRoute))
	mux.HandleFunc("POST /maps/geocode", s.requireAuth(s.handleGeocode))
	mux.HandleFunc("POST /maps/reverse-geocode", s.requireAuth(s.handleReverseGeocode))

	return s.logRequests(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.KindValidation, "invalid id")
	}
	return id, nil
}
