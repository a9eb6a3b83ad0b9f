package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"truckFleetManagement/internal/assignment"
	"truckFleetManagement/internal/config"
	"truckFleetManagement/internal/routing"
	"truckFleetManagement/internal/testutil"
	"truckFleetManagement/models"
	"truckFleetManagement/repository"
)

type stubRouter struct {
	err error
}

func (s *stubRouter) CalculateRoute(context.Context, []routing.Coordinate) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"routes":[],"total_distance":100,"total_duration":60,"waypoints":[]}`), nil
}

func (s *stubRouter) Geocode(context.Context, string) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"features":[]}`), nil
}

func (s *stubRouter) ReverseGeocode(context.Context, float64, float64) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(`{"features":[]}`), nil
}

type apiFixture struct {
	db     *sql.DB
	srv    *httptest.Server
	cfg    *config.Config
	router *stubRouter
}

func newAPIFixture(t *testing.T, name string) *apiFixture {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, name)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTTL = time.Hour
	cfg.Auth.RefreshTTL = 24 * time.Hour

	users := repository.NewUserRepository(d)
	companies := repository.NewCompanyRepository(d)
	drivers := repository.NewDriverRepository(d)
	trucks := repository.NewTruckRepository(d)
	destinations := repository.NewDestinationRepository(d)
	tasks := repository.NewTaskRepository(d)

	router := &stubRouter{}
	engine := assignment.NewEngine(d, tasks, destinations, router, zap.NewNop())
	api := NewServer(cfg, zap.NewNop(), users, companies, drivers, trucks, destinations, tasks, engine, router)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &apiFixture{db: d, srv: srv, cfg: cfg, router: router}
}

// call performs a JSON request and decodes the response body into out when
// out is non-nil.
func (f *apiFixture) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (f *apiFixture) token(t *testing.T, userID int64, username string) string {
	return testutil.AccessToken(t, f.cfg.Auth.JWTSecret, userID, username)
}

func TestTokenEndpoints(t *testing.T) {
	f := newAPIFixture(t, "api_token")
	testutil.SeedUser(t, f.db, "root", "hunter2", true)

	// Wrong password and unknown user are indistinguishable 401s.
	var envelope map[string]any
	if code := f.call(t, http.MethodPost, "/auth/token", "", map[string]string{"username": "root", "password": "wrong"}, &envelope); code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", code)
	}
	if envelope["error"] != "unauthorized" {
		t.Errorf("unexpected envelope: %v", envelope)
	}
	if code := f.call(t, http.MethodPost, "/auth/token", "", map[string]string{"username": "ghost", "password": "hunter2"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", code)
	}

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if code := f.call(t, http.MethodPost, "/auth/token", "", map[string]string{"username": "root", "password": "hunter2"}, &pair); code != http.StatusOK {
		t.Fatalf("token obtain: expected 200, got %d", code)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both tokens in the pair")
	}

	// The access token works against a protected route.
	if code := f.call(t, http.MethodGet, "/companies", pair.Access, nil, nil); code != http.StatusOK {
		t.Fatalf("list companies with fresh token: expected 200, got %d", code)
	}

	// Refresh yields a new usable access token.
	var refreshed struct {
		Access string `json:"access"`
	}
	if code := f.call(t, http.MethodPost, "/auth/token/refresh", "", map[string]string{"refresh": pair.Refresh}, &refreshed); code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", code)
	}
	if code := f.call(t, http.MethodGet, "/companies", refreshed.Access, nil, nil); code != http.StatusOK {
		t.Fatalf("list companies with refreshed token: expected 200, got %d", code)
	}

	// An access token is not accepted as a refresh token.
	if code := f.call(t, http.MethodPost, "/auth/token/refresh", "", map[string]string{"refresh": pair.Access}, nil); code != http.StatusUnauthorized {
		t.Fatalf("access-as-refresh: expected 401, got %d", code)
	}
}

func TestAuthRequiredOnResourceRoutes(t *testing.T) {
	f := newAPIFixture(t, "api_auth_required")

	if code := f.call(t, http.MethodGet, "/drivers", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", code)
	}
	if code := f.call(t, http.MethodGet, "/drivers", "not-a-jwt", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", code)
	}
	// Health stays open.
	if code := f.call(t, http.MethodGet, "/health", "", nil, nil); code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", code)
	}
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	f := newAPIFixture(t, "api_tenant")

	c1 := testutil.SeedCompany(t, f.db, "Alpha Logistics")
	c2 := testutil.SeedCompany(t, f.db, "Beta Freight")
	admin1 := testutil.SeedAdmin(t, f.db, "admin1", c1.ID)
	admin2 := testutil.SeedAdmin(t, f.db, "admin2", c2.ID)
	tok1 := f.token(t, admin1.ID, admin1.Username)
	tok2 := f.token(t, admin2.ID, admin2.Username)

	// admin1 creates a driver; the company in the payload is ignored for
	// admins and forced to their own.
	var created models.Driver
	code := f.call(t, http.MethodPost, "/drivers", tok1, map[string]any{
		"company": c2.ID, "name": "Sami", "license_number": "TR-1", "experience_years": 4,
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create driver: expected 201, got %d", code)
	}
	if created.CompanyID != c1.ID {
		t.Fatalf("driver must land in the admin's company %d, got %d", c1.ID, created.CompanyID)
	}

	// admin2 cannot see it, by id or in the list.
	if code := f.call(t, http.MethodGet, fmt.Sprintf("/drivers/%d", created.ID), tok2, nil, nil); code != http.StatusNotFound {
		t.Fatalf("cross-tenant get: expected 404, got %d", code)
	}
	var list []models.Driver
	if code := f.call(t, http.MethodGet, "/drivers", tok2, nil, &list); code != http.StatusOK {
		t.Fatalf("list drivers: expected 200, got %d", code)
	}
	if len(list) != 0 {
		t.Fatalf("admin2 must see no drivers, got %d", len(list))
	}

	// Company collection: each admin sees exactly their own company.
	var companies []models.Company
	if code := f.call(t, http.MethodGet, "/companies", tok1, nil, &companies); code != http.StatusOK {
		t.Fatalf("list companies: expected 200, got %d", code)
	}
	if len(companies) != 1 || companies[0].ID != c1.ID {
		t.Fatalf("admin1 must see only their company, got %+v", companies)
	}
	if code := f.call(t, http.MethodGet, fmt.Sprintf("/companies/%d", c2.ID), tok1, nil, nil); code != http.StatusNotFound {
		t.Fatalf("cross-tenant company get: expected 404, got %d", code)
	}

	// Company management is superuser-only.
	if code := f.call(t, http.MethodPost, "/companies", tok1, map[string]string{"name": "Gamma"}, nil); code != http.StatusForbidden {
		t.Fatalf("admin creating company: expected 403, got %d", code)
	}
}

func TestDriverRoleIsReadOnly(t *testing.T) {
	f := newAPIFixture(t, "api_driver_role")

	c := testutil.SeedCompany(t, f.db, "Alpha Logistics")
	rec := testutil.SeedDriver(t, f.db, c.ID, "Sami", "TR-1")
	u := testutil.SeedDriverUser(t, f.db, "sami", rec.ID)
	tok := f.token(t, u.ID, u.Username)

	// Reads work; the driver sees their own record.
	var list []models.Driver
	if code := f.call(t, http.MethodGet, "/drivers", tok, nil, &list); code != http.StatusOK {
		t.Fatalf("list drivers as driver: expected 200, got %d", code)
	}
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Fatalf("driver should see only themselves, got %+v", list)
	}

	// Writes are forbidden.
	if code := f.call(t, http.MethodPost, "/trucks", tok, map[string]any{"plate_number": "34-AA-1", "model": "Volvo", "capacity_kg": 1000, "fuel_type": "diesel"}, nil); code != http.StatusForbidden {
		t.Fatalf("driver creating truck: expected 403, got %d", code)
	}
	if code := f.call(t, http.MethodDelete, fmt.Sprintf("/drivers/%d", rec.ID), tok, nil, nil); code != http.StatusForbidden {
		t.Fatalf("driver deleting driver: expected 403, got %d", code)
	}
	if code := f.call(t, http.MethodPost, "/delivery-tasks/assign", tok, map[string]any{"driver_id": rec.ID, "truck_id": 1, "destination_ids": []int64{1}, "product_name": "X", "product_weight": 1}, nil); code != http.StatusForbidden {
		t.Fatalf("driver assigning task: expected 403, got %d", code)
	}
}

func TestAssignmentLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t, "api_lifecycle")

	c := testutil.SeedCompany(t, f.db, "Alpha Logistics")
	admin := testutil.SeedAdmin(t, f.db, "admin", c.ID)
	rec := testutil.SeedDriver(t, f.db, c.ID, "Sami", "TR-1")
	driverUser := testutil.SeedDriverUser(t, f.db, "sami", rec.ID)
	truck := testutil.SeedTruck(t, f.db, c.ID, "34-AA-1", 1000)
	dest := testutil.SeedDestination(t, f.db, c.ID, "Drop A", 41, 29)

	adminTok := f.token(t, admin.ID, admin.Username)
	driverTok := f.token(t, driverUser.ID, driverUser.Username)

	assignBody := map[string]any{
		"driver_id":       rec.ID,
		"truck_id":        truck.ID,
		"destination_ids": []int64{dest.ID},
		"product_name":    "Cement",
		"product_weight":  500,
	}
	var task models.DeliveryTask
	if code := f.call(t, http.MethodPost, "/delivery-tasks/assign", adminTok, assignBody, &task); code != http.StatusCreated {
		t.Fatalf("assign: expected 201, got %d", code)
	}
	if task.Status != models.TaskStatusAssigned {
		t.Fatalf("expected assigned task, got %s", task.Status)
	}

	// Double assignment conflicts.
	if code := f.call(t, http.MethodPost, "/delivery-tasks/assign", adminTok, assignBody, nil); code != http.StatusConflict {
		t.Fatalf("double assign: expected 409, got %d", code)
	}

	// The available lists no longer contain the pair.
	var avail []models.Driver
	if code := f.call(t, http.MethodGet, "/drivers/available", adminTok, nil, &avail); code != http.StatusOK {
		t.Fatalf("available drivers: expected 200, got %d", code)
	}
	if len(avail) != 0 {
		t.Fatalf("assigned driver must not be available, got %+v", avail)
	}

	// The driver starts their task.
	var started models.DeliveryTask
	if code := f.call(t, http.MethodPost, fmt.Sprintf("/delivery-tasks/%d/start", task.ID), driverTok, nil, &started); code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", code)
	}
	if started.Status != models.TaskStatusInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}

	// Drivers cannot complete; the admin does.
	if code := f.call(t, http.MethodPost, fmt.Sprintf("/delivery-tasks/%d/complete", task.ID), driverTok, nil, nil); code != http.StatusForbidden {
		t.Fatalf("driver complete: expected 403, got %d", code)
	}
	var done models.DeliveryTask
	if code := f.call(t, http.MethodPost, fmt.Sprintf("/delivery-tasks/%d/complete", task.ID), adminTok, nil, &done); code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", code)
	}
	if done.Status != models.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}

	// Repeating a terminal transition conflicts.
	if code := f.call(t, http.MethodPost, fmt.Sprintf("/delivery-tasks/%d/complete", task.ID), adminTok, nil, nil); code != http.StatusConflict {
		t.Fatalf("repeat complete: expected 409, got %d", code)
	}

	// Active listing excludes the completed task.
	var active []models.DeliveryTask
	if code := f.call(t, http.MethodGet, "/delivery-tasks/active", adminTok, nil, &active); code != http.StatusOK {
		t.Fatalf("active tasks: expected 200, got %d", code)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active tasks, got %d", len(active))
	}
}

func TestMapsEndpoints(t *testing.T) {
	f := newAPIFixture(t, "api_maps")
	u := testutil.SeedUser(t, f.db, "root", "password", true)
	tok := f.token(t, u.ID, u.Username)

	if code := f.call(t, http.MethodPost, "/maps/geocode", tok, map[string]string{"address": "Istanbul"}, nil); code != http.StatusOK {
		t.Fatalf("geocode: expected 200, got %d", code)
	}
	if code := f.call(t, http.MethodPost, "/maps/geocode", tok, map[string]string{}, nil); code != http.StatusBadRequest {
		t.Fatalf("geocode without address: expected 400, got %d", code)
	}
	if code := f.call(t, http.MethodPost, "/maps/calculate-route", tok, map[string]any{"coordinates": []map[string]float64{{"lat": 41, "lon": 29}}}, nil); code != http.StatusBadRequest {
		t.Fatalf("route with one point: expected 400, got %d", code)
	}

	// Provider failure degrades to the routing_failed descriptor.
	f.router.err = errors.New("provider down")
	var failure routing.FailureData
	code := f.call(t, http.MethodPost, "/maps/calculate-route", tok, map[string]any{
		"coordinates": []map[string]float64{{"lat": 41, "lon": 29}, {"lat": 41.1, "lon": 29.1}},
	}, &failure)
	if code != http.StatusBadGateway {
		t.Fatalf("provider failure: expected 502, got %d", code)
	}
	if failure.Error != "routing_failed" {
		t.Fatalf("unexpected failure payload: %+v", failure)
	}
}
