// Package assignment implements the delivery task state machine. Status
// never changes through generic saves: assignment, start and completion are
// the only operations that move a task, and the driver/truck status flips
// ride in the same transaction as the task write.
package assignment

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/internal/routing"
	"truckFleetManagement/models"
	"truckFleetManagement/repository"
)

// allowTransition defines the task state machine. completed is terminal.
// assigned -> completed is allowed directly (legacy complete endpoint
// accepted tasks that were never started).
var allowTransition = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusAssigned:   {models.TaskStatusInProgress, models.TaskStatusCompleted},
	models.TaskStatusInProgress: {models.TaskStatusCompleted},
	models.TaskStatusCompleted:  {},
}

// CanTransition reports whether from -> to is an allowed transition.
func CanTransition(from, to models.TaskStatus) bool {
	for _, s := range allowTransition[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Engine validates and executes task assignments and status transitions.
type Engine struct {
	db     *sql.DB
	tasks  *repository.TaskRepository
	dests  *repository.DestinationRepository
	router routing.Client // nil disables route annotation
	log    *zap.Logger
}

func NewEngine(db *sql.DB, tasks *repository.TaskRepository, dests *repository.DestinationRepository, router routing.Client, log *zap.Logger) *Engine {
	return &Engine{db: db, tasks: tasks, dests: dests, router: router, log: log}
}

// AssignInput is the payload of the assign operation. CompanyID is only
// honored for superusers; admins always assign within their own company.
type AssignInput struct {
	CompanyID      int64   `json:"company_id,omitempty"`
	DriverID       int64   `json:"driver_id"`
	TruckID        int64   `json:"truck_id"`
	DestinationIDs []int64 `json:"destination_ids"`
	ProductName    string  `json:"product_name"`
	ProductWeight  int     `json:"product_weight"`
}

// Assign creates a delivery task after checking that the driver is
// available, the truck is idle and can carry the product, and every
// referenced entity belongs to the caller's company. The task insert and
// both status flips commit atomically; of two racing assignments for the
// same driver or truck, exactly one wins and the loser gets a conflict.
//
// Route annotation runs after commit: its failure is recorded in
// route_data and never unwinds the created task.
func (e *Engine) Assign(ctx context.Context, id access.Identity, in AssignInput) (*models.DeliveryTask, error) {
	companyID, err := resolveCompany(id, in.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := validateAssignInput(in); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tx, err := e.db.BeginTx(txCtx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var driverName string
	var driverStatus string
	err = tx.QueryRowContext(txCtx, `SELECT name, status FROM drivers WHERE id = ? AND company_id = ?`, in.DriverID, companyID).
		Scan(&driverName, &driverStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "driver not found")
		}
		return nil, err
	}

	var plate string
	var truckStatus string
	var capacity int
	err = tx.QueryRowContext(txCtx, `SELECT plate_number, status, capacity_kg FROM trucks WHERE id = ? AND company_id = ?`, in.TruckID, companyID).
		Scan(&plate, &truckStatus, &capacity)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.KindNotFound, "truck not found")
		}
		return nil, err
	}

	if in.ProductWeight > capacity {
		return nil, apperr.Validation("product weight exceeds truck capacity", map[string]any{
			"product_weight": in.ProductWeight,
			"capacity_kg":    capacity,
		})
	}

	if err := repository.CheckTaskDestinations(txCtx, tx, companyID, in.DestinationIDs); err != nil {
		return nil, err
	}

	// Guarded flips: the WHERE clause on the current status is the race
	// arbiter. Zero rows affected means another assignment got there first
	// (or the row was never available).
	res, err := tx.ExecContext(txCtx, `UPDATE drivers SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		string(models.DriverStatusOnMission), in.DriverID, string(models.DriverStatusAvailable))
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.Newf(apperr.KindConflict, "driver %s is not available (current status: %s)", driverName, driverStatus)
	}
	res, err = tx.ExecContext(txCtx, `UPDATE trucks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		string(models.TruckStatusInUse), in.TruckID, string(models.TruckStatusIdle))
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.Newf(apperr.KindConflict, "truck %s is not available (current status: %s)", plate, truckStatus)
	}

	ins, err := tx.ExecContext(txCtx, `INSERT INTO delivery_tasks (company_id, driver_id, truck_id, product_name, product_weight, status) VALUES (?,?,?,?,?,?)`,
		companyID, in.DriverID, in.TruckID, in.ProductName, in.ProductWeight, string(models.TaskStatusAssigned))
	if err != nil {
		return nil, err
	}
	taskID, err := ins.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := repository.InsertTaskDestinations(txCtx, tx, taskID, in.DestinationIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	e.log.Info("task assigned",
		zap.Int64("task_id", taskID),
		zap.Int64("company_id", companyID),
		zap.Int64("driver_id", in.DriverID),
		zap.Int64("truck_id", in.TruckID))

	e.annotateRoute(ctx, companyID, taskID, in.DestinationIDs)

	return e.tasks.GetByID(ctx, id.Scope(), taskID)
}

// Start moves the task from assigned to in_progress. Allowed to the owning
// company's admin (or a superuser) and to the task's assigned driver.
// Repeating start on an in_progress task is a conflict, not a no-op.
func (e *Engine) Start(ctx context.Context, id access.Identity, taskID int64) (*models.DeliveryTask, error) {
	t, err := e.tasks.GetByID(ctx, id.Scope(), taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.New(apperr.KindNotFound, "delivery task not found")
	}
	if id.Role == access.RoleDriver && id.DriverID != t.DriverID {
		return nil, apperr.New(apperr.KindForbidden, "task is assigned to another driver")
	}

	if !CanTransition(t.Status, models.TaskStatusInProgress) {
		return nil, apperr.Newf(apperr.KindConflict, "cannot start task with status %s", t.Status)
	}

	ctx2, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := e.db.ExecContext(ctx2, `UPDATE delivery_tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		string(models.TaskStatusInProgress), taskID, string(models.TaskStatusAssigned))
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.New(apperr.KindConflict, "task status changed concurrently")
	}

	e.log.Info("task started", zap.Int64("task_id", taskID), zap.Int64("user_id", id.UserID))
	return e.tasks.GetByID(ctx, id.Scope(), taskID)
}

// Complete moves the task to completed and atomically restores the driver
// to available and the truck to idle. Admin (or superuser) only.
// assigned -> completed is tolerated for tasks that were never started.
func (e *Engine) Complete(ctx context.Context, id access.Identity, taskID int64) (*models.DeliveryTask, error) {
	if err := access.RequireAdmin(id); err != nil {
		return nil, err
	}
	t, err := e.tasks.GetByID(ctx, id.Scope(), taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.New(apperr.KindNotFound, "delivery task not found")
	}
	if !CanTransition(t.Status, models.TaskStatusCompleted) {
		return nil, apperr.Newf(apperr.KindConflict, "cannot complete task with status %s", t.Status)
	}

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tx, err := e.db.BeginTx(ctx2, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx2, `UPDATE delivery_tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status IN (?,?)`,
		string(models.TaskStatusCompleted), taskID, string(models.TaskStatusAssigned), string(models.TaskStatusInProgress))
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.New(apperr.KindConflict, "task status changed concurrently")
	}
	if _, err := tx.ExecContext(ctx2, `UPDATE drivers SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(models.DriverStatusAvailable), t.DriverID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx2, `UPDATE trucks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(models.TruckStatusIdle), t.TruckID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	e.log.Info("task completed", zap.Int64("task_id", taskID), zap.Int64("user_id", id.UserID))
	return e.tasks.GetByID(ctx, id.Scope(), taskID)
}

// OptimizeRoute recomputes the task's route through its destinations
// (starting from the company base location when one exists), stores the
// result in route_data and returns it. A routing failure is stored and
// returned as the routing_failed descriptor.
func (e *Engine) OptimizeRoute(ctx context.Context, id access.Identity, taskID int64) (*models.DeliveryTask, error) {
	if err := access.RequireAdmin(id); err != nil {
		return nil, err
	}
	t, err := e.tasks.GetByID(ctx, id.Scope(), taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.New(apperr.KindNotFound, "delivery task not found")
	}
	if len(t.DestinationIDs) == 0 {
		return nil, apperr.Validation("no destinations found for this task", nil)
	}

	e.annotateRoute(ctx, t.CompanyID, t.ID, t.DestinationIDs)
	return e.tasks.GetByID(ctx, id.Scope(), taskID)
}

// annotateRoute calls the routing collaborator and stores whatever comes
// back. The task already exists; nothing here may fail the caller.
func (e *Engine) annotateRoute(ctx context.Context, companyID, taskID int64, destinationIDs []int64) {
	if e.router == nil {
		return
	}

	var data json.RawMessage
	points, err := e.routePoints(ctx, companyID, destinationIDs)
	if err != nil {
		e.log.Warn("route annotation failed", zap.Int64("task_id", taskID), zap.Error(err))
		data = routing.Failure(err)
	} else if routed, rerr := e.router.CalculateRoute(ctx, points); rerr != nil {
		e.log.Warn("route annotation failed", zap.Int64("task_id", taskID), zap.Error(rerr))
		data = routing.Failure(rerr)
	} else {
		data = routed
	}
	if serr := e.tasks.SetRouteData(ctx, taskID, data); serr != nil {
		e.log.Error("store route data", zap.Int64("task_id", taskID), zap.Error(serr))
	}
}

// routePoints builds the coordinate list: company base location first when
// present, then the destinations in delivery order. A single destination
// without a base location is padded by duplicating the point so the
// provider still returns a leg.
func (e *Engine) routePoints(ctx context.Context, companyID int64, destinationIDs []int64) ([]routing.Coordinate, error) {
	cid := companyID
	scope := access.Scope{CompanyID: &cid}
	dests, err := e.dests.GetAllByIDs(ctx, scope, destinationIDs)
	if err != nil {
		return nil, err
	}

	var points []routing.Coordinate
	base, err := e.dests.GetBaseLocation(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if base != nil {
		points = append(points, routing.Coordinate{Lat: base.Latitude, Lon: base.Longitude})
	}
	for _, d := range dests {
		points = append(points, routing.Coordinate{Lat: d.Latitude, Lon: d.Longitude})
	}
	if len(points) == 1 {
		points = append(points, points[0])
	}
	return points, nil
}

func resolveCompany(id access.Identity, requested int64) (int64, error) {
	switch id.Role {
	case access.RoleAdmin:
		return id.CompanyID, nil
	case access.RoleSuperuser:
		if requested == 0 {
			return 0, apperr.Validation("company_id is required for superuser assignment", map[string]any{"company_id": "required"})
		}
		return requested, nil
	default:
		return 0, apperr.New(apperr.KindForbidden, "drivers cannot assign tasks")
	}
}

func validateAssignInput(in AssignInput) error {
	fields := map[string]any{}
	if in.DriverID == 0 {
		fields["driver_id"] = "required"
	}
	if in.TruckID == 0 {
		fields["truck_id"] = "required"
	}
	if len(in.DestinationIDs) == 0 {
		fields["destination_ids"] = "at least one destination is required"
	}
	if strings.TrimSpace(in.ProductName) == "" {
		fields["product_name"] = "required"
	}
	if in.ProductWeight < 1 {
		fields["product_weight"] = "must be at least 1"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid assignment", fields)
	}
	return nil
}
