package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/models"
)

type TruckRepository struct {
	db *sql.DB
}

func NewTruckRepository(db *sql.DB) *TruckRepository {
	return &TruckRepository{db: db}
}

const truckColumns = `id, company_id, plate_number, model, capacity_kg, fuel_type, status, created_at, updated_at`

func validateTruck(t *models.Truck) error {
	fields := map[string]any{}
	if strings.TrimSpace(t.PlateNumber) == "" {
		fields["plate_number"] = "required"
	}
	if t.CapacityKg <= 0 {
		fields["capacity_kg"] = "must be positive"
	}
	if !models.ValidFuelType(t.FuelType) {
		fields["fuel_type"] = "must be one of diesel, gasoline, electric, hybrid"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid truck", fields)
	}
	return nil
}

// Create inserts a new truck. Status defaults to 'idle' and fuel type to
// 'diesel' if empty. (company_id, plate_number) uniqueness is enforced by
// the schema and surfaced as a conflict.
func (r *TruckRepository) Create(ctx context.Context, t *models.Truck) (*models.Truck, error) {
	if t == nil {
		return nil, errors.New("truck is nil")
	}
	if t.Status == "" {
		t.Status = models.TruckStatusIdle
	}
	if t.FuelType == "" {
		t.FuelType = models.FuelTypeDiesel
	}
	if err := validateTruck(t); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO trucks (company_id, plate_number, model, capacity_kg, fuel_type, status) VALUES (?,?,?,?,?,?)`,
		t.CompanyID, t.PlateNumber, t.Model, t.CapacityKg, string(t.FuelType), string(t.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Newf(apperr.KindConflict, "truck with plate number %q already exists in this company", t.PlateNumber)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.getWhere(ctx, `id = ?`, id)
}

// GetByID returns the truck if it is visible within the scope, nil otherwise.
// Drivers only see trucks referenced by their own tasks.
func (r *TruckRepository) GetByID(ctx context.Context, scope access.Scope, id int64) (*models.Truck, error) {
	where := []string{"id = ?"}
	args := []any{id}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	if scope.DriverID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM delivery_tasks dt WHERE dt.truck_id = trucks.id AND dt.driver_id = ?)")
		args = append(args, *scope.DriverID)
	}
	return r.getWhere(ctx, strings.Join(where, " AND "), args...)
}

func (r *TruckRepository) getWhere(ctx context.Context, where string, args ...any) (*models.Truck, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var t models.Truck
	var fuel, status string
	err := r.db.QueryRowContext(ctx, `SELECT `+truckColumns+` FROM trucks WHERE `+where, args...).
		Scan(&t.ID, &t.CompanyID, &t.PlateNumber, &t.Model, &t.CapacityKg, &fuel, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.FuelType = models.FuelType(fuel)
	t.Status = models.TruckStatus(status)
	return &t, nil
}

// List returns trucks visible within the scope, optionally filtered by
// status and fuel type, ordered by plate number.
func (r *TruckRepository) List(ctx context.Context, scope access.Scope, status models.TruckStatus, fuelType models.FuelType) ([]models.Truck, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	if scope.DriverID != nil {
		where = append(where, "EXISTS (SELECT 1 FROM delivery_tasks dt WHERE dt.truck_id = trucks.id AND dt.driver_id = ?)")
		args = append(args, *scope.DriverID)
	}
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, string(status))
	}
	if fuelType != "" {
		where = append(where, "fuel_type = ?")
		args = append(args, string(fuelType))
	}

	query := `SELECT ` + truckColumns + ` FROM trucks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY plate_number ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Truck
	for rows.Next() {
		var t models.Truck
		var fuel, st string
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.PlateNumber, &t.Model, &t.CapacityKg, &fuel, &st, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.FuelType = models.FuelType(fuel)
		t.Status = models.TruckStatus(st)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update changes the truck's editable fields (not status; status only moves
// through assignment transitions).
func (r *TruckRepository) Update(ctx context.Context, scope access.Scope, t *models.Truck) (*models.Truck, error) {
	if t == nil {
		return nil, errors.New("truck is nil")
	}
	if t.FuelType == "" {
		t.FuelType = models.FuelTypeDiesel
	}
	if err := validateTruck(t); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	where := []string{"id = ?"}
	args := []any{t.PlateNumber, t.Model, t.CapacityKg, string(t.FuelType), t.ID}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE trucks SET plate_number = ?, model = ?, capacity_kg = ?, fuel_type = ?, updated_at = CURRENT_TIMESTAMP WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Newf(apperr.KindConflict, "truck with plate number %q already exists in this company", t.PlateNumber)
		}
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.New(apperr.KindNotFound, "truck not found")
	}
	return r.getWhere(ctx, `id = ?`, t.ID)
}

// Delete removes the truck. Rejected with conflict while the truck is
// referenced by a non-terminal task; completed-task references cascade.
// The check and the delete run in one transaction so an assignment cannot
// land between them.
func (r *TruckRepository) Delete(ctx context.Context, scope access.Scope, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Existence is checked within the scope first: an out-of-tenant id
	// reads as missing, never as busy.
	where := []string{"id = ?"}
	args := []any{id}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	var found int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM trucks WHERE `+strings.Join(where, " AND "), args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "truck not found")
	}
	if err != nil {
		return err
	}

	var live int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM delivery_tasks WHERE truck_id = ? AND status != ?`, id, string(models.TaskStatusCompleted)).Scan(&live); err != nil {
		return err
	}
	if live > 0 {
		return apperr.New(apperr.KindConflict, "truck is assigned to an active delivery task")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trucks WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
