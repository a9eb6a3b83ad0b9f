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

type DriverRepository struct {
	db *sql.DB
}

func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

const driverColumns = `id, company_id, name, phone, license_number, experience_years, status, created_at, updated_at`

func validateDriver(d *models.Driver) error {
	fields := map[string]any{}
	if strings.TrimSpace(d.Name) == "" {
		fields["name"] = "required"
	}
	if strings.TrimSpace(d.LicenseNumber) == "" {
		fields["license_number"] = "required"
	}
	if d.ExperienceYears < 0 || d.ExperienceYears > 50 {
		fields["experience_years"] = "must be between 0 and 50"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid driver", fields)
	}
	return nil
}

// Create inserts a new driver. Status defaults to 'available' if empty.
// (company_id, license_number) uniqueness is enforced by the schema and
// surfaced as a conflict.
func (r *DriverRepository) Create(ctx context.Context, d *models.Driver) (*models.Driver, error) {
	if d == nil {
		return nil, errors.New("driver is nil")
	}
	if d.Status == "" {
		d.Status = models.DriverStatusAvailable
	}
	if err := validateDriver(d); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO drivers (company_id, name, phone, license_number, experience_years, status) VALUES (?,?,?,?,?,?)`,
		d.CompanyID, d.Name, d.Phone, d.LicenseNumber, d.ExperienceYears, string(d.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Newf(apperr.KindConflict, "driver with license number %q already exists in this company", d.LicenseNumber)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.getByIDUnscoped(ctx, id)
}

func (r *DriverRepository) getByIDUnscoped(ctx context.Context, id int64) (*models.Driver, error) {
	return r.getWhere(ctx, `id = ?`, id)
}

// GetByID returns the driver if it is visible within the scope, nil otherwise.
// Out-of-tenant ids read exactly like missing ids.
func (r *DriverRepository) GetByID(ctx context.Context, scope access.Scope, id int64) (*models.Driver, error) {
	where := []string{"id = ?"}
	args := []any{id}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	if scope.DriverID != nil {
		// A driver only sees their own record.
		where = append(where, "id = ?")
		args = append(args, *scope.DriverID)
	}
	return r.getWhere(ctx, strings.Join(where, " AND "), args...)
}

func (r *DriverRepository) getWhere(ctx context.Context, where string, args ...any) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var d models.Driver
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE `+where, args...).
		Scan(&d.ID, &d.CompanyID, &d.Name, &d.Phone, &d.LicenseNumber, &d.ExperienceYears, &status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.Status = models.DriverStatus(status)
	return &d, nil
}

// List returns drivers visible within the scope, optionally filtered by status,
// ordered by name.
func (r *DriverRepository) List(ctx context.Context, scope access.Scope, status models.DriverStatus) ([]models.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	if scope.DriverID != nil {
		where = append(where, "id = ?")
		args = append(args, *scope.DriverID)
	}
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, string(status))
	}

	query := `SELECT ` + driverColumns + ` FROM drivers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Driver
	for rows.Next() {
		var d models.Driver
		var st string
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Phone, &d.LicenseNumber, &d.ExperienceYears, &st, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Status = models.DriverStatus(st)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update changes the driver's editable fields (not status; status only moves
// through assignment transitions). Returns not found when the id is outside
// the scope.
func (r *DriverRepository) Update(ctx context.Context, scope access.Scope, d *models.Driver) (*models.Driver, error) {
	if d == nil {
		return nil, errors.New("driver is nil")
	}
	if err := validateDriver(d); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	where := []string{"id = ?"}
	args := []any{d.Name, d.Phone, d.LicenseNumber, d.ExperienceYears, d.ID}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE drivers SET name = ?, phone = ?, license_number = ?, experience_years = ?, updated_at = CURRENT_TIMESTAMP WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Newf(apperr.KindConflict, "driver with license number %q already exists in this company", d.LicenseNumber)
		}
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.New(apperr.KindNotFound, "driver not found")
	}
	return r.getByIDUnscoped(ctx, d.ID)
}

// Delete removes the driver. Rejected with conflict while the driver is
// referenced by a non-terminal task; completed-task references cascade.
// The check and the delete run in one transaction so an assignment cannot
// land between them.
func (r *DriverRepository) Delete(ctx context.Context, scope access.Scope, id int64) error {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM drivers WHERE `+strings.Join(where, " AND "), args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "driver not found")
	}
	if err != nil {
		return err
	}

	var live int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM delivery_tasks WHERE driver_id = ? AND status != ?`, id, string(models.TaskStatusCompleted)).Scan(&live); err != nil {
		return err
	}
	if live > 0 {
		return apperr.New(apperr.KindConflict, "driver is assigned to an active delivery task")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM drivers WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
