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

type DestinationRepository struct {
	db *sql.DB
}

func NewDestinationRepository(db *sql.DB) *DestinationRepository {
	return &DestinationRepository{db: db}
}

const destinationColumns = `id, company_id, name, address, latitude, longitude, is_base_location, created_at, updated_at`

func validateDestination(d *models.Destination) error {
	fields := map[string]any{}
	if strings.TrimSpace(d.Name) == "" {
		fields["name"] = "required"
	}
	if d.Latitude < -90 || d.Latitude > 90 {
		fields["latitude"] = "must be between -90 and 90 degrees"
	}
	if d.Longitude < -180 || d.Longitude > 180 {
		fields["longitude"] = "must be between -180 and 180 degrees"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid destination", fields)
	}
	return nil
}

// Create inserts a new destination after validating coordinate bounds.
func (r *DestinationRepository) Create(ctx context.Context, d *models.Destination) (*models.Destination, error) {
	if d == nil {
		return nil, errors.New("destination is nil")
	}
	if err := validateDestination(d); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO destinations (company_id, name, address, latitude, longitude, is_base_location) VALUES (?,?,?,?,?,?)`,
		d.CompanyID, d.Name, d.Address, d.Latitude, d.Longitude, boolToInt(d.IsBaseLocation))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.getWhere(ctx, `id = ?`, id)
}

// GetByID returns the destination if it is visible within the scope.
// Drivers only see destinations on their own tasks.
func (r *DestinationRepository) GetByID(ctx context.Context, scope access.Scope, id int64) (*models.Destination, error) {
	where := []string{"id = ?"}
	args := []any{id}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	if scope.DriverID != nil {
		where = append(where, driverDestinationPredicate)
		args = append(args, *scope.DriverID)
	}
	return r.getWhere(ctx, strings.Join(where, " AND "), args...)
}

const driverDestinationPredicate = `EXISTS (
	SELECT 1 FROM task_destinations td
	JOIN delivery_tasks dt ON dt.id = td.task_id
	WHERE td.destination_id = destinations.id AND dt.driver_id = ?)`

func (r *DestinationRepository) getWhere(ctx context.Context, where string, args ...any) (*models.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var d models.Destination
	var base int
	err := r.db.QueryRowContext(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE `+where, args...).
		Scan(&d.ID, &d.CompanyID, &d.Name, &d.Address, &d.Latitude, &d.Longitude, &base, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.IsBaseLocation = base != 0
	return &d, nil
}

// List returns destinations visible within the scope, optionally matching a
// case-insensitive text search over name and address, ordered by name.
func (r *DestinationRepository) List(ctx context.Context, scope access.Scope, search string) ([]models.Destination, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	if scope.DriverID != nil {
		where = append(where, driverDestinationPredicate)
		args = append(args, *scope.DriverID)
	}
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + s + "%"
		where = append(where, "(name LIKE ? OR address LIKE ?)")
		args = append(args, like, like)
	}

	query := `SELECT ` + destinationColumns + ` FROM destinations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Destination
	for rows.Next() {
		var d models.Destination
		var base int
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Address, &d.Latitude, &d.Longitude, &base, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.IsBaseLocation = base != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetBaseLocation returns the company's base (depot) destination, or nil.
func (r *DestinationRepository) GetBaseLocation(ctx context.Context, companyID int64) (*models.Destination, error) {
	return r.getWhere(ctx, `company_id = ? AND is_base_location = 1`, companyID)
}

// GetAllByIDs returns the destinations for the given ids restricted to the
// scope, in the order requested. Missing or out-of-scope ids are reported
// with a not-found error naming them.
func (r *DestinationRepository) GetAllByIDs(ctx context.Context, scope access.Scope, ids []int64) ([]models.Destination, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	where := []string{"id IN (" + strings.Join(placeholders, ",") + ")"}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+destinationColumns+` FROM destinations WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]models.Destination, len(ids))
	for rows.Next() {
		var d models.Destination
		var base int
		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Address, &d.Latitude, &d.Longitude, &base, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.IsBaseLocation = base != 0
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Destination, 0, len(ids))
	var missing []int64
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, d)
	}
	if len(missing) > 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "destinations not found: %v", missing)
	}
	return out, nil
}

// Update changes the destination's fields.
func (r *DestinationRepository) Update(ctx context.Context, scope access.Scope, d *models.Destination) (*models.Destination, error) {
	if d == nil {
		return nil, errors.New("destination is nil")
	}
	if err := validateDestination(d); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	where := []string{"id = ?"}
	args := []any{d.Name, d.Address, d.Latitude, d.Longitude, boolToInt(d.IsBaseLocation), d.ID}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE destinations SET name = ?, address = ?, latitude = ?, longitude = ?, is_base_location = ?, updated_at = CURRENT_TIMESTAMP WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.New(apperr.KindNotFound, "destination not found")
	}
	return r.getWhere(ctx, `id = ?`, d.ID)
}

// Delete removes the destination. Rejected with conflict while it is on a
// non-terminal task's route. The check and the delete run in one
// transaction so an assignment cannot land between them.
func (r *DestinationRepository) Delete(ctx context.Context, scope access.Scope, id int64) error {
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
	err = tx.QueryRowContext(ctx, `SELECT id FROM destinations WHERE `+strings.Join(where, " AND "), args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "destination not found")
	}
	if err != nil {
		return err
	}

	var live int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_destinations td JOIN delivery_tasks dt ON dt.id = td.task_id WHERE td.destination_id = ? AND dt.status != ?`,
		id, string(models.TaskStatusCompleted)).Scan(&live); err != nil {
		return err
	}
	if live > 0 {
		return apperr.New(apperr.KindConflict, "destination is on an active delivery task")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM destinations WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
