package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/models"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, company_id, driver_id, truck_id, product_name, product_weight, status, route_data, created_at, updated_at`

// GetByID returns the task with its ordered destination ids if it is
// visible within the scope. Drivers only see their own tasks.
func (r *TaskRepository) GetByID(ctx context.Context, scope access.Scope, id int64) (*models.DeliveryTask, error) {
	where := []string{"id = ?"}
	args := []any{id}
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	if scope.DriverID != nil {
		where = append(where, "driver_id = ?")
		args = append(args, *scope.DriverID)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM delivery_tasks WHERE `+strings.Join(where, " AND "), args...)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if t.DestinationIDs, err = r.loadDestinationIDs(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// TaskListFilter holds the optional list filters.
type TaskListFilter struct {
	Statuses []models.TaskStatus
	DriverID *int64
	TruckID  *int64
}

// List returns tasks visible within the scope matching the filter, newest
// first, each with its ordered destination ids.
func (r *TaskRepository) List(ctx context.Context, scope access.Scope, f TaskListFilter) ([]models.DeliveryTask, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var where []string
	var args []any
	if scope.CompanyID != nil {
		where = append(where, "company_id = ?")
		args = append(args, *scope.CompanyID)
	}
	if scope.DriverID != nil {
		where = append(where, "driver_id = ?")
		args = append(args, *scope.DriverID)
	}
	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if f.DriverID != nil {
		where = append(where, "driver_id = ?")
		args = append(args, *f.DriverID)
	}
	if f.TruckID != nil {
		where = append(where, "truck_id = ?")
		args = append(args, *f.TruckID)
	}

	query := `SELECT ` + taskColumns + ` FROM delivery_tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DeliveryTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].DestinationIDs, err = r.loadDestinationIDs(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateProduct changes the task's product fields and, when ids are given,
// replaces the destination set. Status and driver/truck references only
// change through assignment transitions.
func (r *TaskRepository) UpdateProduct(ctx context.Context, scope access.Scope, id int64, productName string, productWeight int, destinationIDs []int64) (*models.DeliveryTask, error) {
	if strings.TrimSpace(productName) == "" || productWeight < 1 {
		return nil, apperr.Validation("invalid task", map[string]any{
			"product_name":   "required",
			"product_weight": "must be at least 1",
		})
	}

	t, err := r.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.New(apperr.KindNotFound, "delivery task not found")
	}

	var capacity int
	if err := r.db.QueryRowContext(ctx, `SELECT capacity_kg FROM trucks WHERE id = ?`, t.TruckID).Scan(&capacity); err != nil {
		return nil, err
	}
	if productWeight > capacity {
		return nil, apperr.Validation("product weight exceeds truck capacity", map[string]any{
			"product_weight": productWeight,
			"capacity_kg":    capacity,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE delivery_tasks SET product_name = ?, product_weight = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		productName, productWeight, id); err != nil {
		return nil, err
	}
	if destinationIDs != nil {
		if len(destinationIDs) == 0 {
			return nil, apperr.Validation("invalid task", map[string]any{"destination_ids": "at least one destination is required"})
		}
		// The replacement set must belong to the task's company, same as
		// on assignment.
		if err := CheckTaskDestinations(ctx, tx, t.CompanyID, destinationIDs); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_destinations WHERE task_id = ?`, id); err != nil {
			return nil, err
		}
		if err := InsertTaskDestinations(ctx, tx, id, destinationIDs); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, scope, id)
}

// SetRouteData stores the routing collaborator's (opaque) result on the task.
func (r *TaskRepository) SetRouteData(ctx context.Context, id int64, data json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `UPDATE delivery_tasks SET route_data = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, string(data), id)
	return err
}

// Delete removes the task. Deleting a non-terminal task releases its driver
// and truck in the same transaction so neither stays stuck on a mission
// that no longer exists.
func (r *TaskRepository) Delete(ctx context.Context, scope access.Scope, id int64) error {
	t, err := r.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if t == nil {
		return apperr.New(apperr.KindNotFound, "delivery task not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if t.Status != models.TaskStatusCompleted {
		if _, err := tx.ExecContext(ctx, `UPDATE drivers SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(models.DriverStatusAvailable), t.DriverID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE trucks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			string(models.TruckStatusIdle), t.TruckID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM delivery_tasks WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *TaskRepository) loadDestinationIDs(ctx context.Context, taskID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT destination_id FROM task_destinations WHERE task_id = ? ORDER BY position ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.DeliveryTask, error) {
	var t models.DeliveryTask
	var status string
	var route sql.NullString
	if err := row.Scan(&t.ID, &t.CompanyID, &t.DriverID, &t.TruckID, &t.ProductName, &t.ProductWeight, &status, &route, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	if route.Valid && route.String != "" {
		t.RouteData = json.RawMessage(route.String)
	}
	return &t, nil
}

// InsertTaskDestinations writes the ordered destination set of a task.
// Shared with the assignment engine's transaction.
func InsertTaskDestinations(ctx context.Context, tx *sql.Tx, taskID int64, destinationIDs []int64) error {
	for i, did := range destinationIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO task_destinations (task_id, destination_id, position) VALUES (?,?,?)`, taskID, did, i); err != nil {
			if isUniqueViolation(err) {
				return apperr.Validation("invalid task", map[string]any{"destination_ids": "duplicate destination ids"})
			}
			return err
		}
	}
	return nil
}

// CheckTaskDestinations verifies every destination id exists within the
// company. An out-of-tenant id reads as missing. Shared with the assignment
// engine's transaction.
func CheckTaskDestinations(ctx context.Context, tx *sql.Tx, companyID int64, ids []int64) error {
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, companyID)
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(DISTINCT id) FROM destinations WHERE id IN (`+strings.Join(placeholders, ",")+`) AND company_id = ?`, args...).Scan(&n)
	if err != nil {
		return err
	}
	if n != len(uniqueIDs(ids)) {
		return apperr.New(apperr.KindNotFound, "one or more destinations not found")
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
