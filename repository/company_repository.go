package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/models"
)

type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts a new company (superuser action).
func (r *CompanyRepository) Create(ctx context.Context, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("invalid company", map[string]any{"name": "required"})
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO companies (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var c models.Company
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM companies WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// List returns all companies ordered by name (superuser view).
func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Rename updates the company name; the only mutation a company accepts
// after creation.
func (r *CompanyRepository) Rename(ctx context.Context, id int64, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("invalid company", map[string]any{"name": "required"})
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE companies SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.New(apperr.KindNotFound, "company not found")
	}
	return r.GetByID(ctx, id)
}

// Delete removes the company and cascades to every owned entity.
func (r *CompanyRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, "company not found")
	}
	return nil
}
