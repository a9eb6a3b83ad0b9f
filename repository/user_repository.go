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

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string, isSuperuser bool) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("username is required", map[string]any{"username": "required"})
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO users (username, password_hash, is_superuser) VALUES (?,?,?)`,
		username, passwordHash, boolToInt(isSuperuser))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Newf(apperr.KindConflict, "user %q already exists", username)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.User{ID: id, Username: username, PasswordHash: passwordHash, IsSuperuser: isSuperuser}, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var u models.User
	var super int
	err := r.db.QueryRowContext(ctx, `SELECT id, username, password_hash, is_superuser FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &super)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.IsSuperuser = super != 0
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var u models.User
	var super int
	err := r.db.QueryRowContext(ctx, `SELECT id, username, password_hash, is_superuser FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &super)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.IsSuperuser = super != 0
	return &u, nil
}

// Count returns the number of user accounts (used by superuser bootstrap).
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetAdminBinding returns the user's company-admin binding, or nil.
func (r *UserRepository) GetAdminBinding(ctx context.Context, userID int64) (*models.CompanyAdmin, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var b models.CompanyAdmin
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, company_id FROM company_admins WHERE user_id = ?`, userID).
		Scan(&b.ID, &b.UserID, &b.CompanyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// GetDriverBinding returns the user's driver binding, or nil.
func (r *UserRepository) GetDriverBinding(ctx context.Context, userID int64) (*models.DriverUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var b models.DriverUser
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, driver_id FROM driver_users WHERE user_id = ?`, userID).
		Scan(&b.ID, &b.UserID, &b.DriverID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// BindAdmin binds the user to a company with the admin role.
// A user can hold at most one binding.
func (r *UserRepository) BindAdmin(ctx context.Context, userID, companyID int64) (*models.CompanyAdmin, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO company_admins (user_id, company_id) VALUES (?,?)`, userID, companyID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "user already has a role binding")
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.CompanyAdmin{ID: id, UserID: userID, CompanyID: companyID}, nil
}

// BindDriver binds the user to a driver record with the driver role.
func (r *UserRepository) BindDriver(ctx context.Context, userID, driverID int64) (*models.DriverUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `INSERT INTO driver_users (user_id, driver_id) VALUES (?,?)`, userID, driverID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "user or driver already has a role binding")
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.DriverUser{ID: id, UserID: userID, DriverID: driverID}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
