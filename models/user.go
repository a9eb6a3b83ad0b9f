package models

// User represents an authenticatable account in the system.
// It maps to the `users` table in SQLite. Role is not stored here; it is
// derived from the presence of a CompanyAdmin or DriverUser binding
// (or the IsSuperuser flag).
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	IsSuperuser  bool   `db:"is_superuser" json:"is_superuser"`
}

// CompanyAdmin binds a user to exactly one company with the admin role.
// One-to-one with User.
type CompanyAdmin struct {
	ID        int64 `db:"id" json:"id"`
	UserID    int64 `db:"user_id" json:"user_id"`
	CompanyID int64 `db:"company_id" json:"company_id"`
}

// DriverUser binds a user to exactly one driver record with the driver role.
// One-to-one with User; the driver's company is the user's company context.
type DriverUser struct {
	ID       int64 `db:"id" json:"id"`
	UserID   int64 `db:"user_id" json:"user_id"`
	DriverID int64 `db:"driver_id" json:"driver_id"`
}
