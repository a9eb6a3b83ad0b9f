package models

// DriverStatus represents the current availability of a driver.
type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "available"
	DriverStatusOnMission DriverStatus = "on_mission"
)

// Driver represents a truck driver owned by a company.
// license_number is unique per company, not globally.
type Driver struct {
	ID              int64        `db:"id" json:"id"`
	CompanyID       int64        `db:"company_id" json:"company"`
	Name            string       `db:"name" json:"name"`
	Phone           string       `db:"phone" json:"phone"`
	LicenseNumber   string       `db:"license_number" json:"license_number"`
	ExperienceYears int          `db:"experience_years" json:"experience_years"`
	Status          DriverStatus `db:"status" json:"status"`
	CreatedAt       string       `db:"created_at" json:"created_at"`
	UpdatedAt       string       `db:"updated_at" json:"updated_at"`
}
