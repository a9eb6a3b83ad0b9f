package models

// Destination represents a delivery location owned by a company.
// A base location marks the company garage/depot and is used as the route
// origin when optimizing a task's route.
type Destination struct {
	ID             int64   `db:"id" json:"id"`
	CompanyID      int64   `db:"company_id" json:"company"`
	Name           string  `db:"name" json:"name"`
	Address        string  `db:"address" json:"address"`
	Latitude       float64 `db:"latitude" json:"latitude"`
	Longitude      float64 `db:"longitude" json:"longitude"`
	IsBaseLocation bool    `db:"is_base_location" json:"is_base_location"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	UpdatedAt      string  `db:"updated_at" json:"updated_at"`
}
