package models

// Company is the tenant boundary. Every business entity belongs to exactly
// one company, and deleting a company cascades to everything it owns.
type Company struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}
