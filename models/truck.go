package models

// TruckStatus represents the current usage state of a truck.
type TruckStatus string

const (
	TruckStatusIdle  TruckStatus = "idle"
	TruckStatusInUse TruckStatus = "in_use"
)

// FuelType enumerates the supported truck fuel types.
type FuelType string

const (
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypeGasoline FuelType = "gasoline"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"
)

// ValidFuelType reports whether ft is one of the supported fuel types.
func ValidFuelType(ft FuelType) bool {
	switch ft {
	case FuelTypeDiesel, FuelTypeGasoline, FuelTypeElectric, FuelTypeHybrid:
		return true
	}
	return false
}

// Truck represents a vehicle in a company's fleet.
// plate_number is unique per company, not globally.
type Truck struct {
	ID          int64       `db:"id" json:"id"`
	CompanyID   int64       `db:"company_id" json:"company"`
	PlateNumber string      `db:"plate_number" json:"plate_number"`
	Model       string      `db:"model" json:"model"`
	CapacityKg  int         `db:"capacity_kg" json:"capacity_kg"`
	FuelType    FuelType    `db:"fuel_type" json:"fuel_type"`
	Status      TruckStatus `db:"status" json:"status"`
	CreatedAt   string      `db:"created_at" json:"created_at"`
	UpdatedAt   string      `db:"updated_at" json:"updated_at"`
}
