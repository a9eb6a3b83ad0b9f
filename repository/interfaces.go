package repository

import (
	"context"
	"encoding/json"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/models"
)

// UserRepositoryI defines operations on User accounts and role bindings.
type UserRepositoryI interface {
	Create(ctx context.Context, username, passwordHash string, isSuperuser bool) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	GetAdminBinding(ctx context.Context, userID int64) (*models.CompanyAdmin, error)
	GetDriverBinding(ctx context.Context, userID int64) (*models.DriverUser, error)
	BindAdmin(ctx context.Context, userID, companyID int64) (*models.CompanyAdmin, error)
	BindDriver(ctx context.Context, userID, driverID int64) (*models.DriverUser, error)
}

// CompanyRepositoryI defines operations on Company entities.
type CompanyRepositoryI interface {
	Create(ctx context.Context, name string) (*models.Company, error)
	GetByID(ctx context.Context, id int64) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	Rename(ctx context.Context, id int64, name string) (*models.Company, error)
	Delete(ctx context.Context, id int64) error
}

// DriverRepositoryI defines scoped operations on Driver entities.
type DriverRepositoryI interface {
	Create(ctx context.Context, d *models.Driver) (*models.Driver, error)
	GetByID(ctx context.Context, scope access.Scope, id int64) (*models.Driver, error)
	List(ctx context.Context, scope access.Scope, status models.DriverStatus) ([]models.Driver, error)
	Update(ctx context.Context, scope access.Scope, d *models.Driver) (*models.Driver, error)
	Delete(ctx context.Context, scope access.Scope, id int64) error
}

// TruckRepositoryI defines scoped operations on Truck entities.
type TruckRepositoryI interface {
	Create(ctx context.Context, t *models.Truck) (*models.Truck, error)
	GetByID(ctx context.Context, scope access.Scope, id int64) (*models.Truck, error)
	List(ctx context.Context, scope access.Scope, status models.TruckStatus, fuelType models.FuelType) ([]models.Truck, error)
	Update(ctx context.Context, scope access.Scope, t *models.Truck) (*models.Truck, error)
	Delete(ctx context.Context, scope access.Scope, id int64) error
}

// DestinationRepositoryI defines scoped operations on Destination entities.
type DestinationRepositoryI interface {
	Create(ctx context.Context, d *models.Destination) (*models.Destination, error)
	GetByID(ctx context.Context, scope access.Scope, id int64) (*models.Destination, error)
	List(ctx context.Context, scope access.Scope, search string) ([]models.Destination, error)
	GetBaseLocation(ctx context.Context, companyID int64) (*models.Destination, error)
	GetAllByIDs(ctx context.Context, scope access.Scope, ids []int64) ([]models.Destination, error)
	Update(ctx context.Context, scope access.Scope, d *models.Destination) (*models.Destination, error)
	Delete(ctx context.Context, scope access.Scope, id int64) error
}

// TaskRepositoryI defines scoped operations on DeliveryTask entities.
// Task creation and status transitions live in the assignment engine.
type TaskRepositoryI interface {
	GetByID(ctx context.Context, scope access.Scope, id int64) (*models.DeliveryTask, error)
	List(ctx context.Context, scope access.Scope, f TaskListFilter) ([]models.DeliveryTask, error)
	UpdateProduct(ctx context.Context, scope access.Scope, id int64, productName string, productWeight int, destinationIDs []int64) (*models.DeliveryTask, error)
	SetRouteData(ctx context.Context, id int64, data json.RawMessage) error
	Delete(ctx context.Context, scope access.Scope, id int64) error
}

var (
	_ UserRepositoryI        = (*UserRepository)(nil)
	_ CompanyRepositoryI     = (*CompanyRepository)(nil)
	_ DriverRepositoryI      = (*DriverRepository)(nil)
	_ TruckRepositoryI       = (*TruckRepository)(nil)
	_ DestinationRepositoryI = (*DestinationRepository)(nil)
	_ TaskRepositoryI        = (*TaskRepository)(nil)
)
