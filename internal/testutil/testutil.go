package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"truckFleetManagement/internal/auth"
	"truckFleetManagement/internal/db"
	"truckFleetManagement/models"
	"truckFleetManagement/repository"
)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// Caller is responsible for closing the DB, typically via t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	// We use a shared cache memory database so that multiple connections share the same DB if needed.
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// AccessToken returns a signed access token for the given user.
func AccessToken(t *testing.T, secret string, userID int64, username string) string {
	t.Helper()
	s, err := auth.IssueAccess(secret, userID, username, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// SeedUser inserts a user with a bcrypt-hashed password and returns it.
func SeedUser(t *testing.T, d *sql.DB, username, password string, superuser bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := repository.NewUserRepository(d).Create(context.Background(), username, string(hash), superuser)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// SeedCompany inserts a company and returns it.
func SeedCompany(t *testing.T, d *sql.DB, name string) *models.Company {
	t.Helper()
	c, err := repository.NewCompanyRepository(d).Create(context.Background(), name)
	if err != nil {
		t.Fatalf("seed company %s: %v", name, err)
	}
	return c
}

// SeedAdmin inserts a user bound as admin of the given company.
func SeedAdmin(t *testing.T, d *sql.DB, username string, companyID int64) *models.User {
	t.Helper()
	u := SeedUser(t, d, username, "password", false)
	if _, err := repository.NewUserRepository(d).BindAdmin(context.Background(), u.ID, companyID); err != nil {
		t.Fatalf("bind admin %s: %v", username, err)
	}
	return u
}

// SeedDriver inserts a driver record for the company.
func SeedDriver(t *testing.T, d *sql.DB, companyID int64, name, license string) *models.Driver {
	t.Helper()
	dr, err := repository.NewDriverRepository(d).Create(context.Background(), &models.Driver{
		CompanyID:       companyID,
		Name:            name,
		LicenseNumber:   license,
		ExperienceYears: 3,
	})
	if err != nil {
		t.Fatalf("seed driver %s: %v", name, err)
	}
	return dr
}

// SeedDriverUser inserts a user bound to the given driver record.
func SeedDriverUser(t *testing.T, d *sql.DB, username string, driverID int64) *models.User {
	t.Helper()
	u := SeedUser(t, d, username, "password", false)
	if _, err := repository.NewUserRepository(d).BindDriver(context.Background(), u.ID, driverID); err != nil {
		t.Fatalf("bind driver user %s: %v", username, err)
	}
	return u
}

// SeedTruck inserts a truck for the company.
func SeedTruck(t *testing.T, d *sql.DB, companyID int64, plate string, capacityKg int) *models.Truck {
	t.Helper()
	tr, err := repository.NewTruckRepository(d).Create(context.Background(), &models.Truck{
		CompanyID:   companyID,
		PlateNumber: plate,
		Model:       "Volvo FH16",
		CapacityKg:  capacityKg,
		FuelType:    models.FuelTypeDiesel,
	})
	if err != nil {
		t.Fatalf("seed truck %s: %v", plate, err)
	}
	return tr
}

// SeedDestination inserts a destination for the company.
func SeedDestination(t *testing.T, d *sql.DB, companyID int64, name string, lat, lon float64) *models.Destination {
	t.Helper()
	dest, err := repository.NewDestinationRepository(d).Create(context.Background(), &models.Destination{
		CompanyID: companyID,
		Name:      name,
		Address:   name + " street 1",
		Latitude:  lat,
		Longitude: lon,
	})
	if err != nil {
		t.Fatalf("seed destination %s: %v", name, err)
	}
	return dest
}
