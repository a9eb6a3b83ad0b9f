package repository

import (
	"context"
	"testing"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/internal/db"
	"truckFleetManagement/models"
)

func TestTruckPlateUniquePerCompany(t *testing.T) {
	d, err := db.Open("file:truck_unique?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer d.Close()

	companies := NewCompanyRepository(d)
	trucks := NewTruckRepository(d)
	ctx := context.Background()

	c1, _ := companies.Create(ctx, "Alpha Logistics")
	c2, _ := companies.Create(ctx, "Beta Freight")

	if _, err := trucks.Create(ctx, &models.Truck{CompanyID: c1.ID, PlateNumber: "34-AA-1", Model: "Volvo", CapacityKg: 5000, FuelType: models.FuelTypeDiesel}); err != nil {
		t.Fatalf("create truck: %v", err)
	}
	if _, err := trucks.Create(ctx, &models.Truck{CompanyID: c1.ID, PlateNumber: "34-AA-1", Model: "Scania", CapacityKg: 8000, FuelType: models.FuelTypeDiesel}); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for duplicate plate, got %v", err)
	}
	if _, err := trucks.Create(ctx, &models.Truck{CompanyID: c2.ID, PlateNumber: "34-AA-1", Model: "Scania", CapacityKg: 8000, FuelType: models.FuelTypeDiesel}); err != nil {
		t.Fatalf("same plate in other company should succeed: %v", err)
	}
}

func TestTruckValidation(t *testing.T) {
	d, err := db.Open("file:truck_validation?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer d.Close()

	companies := NewCompanyRepository(d)
	trucks := NewTruckRepository(d)
	ctx := context.Background()

	c, _ := companies.Create(ctx, "Alpha Logistics")

	cases := []models.Truck{
		{CompanyID: c.ID, Model: "Volvo", CapacityKg: 1000, FuelType: models.FuelTypeDiesel},              // no plate
		{CompanyID: c.ID, PlateNumber: "34-BB-2", Model: "Volvo", CapacityKg: 0, FuelType: "diesel"},      // zero capacity
		{CompanyID: c.ID, PlateNumber: "34-BB-3", Model: "Volvo", CapacityKg: 1000, FuelType: "uranium"}, // bad fuel
	}
	for i, tc := range cases {
		if _, err := trucks.Create(ctx, &tc); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestTruckListFilters(t *testing.T) {
	d, err := db.Open("file:truck_filters?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer d.Close()

	companies := NewCompanyRepository(d)
	trucks := NewTruckRepository(d)
	ctx := context.Background()

	c, _ := companies.Create(ctx, "Alpha Logistics")
	t1, _ := trucks.Create(ctx, &models.Truck{CompanyID: c.ID, PlateNumber: "34-AA-1", Model: "Volvo", CapacityKg: 5000, FuelType: models.FuelTypeDiesel})
	t2, _ := trucks.Create(ctx, &models.Truck{CompanyID: c.ID, PlateNumber: "34-AA-2", Model: "Tesla Semi", CapacityKg: 3000, FuelType: models.FuelTypeElectric})

	if _, err := d.Exec(`UPDATE trucks SET status = 'in_use' WHERE id = ?`, t1.ID); err != nil {
		t.Fatalf("flip status: %v", err)
	}

	idle, err := trucks.List(ctx, scopeFor(c.ID), models.TruckStatusIdle, "")
	if err != nil {
		t.Fatalf("list idle: %v", err)
	}
	if len(idle) != 1 || idle[0].ID != t2.ID {
		t.Fatalf("expected only idle truck %d, got %d trucks", t2.ID, len(idle))
	}

	electric, err := trucks.List(ctx, scopeFor(c.ID), "", models.FuelTypeElectric)
	if err != nil {
		t.Fatalf("list electric: %v", err)
	}
	if len(electric) != 1 || electric[0].ID != t2.ID {
		t.Fatalf("expected only electric truck, got %d trucks", len(electric))
	}
}

func TestTruckDeleteGuardedByActiveTask(t *testing.T) {
	d, err := db.Open("file:truck_delete?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer d.Close()

	companies := NewCompanyRepository(d)
	drivers := NewDriverRepository(d)
	trucks := NewTruckRepository(d)
	ctx := context.Background()

	c, _ := companies.Create(ctx, "Alpha Logistics")
	dr, _ := drivers.Create(ctx, &models.Driver{CompanyID: c.ID, Name: "Sami", LicenseNumber: "TR-1"})
	tr, _ := trucks.Create(ctx, &models.Truck{CompanyID: c.ID, PlateNumber: "34-AA-1", Model: "Volvo", CapacityKg: 1000, FuelType: models.FuelTypeDiesel})

	if _, err := d.Exec(`INSERT INTO delivery_tasks (company_id, driver_id, truck_id, product_name, product_weight, status) VALUES (?,?,?,?,?,?)`,
		c.ID, dr.ID, tr.ID, "Cement", 500, "in_progress"); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	if err := trucks.Delete(ctx, scopeFor(c.ID), tr.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict deleting truck with active task, got %v", err)
	}

	// From another tenant the busy truck reads as missing, never as busy.
	if err := trucks.Delete(ctx, scopeFor(c.ID+1), tr.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for cross-tenant delete, got %v", err)
	}

	// Once the task completes the truck can go.
	if _, err := d.Exec(`UPDATE delivery_tasks SET status = 'completed' WHERE truck_id = ?`, tr.ID); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if err := trucks.Delete(ctx, scopeFor(c.ID), tr.ID); err != nil {
		t.Fatalf("delete truck after completion: %v", err)
	}
}

func TestTruckDriverVisibility(t *testing.T) {
	d, err := db.Open("file:truck_driver_vis?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer d.Close()

	companies := NewCompanyRepository(d)
	drivers := NewDriverRepository(d)
	trucks := NewTruckRepository(d)
	ctx := context.Background()

	c, _ := companies.Create(ctx, "Alpha Logistics")
	dr, _ := drivers.Create(ctx, &models.Driver{CompanyID: c.ID, Name: "Sami", LicenseNumber: "TR-1"})
	mine, _ := trucks.Create(ctx, &models.Truck{CompanyID: c.ID, PlateNumber: "34-AA-1", Model: "Volvo", CapacityKg: 5000, FuelType: models.FuelTypeDiesel})
	other, _ := trucks.Create(ctx, &models.Truck{CompanyID: c.ID, PlateNumber: "34-AA-2", Model: "Scania", CapacityKg: 5000, FuelType: models.FuelTypeDiesel})

	// Driver sees only trucks bound to them through a task.
	if _, err := d.Exec(`INSERT INTO delivery_tasks (company_id, driver_id, truck_id, product_name, product_weight, status) VALUES (?,?,?,?,?,?)`,
		c.ID, dr.ID, mine.ID, "Cement", 500, "assigned"); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	did := dr.ID
	driverScope := access.Scope{CompanyID: &c.ID, DriverID: &did}

	visible, err := trucks.List(ctx, driverScope, "", "")
	if err != nil {
		t.Fatalf("list as driver: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != mine.ID {
		t.Fatalf("driver should see exactly their task's truck, got %d trucks", len(visible))
	}

	got, err := trucks.GetByID(ctx, driverScope, other.ID)
	if err != nil {
		t.Fatalf("get unrelated truck: %v", err)
	}
	if got != nil {
		t.Fatal("unrelated truck must read as missing for a driver")
	}
}
