package repository

import (
	"context"
	"testing"

	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/internal/db"
	"truckFleetManagement/models"
)

func TestUserCreateAndLookup(t *testing.T) {
	d, err := db.Open("file:user_create?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer d.Close()

	users := NewUserRepository(d)
	ctx := context.Background()

	u, err := users.Create(ctx, "root", "hash", true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !u.IsSuperuser {
		t.Error("superuser flag lost")
	}

	// Usernames are unique.
	if _, err := users.Create(ctx, "root", "hash2", false); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for duplicate username, got %v", err)
	}
	// Empty username rejected.
	if _, err := users.Create(ctx, "  ", "hash", false); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank username, got %v", err)
	}

	got, err := users.GetByUsername(ctx, "root")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("lookup mismatch: %+v", got)
	}
	missing, err := users.GetByUsername(ctx, "ghost")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if missing != nil {
		t.Fatal("missing user should be nil")
	}

	n, err := users.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
}

func TestUserBindings(t *testing.T) {
	d, err := db.Open("file:user_bindings?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer d.Close()

	users := NewUserRepository(d)
	companies := NewCompanyRepository(d)
	drivers := NewDriverRepository(d)
	ctx := context.Background()

	c, _ := companies.Create(ctx, "Alpha Logistics")
	u, _ := users.Create(ctx, "admin", "hash", false)

	if b, err := users.GetAdminBinding(ctx, u.ID); err != nil || b != nil {
		t.Fatalf("expected no binding yet, got %v / %v", b, err)
	}

	if _, err := users.BindAdmin(ctx, u.ID, c.ID); err != nil {
		t.Fatalf("bind admin: %v", err)
	}
	b, err := users.GetAdminBinding(ctx, u.ID)
	if err != nil {
		t.Fatalf("get admin binding: %v", err)
	}
	if b == nil || b.CompanyID != c.ID {
		t.Fatalf("unexpected binding: %+v", b)
	}

	dr, err := drivers.Create(ctx, &models.Driver{CompanyID: c.ID, Name: "Sami", LicenseNumber: "TR-1"})
	if err != nil {
		t.Fatalf("create driver: %v", err)
	}
	du, _ := users.Create(ctx, "sami", "hash", false)
	if _, err := users.BindDriver(ctx, du.ID, dr.ID); err != nil {
		t.Fatalf("bind driver: %v", err)
	}
	db2, err := users.GetDriverBinding(ctx, du.ID)
	if err != nil {
		t.Fatalf("get driver binding: %v", err)
	}
	if db2 == nil || db2.DriverID != dr.ID {
		t.Fatalf("unexpected driver binding: %+v", db2)
	}
}
