package access

import (
	"testing"

	"truckFleetManagement/internal/apperr"
)

func TestScopeDerivation(t *testing.T) {
	su := Identity{UserID: 1, Role: RoleSuperuser}
	if s := su.Scope(); s.CompanyID != nil || s.DriverID != nil {
		t.Errorf("superuser scope must be unrestricted: %+v", s)
	}

	admin := Identity{UserID: 2, Role: RoleAdmin, CompanyID: 7}
	s := admin.Scope()
	if s.CompanyID == nil || *s.CompanyID != 7 || s.DriverID != nil {
		t.Errorf("admin scope must restrict to company 7: %+v", s)
	}

	driver := Identity{UserID: 3, Role: RoleDriver, CompanyID: 7, DriverID: 12}
	s = driver.Scope()
	if s.CompanyID == nil || *s.CompanyID != 7 || s.DriverID == nil || *s.DriverID != 12 {
		t.Errorf("driver scope must restrict to company and driver: %+v", s)
	}

	// An unknown role scopes to nothing.
	s = Identity{UserID: 4, Role: "intern"}.Scope()
	if s.CompanyID == nil || *s.CompanyID != -1 {
		t.Errorf("unknown role must scope to nothing: %+v", s)
	}
}

func TestRoleChecks(t *testing.T) {
	su := Identity{Role: RoleSuperuser}
	admin := Identity{Role: RoleAdmin, CompanyID: 7}
	driver := Identity{Role: RoleDriver, CompanyID: 7, DriverID: 12}

	if err := RequireMutate(su); err != nil {
		t.Errorf("superuser must mutate: %v", err)
	}
	if err := RequireMutate(admin); err != nil {
		t.Errorf("admin must mutate: %v", err)
	}
	if err := RequireMutate(driver); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("driver mutation must be forbidden, got %v", err)
	}

	if err := RequireAdmin(driver); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("driver is not an admin, got %v", err)
	}
	if err := RequireSuperuser(admin); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("admin is not a superuser, got %v", err)
	}
	if err := RequireSuperuser(su); err != nil {
		t.Errorf("superuser check failed: %v", err)
	}
}
