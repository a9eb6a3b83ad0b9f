package auth_test

import (
	"context"
	"testing"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/internal/auth"
	"truckFleetManagement/internal/testutil"
	"truckFleetManagement/repository"
)

func TestResolveBindings(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "identity_resolve")
	resolver := auth.NewIdentityResolver(repository.NewUserRepository(d), repository.NewDriverRepository(d))
	ctx := context.Background()

	c := testutil.SeedCompany(t, d, "Alpha Logistics")
	su := testutil.SeedUser(t, d, "root", "password", true)
	admin := testutil.SeedAdmin(t, d, "admin", c.ID)
	driverRec := testutil.SeedDriver(t, d, c.ID, "Sami", "TR-1")
	driverUser := testutil.SeedDriverUser(t, d, "sami", driverRec.ID)
	unbound := testutil.SeedUser(t, d, "nobody", "password", false)

	id, err := resolver.Resolve(ctx, &auth.Principal{UserID: su.ID, Username: su.Username})
	if err != nil {
		t.Fatalf("resolve superuser: %v", err)
	}
	if id.Role != access.RoleSuperuser || id.CompanyID != 0 {
		t.Errorf("unexpected superuser identity: %+v", id)
	}

	id, err = resolver.Resolve(ctx, &auth.Principal{UserID: admin.ID, Username: admin.Username})
	if err != nil {
		t.Fatalf("resolve admin: %v", err)
	}
	if id.Role != access.RoleAdmin || id.CompanyID != c.ID {
		t.Errorf("unexpected admin identity: %+v", id)
	}

	id, err = resolver.Resolve(ctx, &auth.Principal{UserID: driverUser.ID, Username: driverUser.Username})
	if err != nil {
		t.Fatalf("resolve driver: %v", err)
	}
	if id.Role != access.RoleDriver || id.CompanyID != c.ID || id.DriverID != driverRec.ID {
		t.Errorf("unexpected driver identity: %+v", id)
	}

	// A user with no binding cannot act at all.
	if _, err := resolver.Resolve(ctx, &auth.Principal{UserID: unbound.ID, Username: unbound.Username}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected forbidden for unbound user, got %v", err)
	}

	// An unknown user id is an authentication failure.
	if _, err := resolver.Resolve(ctx, &auth.Principal{UserID: 9999, Username: "ghost"}); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("expected unauthorized for unknown user, got %v", err)
	}
}
