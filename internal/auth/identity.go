package auth

import (
	"context"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/repository"
)

// IdentityResolver maps an authenticated principal to its role binding.
// Exactly one of superuser / company-admin / driver-user holds per user;
// a non-superuser without any binding is an authorization failure.
type IdentityResolver struct {
	Users   *repository.UserRepository
	Drivers *repository.DriverRepository
}

func NewIdentityResolver(users *repository.UserRepository, drivers *repository.DriverRepository) *IdentityResolver {
	return &IdentityResolver{Users: users, Drivers: drivers}
}

// Resolve looks up the principal's role binding. The lookup is pure: it is
// performed once per request and has no side effects.
func (r *IdentityResolver) Resolve(ctx context.Context, p *Principal) (access.Identity, error) {
	if p == nil {
		return access.Identity{}, apperr.New(apperr.KindUnauthorized, "missing principal")
	}
	u, err := r.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return access.Identity{}, err
	}
	if u == nil {
		return access.Identity{}, apperr.New(apperr.KindUnauthorized, "unknown user")
	}

	id := access.Identity{UserID: u.ID, Username: u.Username}

	if u.IsSuperuser {
		id.Role = access.RoleSuperuser
		return id, nil
	}

	if b, err := r.Users.GetAdminBinding(ctx, u.ID); err != nil {
		return access.Identity{}, err
	} else if b != nil {
		id.Role = access.RoleAdmin
		id.CompanyID = b.CompanyID
		return id, nil
	}

	if b, err := r.Users.GetDriverBinding(ctx, u.ID); err != nil {
		return access.Identity{}, err
	} else if b != nil {
		d, err := r.Drivers.GetByID(ctx, access.Scope{}, b.DriverID)
		if err != nil {
			return access.Identity{}, err
		}
		if d == nil {
			return access.Identity{}, apperr.New(apperr.KindForbidden, "driver binding points at a deleted driver")
		}
		id.Role = access.RoleDriver
		id.CompanyID = d.CompanyID
		id.DriverID = d.ID
		return id, nil
	}

	return access.Identity{}, apperr.New(apperr.KindForbidden, "user has no company binding")
}
