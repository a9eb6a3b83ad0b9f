// Package access implements tenant and role scoping. Every store call takes
// a Scope derived from the caller's resolved Identity; handlers never query
// the store without one. Cross-tenant ids fall outside the scope's WHERE
// clause and therefore read as not found, hiding their existence.
package access

import "truckFleetManagement/internal/apperr"

// Role is the caller's resolved role.
type Role string

const (
	RoleSuperuser Role = "superuser"
	RoleAdmin     Role = "admin"
	RoleDriver    Role = "driver"
)

// Identity is the authenticated caller with exactly one role binding:
// a superuser (no company), a company admin, or a driver user.
type Identity struct {
	UserID    int64
	Username  string
	Role      Role
	CompanyID int64 // owning company; 0 for superuser
	DriverID  int64 // bound driver record; 0 unless Role is RoleDriver
}

// Scope is the predicate restricting which rows a query may see.
// A nil CompanyID means unrestricted (superuser). A non-nil DriverID
// further restricts reads to rows reachable from that driver's tasks.
type Scope struct {
	CompanyID *int64
	DriverID  *int64
}

// Scope derives the scoping predicate for the identity.
func (id Identity) Scope() Scope {
	switch id.Role {
	case RoleSuperuser:
		return Scope{}
	case RoleAdmin:
		cid := id.CompanyID
		return Scope{CompanyID: &cid}
	case RoleDriver:
		cid := id.CompanyID
		did := id.DriverID
		return Scope{CompanyID: &cid, DriverID: &did}
	default:
		// Unknown role: scope to nothing that exists.
		zero := int64(-1)
		return Scope{CompanyID: &zero}
	}
}

// CanMutate reports whether the identity may perform writes at all.
// Drivers are read-only except for the task start transition, which the
// assignment engine authorizes separately.
func (id Identity) CanMutate() bool {
	return id.Role == RoleSuperuser || id.Role == RoleAdmin
}

// RequireMutate rejects read-only callers.
func RequireMutate(id Identity) error {
	if !id.CanMutate() {
		return apperr.New(apperr.KindForbidden, "drivers have read-only access")
	}
	return nil
}

// RequireAdmin rejects callers that are neither a company admin nor a superuser.
func RequireAdmin(id Identity) error {
	if id.Role != RoleAdmin && id.Role != RoleSuperuser {
		return apperr.New(apperr.KindForbidden, "admin role required")
	}
	return nil
}

// RequireSuperuser rejects everyone but superusers.
func RequireSuperuser(id Identity) error {
	if id.Role != RoleSuperuser {
		return apperr.New(apperr.KindForbidden, "superuser role required")
	}
	return nil
}
