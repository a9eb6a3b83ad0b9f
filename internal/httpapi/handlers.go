package httpapi

import (
	"net/http"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
	"truckFleetManagement/internal/auth"
)

// identityOf pulls the resolved identity placed in the context by requireAuth.
func identityOf(r *http.Request) (access.Identity, error) {
	return auth.RequireIdentity(r.Context())
}

// companyForWrite decides which company a new entity belongs to. Admins
// always write into their own company regardless of the payload; superusers
// must name one explicitly; drivers cannot write.
func companyForWrite(id access.Identity, requested int64) (int64, error) {
	switch id.Role {
	case access.RoleAdmin:
		return id.CompanyID, nil
	case access.RoleSuperuser:
		if requested == 0 {
			return 0, apperr.Validation("company is required", map[string]any{"company": "required"})
		}
		return requested, nil
	default:
		return 0, apperr.New(apperr.KindForbidden, "drivers have read-only access")
	}
}
