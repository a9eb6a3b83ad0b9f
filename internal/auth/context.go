package auth

import (
	"context"

	"truckFleetManagement/internal/access"
	"truckFleetManagement/internal/apperr"
)

type identityKey struct{}

// WithIdentity stores the resolved identity in the context.
func WithIdentity(ctx context.Context, id access.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the resolved identity from the context (if any).
func IdentityFromContext(ctx context.Context) (access.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(access.Identity)
	return id, ok
}

// RequireIdentity ensures an identity is present in the context.
func RequireIdentity(ctx context.Context) (access.Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return access.Identity{}, apperr.New(apperr.KindUnauthorized, "missing identity")
	}
	return id, nil
}
