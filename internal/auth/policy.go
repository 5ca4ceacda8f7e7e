package auth

import (
	"context"
	"slices"

	"github.com/fekuna/omnipos-retail-service/internal/model"
)

// Policy lists which roles may perform the guarded operations.
type Policy struct {
	SaleRoles    []model.Role
	CatalogRoles []model.Role
}

func NewPolicy(saleRoles, catalogRoles []string) Policy {
	return Policy{SaleRoles: toRoles(saleRoles), CatalogRoles: toRoles(catalogRoles)}
}

func toRoles(names []string) []model.Role {
	roles := make([]model.Role, 0, len(names))
	for _, n := range names {
		roles = append(roles, model.Role(n))
	}
	return roles
}

// Authorize checks the caller in ctx. No caller is model.ErrUnauthorized, a
// caller outside allowed is model.ErrForbidden. An empty allowed list admits
// any authenticated caller.
func Authorize(ctx context.Context, allowed ...model.Role) (UserContext, error) {
	u, ok := FromContext(ctx)
	if !ok {
		return UserContext{}, model.ErrUnauthorized
	}
	if len(allowed) > 0 && !slices.Contains(allowed, u.Role) {
		return u, model.ErrForbidden
	}
	return u, nil
}
