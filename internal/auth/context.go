package auth

import (
	"context"

	"github.com/fekuna/omnipos-retail-service/internal/model"
)

type UserContext struct {
	UserID string
	Role   model.Role
}

type ctxKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the authenticated caller placed by the HTTP middleware
// or the gRPC interceptor.
func FromContext(ctx context.Context) (UserContext, bool) {
	u, ok := ctx.Value(ctxKey{}).(UserContext)
	return u, ok
}

func GetUserID(ctx context.Context) string {
	u, _ := FromContext(ctx)
	return u.UserID
}
