package user

import (
	"context"

	"github.com/fekuna/omnipos-retail-service/internal/model"
)

type Repository interface {
	// Create fails with model.ErrConflict when the username is taken.
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	CountByRole(ctx context.Context, role model.Role) (int, error)
}
