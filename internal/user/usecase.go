package user

import (
	"context"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/user/dto"
)

type UseCase interface {
	Register(ctx context.Context, input *dto.RegisterInput) (*model.User, error)
	Login(ctx context.Context, input *dto.LoginInput) (*dto.LoginResult, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string, role model.Role) (string, error)
}
