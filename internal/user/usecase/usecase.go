package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/user"
	"github.com/fekuna/omnipos-retail-service/internal/user/dto"
)

type userUseCase struct {
	repo      user.Repository
	tokens    user.TokenIssuer
	logger    logger.ZapLogger
	hashCost  int
	now       func() time.Time
	dummyHash []byte
}

func NewUserUseCase(repo user.Repository, tokens user.TokenIssuer, log logger.ZapLogger) user.UseCase {
	return newUserUseCase(repo, tokens, log, bcrypt.DefaultCost)
}

func newUserUseCase(repo user.Repository, tokens user.TokenIssuer, log logger.ZapLogger, cost int) *userUseCase {
	// compared against on unknown usernames so both paths cost one bcrypt run
	dummy, _ := bcrypt.GenerateFromPassword([]byte("omnipos-dummy-password"), cost)
	return &userUseCase{
		repo:      repo,
		tokens:    tokens,
		logger:    log,
		hashCost:  cost,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register creates a user. Admin accounts may only be created by an admin,
// except for the very first one.
func (uc *userUseCase) Register(ctx context.Context, input *dto.RegisterInput) (*model.User, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if input.Role == model.RoleAdmin && input.CallerRole != model.RoleAdmin {
		admins, err := uc.repo.CountByRole(ctx, model.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if admins > 0 {
			return nil, fmt.Errorf("%w: only an admin can create another admin", model.ErrForbidden)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         input.Role,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("username %q: %w", input.Username, model.ErrConflict)
		}
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (uc *userUseCase) Login(ctx context.Context, input *dto.LoginInput) (*dto.LoginResult, error) {
	u, err := uc.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(uc.dummyHash, []byte(input.Password))
		return nil, model.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, model.ErrUnauthorized
	}

	token, err := uc.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &dto.LoginResult{Token: token, Role: u.Role, Username: u.Username}, nil
}
