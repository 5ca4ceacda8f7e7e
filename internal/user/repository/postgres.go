package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/database/postgres"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, u *model.User) error {
	query := `
        INSERT INTO users (id, username, password_hash, role, created_at)
        VALUES (:id, :username, :password_hash, :role, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, u)
	switch {
	case postgres.IsUniqueViolation(err):
		return model.ErrConflict
	case postgres.IsCheckViolation(err):
		return model.ErrInvalidInput
	}
	return err
}

func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u, `SELECT * FROM users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM users WHERE role = $1`, role)
	return count, err
}
