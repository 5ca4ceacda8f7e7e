package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/database/postgres"
	productRepo "github.com/fekuna/omnipos-retail-service/internal/product/repository"
	"github.com/fekuna/omnipos-retail-service/internal/sale"
	"github.com/fekuna/omnipos-retail-service/internal/sale/dto"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) WithinTx(ctx context.Context, fn func(store sale.TxStore) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(&txStore{tx: tx}); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func classify(err error) error {
	if postgres.IsRetryable(err) {
		return fmt.Errorf("%w: %v", model.ErrStorageConflict, err)
	}
	return err
}

type txStore struct {
	tx *sqlx.Tx
}

func (s *txStore) DecrementStock(ctx context.Context, productID string, quantity int, now time.Time) (*model.Product, error) {
	return productRepo.DecrementStock(ctx, s.tx, productID, quantity, now)
}

func (s *txStore) Append(ctx context.Context, trx *model.Transaction) error {
	query := `
        INSERT INTO transactions (
            id, product_id, product_name_snapshot, quantity,
            unit_price, total_amount, created_by, occurred_at
        )
        VALUES (
            :id, :product_id, :product_name_snapshot, :quantity,
            :unit_price, :total_amount, :created_by, :occurred_at
        )
    `
	if _, err := s.tx.NamedExecContext(ctx, query, trx); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	var trx model.Transaction
	err := r.DB.GetContext(ctx, &trx, `SELECT * FROM transactions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &trx, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransactionFilters) ([]model.Transaction, int, error) {
	filter := func(b sq.SelectBuilder) sq.SelectBuilder {
		if f.ProductID != "" {
			b = b.Where(sq.Eq{"product_id": f.ProductID})
		}
		return b
	}

	countQuery, args, err := filter(psql.Select("count(*)").From("transactions")).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := r.DB.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, err
	}

	list := filter(psql.Select("*").From("transactions")).OrderBy("occurred_at DESC", "id DESC")
	if f.PageSize > 0 {
		list = list.Limit(uint64(f.PageSize)).Offset(uint64((f.Page - 1) * f.PageSize))
	}
	query, args, err := list.ToSql()
	if err != nil {
		return nil, 0, err
	}

	items := []model.Transaction{}
	if err := r.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}
