package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/database/postgres"
	"github.com/fekuna/omnipos-retail-service/internal/product/dto"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (id, name, price, stock, image_ref, created_at, updated_at)
        VALUES (:id, :name, :price, :stock, :image_ref, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	if postgres.IsCheckViolation(err) {
		return model.ErrInvalidInput
	}
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := r.DB.GetContext(ctx, &product, `SELECT * FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	products := []model.Product{}
	err = r.DB.SelectContext(ctx, &products, query, args...)
	return products, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	filter := func(b sq.SelectBuilder) sq.SelectBuilder {
		if f.SearchQuery != "" {
			b = b.Where(sq.Expr("name ILIKE ?", "%"+likeEscaper.Replace(f.SearchQuery)+"%"))
		}
		return b
	}

	countQuery, args, err := filter(psql.Select("count(*)").From("products")).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := r.DB.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, err
	}

	list := filter(psql.Select("*").From("products")).OrderBy("created_at DESC", "id DESC")
	if f.PageSize > 0 {
		list = list.Limit(uint64(f.PageSize)).Offset(uint64((f.Page - 1) * f.PageSize))
	}
	query, args, err := list.ToSql()
	if err != nil {
		return nil, 0, err
	}

	products := []model.Product{}
	if err := r.DB.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, in *dto.UpdateProductInput, now time.Time) (*model.Product, error) {
	b := psql.Update("products").
		Set("updated_at", now).
		Where(sq.Eq{"id": in.ID}).
		Suffix("RETURNING *")
	if in.Name != nil {
		b = b.Set("name", *in.Name)
	}
	if in.Price != nil {
		b = b.Set("price", *in.Price)
	}
	if in.Stock != nil {
		b = b.Set("stock", *in.Stock)
	}
	if in.ImageRef != nil {
		b = b.Set("image_ref", *in.ImageRef)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var p model.Product
	err = r.DB.GetContext(ctx, &p, query, args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, model.ErrNotFound
	case postgres.IsCheckViolation(err):
		return nil, model.ErrInvalidInput
	case err != nil:
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `DELETE FROM products WHERE id = $1 RETURNING *`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) ImageRefInUse(ctx context.Context, ref string) (bool, error) {
	var inUse bool
	err := r.DB.GetContext(ctx, &inUse, `SELECT EXISTS (SELECT 1 FROM products WHERE image_ref = $1)`, ref)
	return inUse, err
}

func (r *PGRepository) DecrementStock(ctx context.Context, id string, quantity int, now time.Time) (*model.Product, error) {
	return DecrementStock(ctx, r.DB, id, quantity, now)
}

// DecrementStock is the conditional decrement. q may be a *sqlx.Tx so the
// caller can commit the decrement together with other writes. The row lock
// taken by the UPDATE serializes concurrent sales of the same product, and
// the stock predicate is re-checked against the committed value. quantity is
// compared as bigint so a value past the INTEGER range is simply too many.
func DecrementStock(ctx context.Context, q sqlx.QueryerContext, id string, quantity int, now time.Time) (*model.Product, error) {
	var p model.Product
	err := sqlx.GetContext(ctx, q, &p, `
        UPDATE products
        SET stock = stock - $1::bigint, updated_at = $3
        WHERE id = $2 AND stock >= $1::bigint
        RETURNING *`,
		quantity, id, now,
	)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id); err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.ErrNotFound
	}
	return nil, model.ErrInsufficientStock
}
