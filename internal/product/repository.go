package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)

	// Update applies only the fields set in input and returns the stored row.
	Update(ctx context.Context, input *dto.UpdateProductInput, now time.Time) (*model.Product, error)
	// Delete removes the product and returns the deleted row.
	Delete(ctx context.Context, id string) (*model.Product, error)

	// ImageRefInUse reports whether any product still points at ref.
	ImageRefInUse(ctx context.Context, ref string) (bool, error)

	// DecrementStock takes quantity off stock only if enough is available.
	DecrementStock(ctx context.Context, id string, quantity int, now time.Time) (*model.Product, error)
}
