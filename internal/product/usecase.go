package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/search"
	"github.com/fekuna/omnipos-retail-service/internal/product/dto"
)

// ListCacheNamespace versions every cached product listing. Anything that
// changes a product, stock included, must bump it.
const ListCacheNamespace = "products:list"

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Generation(ctx context.Context, namespace string) (int64, error)
	BumpGeneration(ctx context.Context, namespace string) error
}

type Indexer interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc any) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]any) (*search.SearchResponse, error)
}

// AssetRemover deletes stored images that no product references any more.
type AssetRemover interface {
	Delete(ctx context.Context, ref string) error
}
