package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/product"
	"github.com/fekuna/omnipos-retail-service/internal/product/dto"
)

const (
	indexName    = "products"
	listCacheTTL = 5 * time.Minute
	maxPageSize  = 100
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"price": { "type": "double" },
			"createdAt": { "type": "date" }
		}
	}
}`

type productUseCase struct {
	repo   product.Repository
	cache  product.Cache
	es     product.Indexer
	assets product.AssetRemover
	logger logger.ZapLogger
	now    func() time.Time
}

// NewProductUseCase wires the catalog. cache, es and assets are optional.
func NewProductUseCase(repo product.Repository, cache product.Cache, es product.Indexer, assets product.AssetRemover, log logger.ZapLogger) product.UseCase {
	uc := &productUseCase{
		repo:   repo,
		cache:  cache,
		es:     es,
		assets: assets,
		logger: log,
		now:    time.Now,
	}
	if es != nil {
		if err := es.CreateIndex(context.Background(), indexName, indexMapping); err != nil {
			log.Warn("failed to ensure product index", zap.Error(err))
		}
	}
	return uc
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      input.Name,
		Price:     input.Price,
		Stock:     input.Stock,
		ImageRef:  input.ImageRef,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateListCache(ctx)
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrNotFound
	}
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.ErrNotFound
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 0 || filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}

	cacheKey := uc.listCacheKey(ctx, filters)
	if cacheKey != "" {
		var cached listResult
		if hit, err := uc.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return cached.Products, cached.Count, nil
		}
	}

	var (
		products []model.Product
		count    int
		err      error
		searched bool
	)
	if filters.SearchQuery != "" && uc.es != nil {
		products, count, err = uc.searchElastic(ctx, filters)
		if err == nil {
			searched = true
		} else {
			uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
		}
	}
	if !searched {
		products, count, err = uc.repo.FindAll(ctx, filters)
		if err != nil {
			return nil, 0, err
		}
	}

	if cacheKey != "" {
		if err := uc.cache.SetJSON(ctx, cacheKey, listResult{Products: products, Count: count}, listCacheTTL); err != nil {
			uc.logger.Warn("failed to cache product list", zap.Error(err))
		}
	}
	return products, count, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if _, err := uuid.Parse(input.ID); err != nil {
		return nil, model.ErrNotFound
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	current, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, model.ErrNotFound
	}
	if input.Empty() {
		return current, nil
	}

	p, err := uc.repo.Update(ctx, input, uc.now().UTC())
	if err != nil {
		return nil, err
	}

	if input.ImageRef != nil && current.ImageRef != nil && *current.ImageRef != *input.ImageRef {
		uc.removeAsset(ctx, *current.ImageRef)
	}
	uc.invalidateListCache(ctx)
	go uc.syncToElastic(context.Background(), p)

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.ErrNotFound
	}

	p, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	if p.ImageRef != nil {
		uc.removeAsset(ctx, *p.ImageRef)
	}
	uc.invalidateListCache(ctx)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), indexName, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.Error(err))
			}
		}()
	}
	return nil
}

type listResult struct {
	Products []model.Product
	Count    int
}

type indexDoc struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// searchElastic resolves matching ids in the index and loads the rows from
// Postgres, so stock is never served from the index.
func (uc *productUseCase) searchElastic(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	q := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"name": map[string]any{"query": f.SearchQuery, "fuzziness": "AUTO"},
			},
		},
		"_source": false,
		"from":    0,
		"size":    maxPageSize,
	}
	if f.PageSize > 0 {
		q["from"] = (f.Page - 1) * f.PageSize
		q["size"] = f.PageSize
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	rows, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	byID := make(map[string]model.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, res.Hits.Total.Value, nil
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	doc := indexDoc{ID: p.ID, Name: p.Name, Price: p.Price.InexactFloat64(), CreatedAt: p.CreatedAt}
	if err := uc.es.Index(ctx, indexName, p.ID, doc); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) listCacheKey(ctx context.Context, filters *dto.ProductFilters) string {
	if uc.cache == nil {
		return ""
	}
	gen, err := uc.cache.Generation(ctx, product.ListCacheNamespace)
	if err != nil {
		uc.logger.Warn("failed to read product cache generation", zap.Error(err))
		return ""
	}
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%x", product.ListCacheNamespace, gen, md5.Sum(data))
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.BumpGeneration(ctx, product.ListCacheNamespace); err != nil {
		uc.logger.Error("failed to invalidate product list cache", zap.Error(err))
	}
}

// removeAsset deletes an image that no product references any more. It runs
// after the row that held ref was updated or deleted.
func (uc *productUseCase) removeAsset(ctx context.Context, ref string) {
	if uc.assets == nil {
		return
	}
	inUse, err := uc.repo.ImageRefInUse(ctx, ref)
	if err != nil {
		uc.logger.Warn("failed to check product image references, keeping file", zap.String("image_ref", ref), zap.Error(err))
		return
	}
	if inUse {
		return
	}
	if err := uc.assets.Delete(ctx, ref); err != nil && !errors.Is(err, model.ErrNotFound) {
		uc.logger.Warn("failed to remove product image", zap.String("image_ref", ref), zap.Error(err))
	}
}
