package handler

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-retail-service/api/posv1"
	"github.com/fekuna/omnipos-retail-service/internal/auth"
	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/grpcerr"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/product"
	"github.com/fekuna/omnipos-retail-service/internal/product/dto"
)

type ProductHandler struct {
	posv1.UnimplementedProductServiceServer
	uc     product.UseCase
	policy auth.Policy
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, policy auth.Policy, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		policy: policy,
		logger: log,
	}
}

func (h *ProductHandler) fail(method string, err error) error {
	return grpcerr.Status(h.logger, method, err)
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *posv1.CreateProductRequest) (*posv1.Product, error) {
	const method = posv1.ProductService_CreateProduct_FullMethodName
	if _, err := auth.Authorize(ctx, h.policy.CatalogRoles...); err != nil {
		return nil, h.fail(method, err)
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, h.fail(method, err)
	}
	input := &dto.CreateProductInput{
		Name:  req.Name,
		Price: price,
		Stock: req.Stock,
	}
	if req.ImageRef != "" {
		ref := req.ImageRef
		input.ImageRef = &ref
	}

	p, err := h.uc.CreateProduct(ctx, input)
	if err != nil {
		return nil, h.fail(method, err)
	}
	h.logger.Info("product created via grpc", zap.String("product_id", p.ID))
	return MapProductToAPI(p), nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *posv1.GetProductRequest) (*posv1.Product, error) {
	const method = posv1.ProductService_GetProduct_FullMethodName
	if _, err := auth.Authorize(ctx); err != nil {
		return nil, h.fail(method, err)
	}

	p, err := h.uc.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, h.fail(method, err)
	}
	return MapProductToAPI(p), nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *posv1.ListProductsRequest) (*posv1.ListProductsResponse, error) {
	const method = posv1.ProductService_ListProducts_FullMethodName
	if _, err := auth.Authorize(ctx); err != nil {
		return nil, h.fail(method, err)
	}

	filters := &dto.ProductFilters{
		SearchQuery: req.Query,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}
	products, count, err := h.uc.ListProducts(ctx, filters)
	if err != nil {
		return nil, h.fail(method, err)
	}

	out := make([]*posv1.Product, len(products))
	for i := range products {
		out[i] = MapProductToAPI(&products[i])
	}
	return &posv1.ListProductsResponse{
		Products: out,
		Total:    count,
		Page:     filters.Page,
		PageSize: filters.PageSize,
	}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *posv1.UpdateProductRequest) (*posv1.Product, error) {
	const method = posv1.ProductService_UpdateProduct_FullMethodName
	if _, err := auth.Authorize(ctx, h.policy.CatalogRoles...); err != nil {
		return nil, h.fail(method, err)
	}

	input := &dto.UpdateProductInput{
		ID:       req.ID,
		Name:     req.Name,
		Stock:    req.Stock,
		ImageRef: req.ImageRef,
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return nil, h.fail(method, err)
		}
		input.Price = &price
	}

	p, err := h.uc.UpdateProduct(ctx, input)
	if err != nil {
		return nil, h.fail(method, err)
	}
	return MapProductToAPI(p), nil
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, req *posv1.DeleteProductRequest) (*posv1.DeleteProductResponse, error) {
	const method = posv1.ProductService_DeleteProduct_FullMethodName
	if _, err := auth.Authorize(ctx, h.policy.CatalogRoles...); err != nil {
		return nil, h.fail(method, err)
	}

	if err := h.uc.DeleteProduct(ctx, req.ID); err != nil {
		return nil, h.fail(method, err)
	}
	return &posv1.DeleteProductResponse{}, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q is not a number", model.ErrInvalidInput, s)
	}
	return d, nil
}

func MapProductToAPI(m *model.Product) *posv1.Product {
	if m == nil {
		return nil
	}
	imageRef := ""
	if m.ImageRef != nil {
		imageRef = *m.ImageRef
	}
	return &posv1.Product{
		ID:        m.ID,
		Name:      m.Name,
		Price:     m.Price.StringFixed(2),
		Stock:     m.Stock,
		ImageRef:  imageRef,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
