package dto

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-retail-service/internal/model"
)

type CreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	Stock    int
	ImageRef *string
}

func (in *CreateProductInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	price, err := normalizePrice(in.Price)
	if err != nil {
		return err
	}
	in.Price = price
	return validateStock(in.Stock)
}

// UpdateProductInput is a partial update: nil fields are left untouched.
type UpdateProductInput struct {
	ID       string
	Name     *string
	Price    *decimal.Decimal
	Stock    *int
	ImageRef *string
}

func (in *UpdateProductInput) Empty() bool {
	return in.Name == nil && in.Price == nil && in.Stock == nil && in.ImageRef == nil
}

func (in *UpdateProductInput) Validate() error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", model.ErrInvalidInput)
		}
		in.Name = &name
	}
	if in.Price != nil {
		price, err := normalizePrice(*in.Price)
		if err != nil {
			return err
		}
		in.Price = &price
	}
	if in.Stock != nil {
		return validateStock(*in.Stock)
	}
	return nil
}

// maxPrice is the largest value the NUMERIC(12,2) price column holds.
var maxPrice = decimal.RequireFromString("9999999999.99")

// normalizePrice rounds to cents, the precision the store keeps.
func normalizePrice(p decimal.Decimal) (decimal.Decimal, error) {
	p = p.Round(2)
	if p.IsNegative() {
		return p, fmt.Errorf("%w: price must be >= 0", model.ErrInvalidInput)
	}
	if p.GreaterThan(maxPrice) {
		return p, fmt.Errorf("%w: price must be <= %s", model.ErrInvalidInput, maxPrice)
	}
	return p, nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", model.ErrInvalidInput)
	}
	if int64(stock) > math.MaxInt32 {
		return fmt.Errorf("%w: stock must be <= %d", model.ErrInvalidInput, math.MaxInt32)
	}
	return nil
}
