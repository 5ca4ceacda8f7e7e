package dto

import (
	"math"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-retail-service/internal/model"
)

func TestCreateProductInput_Validate(t *testing.T) {
	in := &CreateProductInput{Name: " Apple ", Price: decimal.RequireFromString("10.005"), Stock: 5}
	require.NoError(t, in.Validate())
	assert.Equal(t, "Apple", in.Name)
	assert.Equal(t, "10.01", in.Price.String())

	cases := map[string]*CreateProductInput{
		"empty name":      {Name: " ", Price: decimal.NewFromInt(1)},
		"negative price":  {Name: "Apple", Price: decimal.NewFromInt(-1)},
		"price too large": {Name: "Apple", Price: decimal.RequireFromString("10000000000.00")},
		"negative stock":  {Name: "Apple", Price: decimal.NewFromInt(1), Stock: -1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, in.Validate(), model.ErrInvalidInput)
		})
	}
}

func TestCreateProductInput_MaxPriceAccepted(t *testing.T) {
	in := &CreateProductInput{Name: "Gold", Price: decimal.RequireFromString("9999999999.99")}
	assert.NoError(t, in.Validate())
}

func TestCreateProductInput_StockBeyondIntegerRange(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int cannot exceed the INTEGER range")
	}
	huge := int64(math.MaxInt32) + 1
	in := &CreateProductInput{Name: "Apple", Price: decimal.NewFromInt(1), Stock: int(huge)}
	assert.ErrorIs(t, in.Validate(), model.ErrInvalidInput)
}

func TestUpdateProductInput_Validate(t *testing.T) {
	price := decimal.RequireFromString("2.499")
	in := &UpdateProductInput{ID: "x", Price: &price}
	require.NoError(t, in.Validate())
	assert.Equal(t, "2.5", in.Price.String())

	tooMuch := decimal.RequireFromString("1e12")
	assert.ErrorIs(t, (&UpdateProductInput{Price: &tooMuch}).Validate(), model.ErrInvalidInput)

	blank := "  "
	assert.ErrorIs(t, (&UpdateProductInput{Name: &blank}).Validate(), model.ErrInvalidInput)

	stock := -1
	assert.ErrorIs(t, (&UpdateProductInput{Stock: &stock}).Validate(), model.ErrInvalidInput)
}
