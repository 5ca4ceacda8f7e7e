package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	Name     string          `db:"name" json:"name"`
	Price    decimal.Decimal `db:"price" json:"price"`
	Stock    int             `db:"stock" json:"stock"`
	ImageRef *string         `db:"image_ref" json:"imageRef"` // Nullable
}
