package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry of one completed sale.
// ProductID is a weak reference: the product may since have changed or been deleted.
type Transaction struct {
	ID                  string          `db:"id" json:"id"`
	ProductID           string          `db:"product_id" json:"productId"`
	ProductNameSnapshot string          `db:"product_name_snapshot" json:"productNameSnapshot"`
	Quantity            int             `db:"quantity" json:"quantity"`
	UnitPrice           decimal.Decimal `db:"unit_price" json:"unitPrice"`
	TotalAmount         decimal.Decimal `db:"total_amount" json:"totalAmount"`
	CreatedBy           *string         `db:"created_by" json:"createdBy,omitempty"`
	OccurredAt          time.Time       `db:"occurred_at" json:"occurredAt"`
}
