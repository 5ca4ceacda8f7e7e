package dto

type RecordSaleInput struct {
	ProductID string
	Quantity  int
	// UserID of the seller; empty for system-originated sales.
	UserID string
	// RequestID is an optional client key that makes the sale idempotent.
	RequestID string
}
