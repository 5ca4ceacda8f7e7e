package dto

type TransactionFilters struct {
	ProductID string
	Page      int
	PageSize  int
}
