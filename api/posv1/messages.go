package posv1

import "time"

// Money amounts are decimal strings such as "12.50".

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	ImageRef  string    `json:"imageRef,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Transaction struct {
	ID                  string    `json:"id"`
	ProductID           string    `json:"productId"`
	ProductNameSnapshot string    `json:"productNameSnapshot"`
	Quantity            int       `json:"quantity"`
	UnitPrice           string    `json:"unitPrice"`
	TotalAmount         string    `json:"totalAmount"`
	CreatedBy           string    `json:"createdBy,omitempty"`
	OccurredAt          time.Time `json:"occurredAt"`
}

type RecordSaleRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	RequestID string `json:"requestId,omitempty"`
}

type ListTransactionsRequest struct {
	ProductID string `json:"productId,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"pageSize,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
	Total        int            `json:"total"`
}

type CreateProductRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
	ImageRef string `json:"imageRef,omitempty"`
}

type GetProductRequest struct {
	ID string `json:"id"`
}

type ListProductsRequest struct {
	Query    string `json:"query,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

type ListProductsResponse struct {
	Products []*Product `json:"products"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

// UpdateProductRequest leaves nil fields unchanged.
type UpdateProductRequest struct {
	ID       string  `json:"id"`
	Name     *string `json:"name,omitempty"`
	Price    *string `json:"price,omitempty"`
	Stock    *int    `json:"stock,omitempty"`
	ImageRef *string `json:"imageRef,omitempty"`
}

type DeleteProductRequest struct {
	ID string `json:"id"`
}

type DeleteProductResponse struct{}
