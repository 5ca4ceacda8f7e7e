package sale

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/sale/dto"
)

type UseCase interface {
	RecordSale(ctx context.Context, input *dto.RecordSaleInput) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)
}

// IdempotencyStore holds sale request ids that have already been accepted.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type CacheInvalidator interface {
	BumpGeneration(ctx context.Context, namespace string) error
}
