package sale

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/sale/dto"
)

// TxStore is the set of writes available inside one database transaction.
type TxStore interface {
	DecrementStock(ctx context.Context, productID string, quantity int, now time.Time) (*model.Product, error)
	Append(ctx context.Context, trx *model.Transaction) error
}

type Repository interface {
	// WithinTx runs fn in a single database transaction. Nothing fn wrote is
	// kept unless fn returns nil and the commit succeeds. Lost races surface
	// as model.ErrStorageConflict.
	WithinTx(ctx context.Context, fn func(store TxStore) error) error

	FindByID(ctx context.Context, id string) (*model.Transaction, error)
	FindAll(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)
}
