package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/product"
	"github.com/fekuna/omnipos-retail-service/internal/sale"
	"github.com/fekuna/omnipos-retail-service/internal/sale/dto"
)

const (
	requestKeyPrefix = "sale:request:"
	requestKeyTTL    = 24 * time.Hour
	retryBackoff     = 20 * time.Millisecond
	cleanupTimeout   = 2 * time.Second
	maxPageSize      = 100
)

type Options struct {
	// Timeout bounds one sale, retries included.
	Timeout    time.Duration
	MaxRetries int
}

type saleUseCase struct {
	repo       sale.Repository
	idem       sale.IdempotencyStore
	cache      sale.CacheInvalidator
	logger     logger.ZapLogger
	timeout    time.Duration
	maxRetries int
	now        func() time.Time
}

// NewSaleUseCase wires the sale processor. idem and cache are optional.
func NewSaleUseCase(repo sale.Repository, idem sale.IdempotencyStore, cache sale.CacheInvalidator, log logger.ZapLogger, opts Options) sale.UseCase {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &saleUseCase{
		repo:       repo,
		idem:       idem,
		cache:      cache,
		logger:     log,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		now:        time.Now,
	}
}

// RecordSale checks and decrements stock and appends the ledger entry as one
// unit. It runs detached from the caller's cancellation so a disconnecting
// client can never leave a sale half applied.
func (uc *saleUseCase) RecordSale(ctx context.Context, input *dto.RecordSaleInput) (trx *model.Transaction, err error) {
	if input.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}
	if _, perr := uuid.Parse(input.ProductID); perr != nil {
		return nil, fmt.Errorf("product %q: %w", input.ProductID, model.ErrNotFound)
	}

	detached := context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(detached, uc.timeout)
	defer cancel()

	if input.RequestID != "" && uc.idem != nil {
		key := requestKeyPrefix + input.RequestID
		ok, rerr := uc.idem.Reserve(ctx, key, requestKeyTTL)
		if rerr != nil {
			return nil, fmt.Errorf("%w: reserve request id: %v", model.ErrStorageUnavailable, rerr)
		}
		if !ok {
			return nil, model.ErrDuplicateRequest
		}
		defer func() {
			if err == nil {
				return
			}
			// The sale may have failed on its own deadline; release on a fresh one.
			relCtx, relCancel := context.WithTimeout(detached, cleanupTimeout)
			defer relCancel()
			if relErr := uc.idem.Release(relCtx, key); relErr != nil {
				uc.logger.Error("failed to release sale request id", zap.String("request_id", input.RequestID), zap.Error(relErr))
			}
		}()
	}

	trx, err = uc.recordWithRetry(ctx, input)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		bumpCtx, bumpCancel := context.WithTimeout(detached, cleanupTimeout)
		defer bumpCancel()
		if cerr := uc.cache.BumpGeneration(bumpCtx, product.ListCacheNamespace); cerr != nil {
			uc.logger.Error("failed to invalidate product list cache", zap.Error(cerr))
		}
	}

	uc.logger.Info("sale recorded",
		zap.String("transaction_id", trx.ID),
		zap.String("product_id", trx.ProductID),
		zap.Int("quantity", trx.Quantity),
		zap.String("total_amount", trx.TotalAmount.String()),
	)
	return trx, nil
}

func (uc *saleUseCase) recordWithRetry(ctx context.Context, input *dto.RecordSaleInput) (*model.Transaction, error) {
	for attempt := 0; ; attempt++ {
		trx, err := uc.recordOnce(ctx, input)
		if err == nil {
			return trx, nil
		}
		if isBusinessError(err) {
			return nil, err
		}
		if !errors.Is(err, model.ErrStorageConflict) {
			return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
		}
		if attempt >= uc.maxRetries {
			return nil, fmt.Errorf("%w: retries exhausted: %v", model.ErrStorageUnavailable, err)
		}

		uc.logger.Warn("sale lost a storage race, retrying",
			zap.String("product_id", input.ProductID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-time.After(retryBackoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", model.ErrStorageUnavailable, ctx.Err())
		}
	}
}

func (uc *saleUseCase) recordOnce(ctx context.Context, input *dto.RecordSaleInput) (*model.Transaction, error) {
	var createdBy *string
	if _, err := uuid.Parse(input.UserID); err == nil {
		userID := input.UserID
		createdBy = &userID
	}

	var trx *model.Transaction
	err := uc.repo.WithinTx(ctx, func(store sale.TxStore) error {
		now := uc.now().UTC()

		p, err := store.DecrementStock(ctx, input.ProductID, input.Quantity, now)
		if err != nil {
			return err
		}

		t := &model.Transaction{
			ID:                  uuid.New().String(),
			ProductID:           p.ID,
			ProductNameSnapshot: p.Name,
			Quantity:            input.Quantity,
			UnitPrice:           p.Price,
			TotalAmount:         p.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
			CreatedBy:           createdBy,
			OccurredAt:          now,
		}
		if err := store.Append(ctx, t); err != nil {
			return err
		}
		trx = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trx, nil
}

func isBusinessError(err error) bool {
	return errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInsufficientStock) ||
		errors.Is(err, model.ErrInvalidQuantity)
}

func (uc *saleUseCase) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.ErrNotFound
	}
	trx, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trx == nil {
		return nil, model.ErrNotFound
	}
	return trx, nil
}

func (uc *saleUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error) {
	if filters.ProductID != "" {
		if _, err := uuid.Parse(filters.ProductID); err != nil {
			return []model.Transaction{}, 0, nil
		}
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 0 || filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}
	return uc.repo.FindAll(ctx, filters)
}
