package handler

import (
	"context"

	"github.com/fekuna/omnipos-retail-service/api/posv1"
	"github.com/fekuna/omnipos-retail-service/internal/auth"
	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/grpcerr"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/sale"
	"github.com/fekuna/omnipos-retail-service/internal/sale/dto"
)

type SaleHandler struct {
	posv1.UnimplementedSaleServiceServer
	uc     sale.UseCase
	policy auth.Policy
	logger logger.ZapLogger
}

func NewSaleHandler(uc sale.UseCase, policy auth.Policy, log logger.ZapLogger) *SaleHandler {
	return &SaleHandler{
		uc:     uc,
		policy: policy,
		logger: log,
	}
}

func (h *SaleHandler) RecordSale(ctx context.Context, req *posv1.RecordSaleRequest) (*posv1.Transaction, error) {
	user, err := auth.Authorize(ctx, h.policy.SaleRoles...)
	if err != nil {
		return nil, grpcerr.Status(h.logger, posv1.SaleService_RecordSale_FullMethodName, err)
	}

	trx, err := h.uc.RecordSale(ctx, &dto.RecordSaleInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UserID:    user.UserID,
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, grpcerr.Status(h.logger, posv1.SaleService_RecordSale_FullMethodName, err)
	}
	return MapTransactionToAPI(trx), nil
}

func (h *SaleHandler) ListTransactions(ctx context.Context, req *posv1.ListTransactionsRequest) (*posv1.ListTransactionsResponse, error) {
	if _, err := auth.Authorize(ctx); err != nil {
		return nil, grpcerr.Status(h.logger, posv1.SaleService_ListTransactions_FullMethodName, err)
	}

	items, count, err := h.uc.ListTransactions(ctx, &dto.TransactionFilters{
		ProductID: req.ProductID,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return nil, grpcerr.Status(h.logger, posv1.SaleService_ListTransactions_FullMethodName, err)
	}

	out := make([]*posv1.Transaction, len(items))
	for i := range items {
		out[i] = MapTransactionToAPI(&items[i])
	}
	return &posv1.ListTransactionsResponse{Transactions: out, Total: count}, nil
}

func MapTransactionToAPI(m *model.Transaction) *posv1.Transaction {
	if m == nil {
		return nil
	}
	createdBy := ""
	if m.CreatedBy != nil {
		createdBy = *m.CreatedBy
	}
	return &posv1.Transaction{
		ID:                  m.ID,
		ProductID:           m.ProductID,
		ProductNameSnapshot: m.ProductNameSnapshot,
		Quantity:            m.Quantity,
		UnitPrice:           m.UnitPrice.StringFixed(2),
		TotalAmount:         m.TotalAmount.StringFixed(2),
		CreatedBy:           createdBy,
		OccurredAt:          m.OccurredAt,
	}
}
