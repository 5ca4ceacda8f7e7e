package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-retail-service/internal/auth"
	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/sale/dto"
)

type recordSaleRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
	RequestID string `json:"requestId"`
}

func (a *App) recordSale(w http.ResponseWriter, r *http.Request) {
	var req recordSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "quantity" {
			err = fmt.Errorf("%w: %v", model.ErrInvalidQuantity, typeErr)
		}
		a.writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		a.writeError(w, r, fmt.Errorf("%w: quantity is required", model.ErrInvalidQuantity))
		return
	}
	if req.RequestID == "" {
		req.RequestID = r.Header.Get("Idempotency-Key")
	}

	trx, err := a.Sales.RecordSale(r.Context(), &dto.RecordSaleInput{
		ProductID: req.ProductID,
		Quantity:  *req.Quantity,
		UserID:    auth.GetUserID(r.Context()),
		RequestID: req.RequestID,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trx)
}

func (a *App) listTransactions(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pagination(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	items, count, err := a.Sales.ListTransactions(r.Context(), &dto.TransactionFilters{
		ProductID: r.URL.Query().Get("productId"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(count))
	writeJSON(w, http.StatusOK, items)
}

func (a *App) getTransaction(w http.ResponseWriter, r *http.Request) {
	trx, err := a.Sales.GetTransaction(r.Context(), r.PathValue("id"))
	if errors.Is(err, model.ErrNotFound) {
		a.writeMessage(w, r, http.StatusNotFound, msgTransactionNotFound)
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trx)
}
