package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-retail-service/internal/model"
)

// message ids of the locale catalogs
const (
	msgProductNotFound     = "product_not_found"
	msgTransactionNotFound = "transaction_not_found"
	msgInsufficientStock   = "insufficient_stock"
	msgInvalidQuantity     = "invalid_quantity"
	msgInvalidInput        = "invalid_input"
	msgDuplicateRequest    = "duplicate_request"
	msgConflict            = "conflict"
	msgUnauthorized        = "unauthorized"
	msgUnauthenticated     = "unauthenticated"
	msgForbidden           = "forbidden"
	msgUnavailable         = "unavailable"
	msgInternal            = "internal"
	msgUserCreated         = "user_created"
	msgProductDeleted      = "product_deleted"
)

type jsonMessage struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

var errorMapping = []struct {
	err    error
	status int
	msgID  string
}{
	{model.ErrNotFound, http.StatusNotFound, msgProductNotFound},
	{model.ErrInsufficientStock, http.StatusBadRequest, msgInsufficientStock},
	{model.ErrInvalidQuantity, http.StatusBadRequest, msgInvalidQuantity},
	{model.ErrInvalidInput, http.StatusBadRequest, msgInvalidInput},
	{model.ErrDuplicateRequest, http.StatusConflict, msgDuplicateRequest},
	{model.ErrConflict, http.StatusConflict, msgConflict},
	{model.ErrUnauthorized, http.StatusUnauthorized, msgUnauthorized},
	{model.ErrForbidden, http.StatusForbidden, msgForbidden},
	{model.ErrStorageUnavailable, http.StatusServiceUnavailable, msgUnavailable},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) writeMessage(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, jsonMessage{Message: a.Translator.Localize(r.Header.Get("Accept-Language"), msgID)})
}

// writeError maps a domain error to a status and a localized message. Client
// errors carry the error text as details; anything unexpected is logged and
// answered with a generic 500.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMapping {
		if !errors.Is(err, m.err) {
			continue
		}
		body := jsonMessage{Message: a.Translator.Localize(r.Header.Get("Accept-Language"), m.msgID)}
		switch {
		case m.status == http.StatusServiceUnavailable:
			a.Logger.Warn("storage unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		case m.status == http.StatusBadRequest:
			body.Details = err.Error()
		}
		writeJSON(w, m.status, body)
		return
	}

	a.Logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	a.writeMessage(w, r, http.StatusInternalServerError, msgInternal)
}
