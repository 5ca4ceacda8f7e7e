// Package httpapi exposes the REST API of the retail service.
package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/fekuna/omnipos-retail-service/internal/auth"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/product"
	"github.com/fekuna/omnipos-retail-service/internal/sale"
	"github.com/fekuna/omnipos-retail-service/internal/user"
)

type AssetStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
	Handler() http.Handler
	MaxBytes() int64
}

type App struct {
	Products   product.UseCase
	Sales      sale.UseCase
	Users      user.UseCase
	Tokens     *auth.TokenManager
	Policy     auth.Policy
	Assets     AssetStore
	Translator *i18n.Translator
	Logger     logger.ZapLogger
}

// NewRouter registers HTTP routes and returns the handler with middleware.
// Catalog and ledger reads are open; writes need a token and a policy role.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", app.register)
	mux.HandleFunc("POST /api/auth/login", app.login)

	mux.HandleFunc("GET /api/products", app.listProducts)
	mux.HandleFunc("GET /api/products/{id}", app.getProduct)
	mux.Handle("POST /api/products", app.protect(app.Policy.CatalogRoles, app.createProduct))
	mux.Handle("PUT /api/products/{id}", app.protect(app.Policy.CatalogRoles, app.updateProduct))
	mux.Handle("DELETE /api/products/{id}", app.protect(app.Policy.CatalogRoles, app.deleteProduct))

	mux.Handle("POST /api/transactions", app.protect(app.Policy.SaleRoles, app.recordSale))
	mux.HandleFunc("GET /api/transactions", app.listTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", app.getTransaction)

	mux.Handle("GET /uploads/", http.StripPrefix("/uploads", app.Assets.Handler()))
	mux.HandleFunc("GET /health", app.health)

	return WithRequestID(WithLogging(app.Logger, WithCORS(mux)))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
