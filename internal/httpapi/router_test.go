package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-retail-service/internal/asset"
	"github.com/fekuna/omnipos-retail-service/internal/auth"
	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	productdto "github.com/fekuna/omnipos-retail-service/internal/product/dto"
	saledto "github.com/fekuna/omnipos-retail-service/internal/sale/dto"
	userdto "github.com/fekuna/omnipos-retail-service/internal/user/dto"
)

type mockProducts struct {
	mu       sync.Mutex
	products map[string]model.Product
}

func (m *mockProducts) CreateProduct(ctx context.Context, in *productdto.CreateProductInput) (*model.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := model.Product{
		BaseModel: model.BaseModel{ID: uuid.NewString(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Name:      in.Name,
		Price:     in.Price,
		Stock:     in.Stock,
		ImageRef:  in.ImageRef,
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return &p, nil
}

func (m *mockProducts) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (m *mockProducts) ListProducts(ctx context.Context, f *productdto.ProductFilters) ([]model.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Product{}
	for _, p := range m.products {
		if f.SearchQuery == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.SearchQuery)) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockProducts) UpdateProduct(ctx context.Context, in *productdto.UpdateProductInput) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[in.ID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.ImageRef != nil {
		p.ImageRef = in.ImageRef
	}
	m.products[p.ID] = p
	return &p, nil
}

func (m *mockProducts) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

type mockSales struct {
	err  error
	last *saledto.RecordSaleInput
}

func (m *mockSales) RecordSale(ctx context.Context, in *saledto.RecordSaleInput) (*model.Transaction, error) {
	m.last = in
	if m.err != nil {
		return nil, m.err
	}
	return &model.Transaction{
		ID:          uuid.NewString(),
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		UnitPrice:   decimal.NewFromInt(10),
		TotalAmount: decimal.NewFromInt(int64(10 * in.Quantity)),
		OccurredAt:  time.Now(),
	}, nil
}

func (m *mockSales) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return nil, model.ErrNotFound
}

func (m *mockSales) ListTransactions(ctx context.Context, f *saledto.TransactionFilters) ([]model.Transaction, int, error) {
	return []model.Transaction{{ID: "t1", ProductID: f.ProductID}}, 1, nil
}

type mockUsers struct {
	lastRegister *userdto.RegisterInput
}

func (m *mockUsers) Register(ctx context.Context, in *userdto.RegisterInput) (*model.User, error) {
	m.lastRegister = in
	if in.Username == "taken" {
		return nil, model.ErrConflict
	}
	return &model.User{ID: uuid.NewString(), Username: in.Username, Role: model.RoleStaff}, nil
}

func (m *mockUsers) Login(ctx context.Context, in *userdto.LoginInput) (*userdto.LoginResult, error) {
	if in.Password != "rahasia" {
		return nil, model.ErrUnauthorized
	}
	return &userdto.LoginResult{Token: "tok", Role: model.RoleStaff, Username: in.Username}, nil
}

type testEnv struct {
	handler  http.Handler
	tokens   *auth.TokenManager
	products *mockProducts
	sales    *mockSales
	users    *mockUsers
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tr, err := i18n.New()
	require.NoError(t, err)
	assets, err := asset.NewLocalStore(filepath.Join(t.TempDir(), "uploads"), 1024, logger.NewNop())
	require.NoError(t, err)

	env := &testEnv{
		tokens:   auth.NewTokenManager("test-secret", time.Hour),
		products: &mockProducts{products: make(map[string]model.Product)},
		sales:    &mockSales{},
		users:    &mockUsers{},
	}
	env.handler = NewRouter(&App{
		Products:   env.products,
		Sales:      env.sales,
		Users:      env.users,
		Tokens:     env.tokens,
		Policy:     auth.NewPolicy([]string{"admin", "staff"}, []string{"admin"}),
		Assets:     assets,
		Translator: tr,
		Logger:     logger.NewNop(),
	})
	return env
}

func (e *testEnv) token(t *testing.T, role model.Role) string {
	t.Helper()
	raw, err := e.tokens.Issue(uuid.NewString(), role)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) jsonMessage {
	t.Helper()
	var m jsonMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)
	sale := map[string]any{"productId": uuid.NewString(), "quantity": 1}

	rec := env.do(http.MethodPost, "/api/transactions", "", sale)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decodeMessage(t, rec).Message)

	req := httptest.NewRequest(http.MethodDelete, "/api/products/"+uuid.NewString(), nil)
	req.Header.Set("Accept-Language", "id")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Autentikasi diperlukan", decodeMessage(t, rec).Message)

	rec = env.do(http.MethodPost, "/api/transactions", "garbage", sale)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/products", env.token(t, model.RoleStaff), map[string]any{"name": "Apple", "price": 10, "stock": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReadsAreOpen(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-Total-Count"))

	rec = env.do(http.MethodGet, "/api/transactions", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/products/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", "", map[string]any{"username": "kasir", "password": "rahasia"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created", decodeMessage(t, rec).Message)
	assert.Empty(t, env.users.lastRegister.CallerRole)

	rec = env.do(http.MethodPost, "/api/auth/register", env.token(t, model.RoleAdmin), map[string]any{"username": "boss2", "password": "rahasia", "role": "admin"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.RoleAdmin, env.users.lastRegister.CallerRole)

	rec = env.do(http.MethodPost, "/api/auth/register", "", map[string]any{"username": "taken", "password": "rahasia"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/register", "", `{"username":"x","password":"y","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]any{"username": "kasir", "password": "rahasia"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"tok","role":"staff","username":"kasir"}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]any{"username": "kasir", "password": "salah"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", decodeMessage(t, rec).Message)
}

func TestProductCRUD_JSON(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, model.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/products", admin, map[string]any{"name": "Apple", "price": "10.50", "stock": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Apple", created.Name)
	assert.True(t, decimal.RequireFromString("10.5").Equal(created.Price))

	rec = env.do(http.MethodPost, "/api/products", admin, map[string]any{"name": "Apple", "price": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMessage(t, rec).Details, "stock is required")

	rec = env.do(http.MethodPost, "/api/products", admin, map[string]any{"name": "Apple", "price": 1, "stock": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/products/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPut, "/api/products/"+created.ID, admin, map[string]any{"stock": 9})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, "Apple", updated.Name)

	rec = env.do(http.MethodDelete, "/api/products/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product deleted", decodeMessage(t, rec).Message)

	rec = env.do(http.MethodGet, "/api/products/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decodeMessage(t, rec).Message)
}

func multipartRequest(t *testing.T, method, path, token string, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestProductCreate_MultipartWithImage(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, model.RoleAdmin)

	req := multipartRequest(t, http.MethodPost, "/api/products", admin,
		map[string]string{"name": "Mango", "price": "12000", "stock": "7"}, "mango.jpg", []byte("jpeg"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.NotNil(t, p.ImageRef)
	assert.Equal(t, ".jpg", filepath.Ext(*p.ImageRef))

	rec = env.do(http.MethodGet, "/uploads/"+*p.ImageRef, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg", rec.Body.String())

	req = multipartRequest(t, http.MethodPost, "/api/products", admin,
		map[string]string{"name": "Mango", "price": "1", "stock": "1"}, "evil.php", []byte("<?php"))
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = multipartRequest(t, http.MethodPost, "/api/products", admin,
		map[string]string{"name": "Mango", "price": "1", "stock": "many"}, "", nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordSale(t *testing.T) {
	env := newTestEnv(t)
	staff := env.token(t, model.RoleStaff)
	productID := uuid.NewString()

	rec := env.do(http.MethodPost, "/api/transactions", staff, map[string]any{"productId": productID, "quantity": 3, "requestId": "r-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 3, env.sales.last.Quantity)
	assert.Equal(t, "r-1", env.sales.last.RequestID)
	assert.NotEmpty(t, env.sales.last.UserID)

	for _, body := range []string{
		fmt.Sprintf(`{"productId":%q,"quantity":2.5}`, productID),
		fmt.Sprintf(`{"productId":%q,"quantity":"3"}`, productID),
		fmt.Sprintf(`{"productId":%q}`, productID),
	} {
		rec = env.do(http.MethodPost, "/api/transactions", staff, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Quantity must be a positive integer", decodeMessage(t, rec).Message, body)
	}

	rec = env.do(http.MethodPost, "/api/transactions", staff, fmt.Sprintf(`{"productId":%q,"quantity":1,"price":1}`, productID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordSale_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	staff := env.token(t, model.RoleStaff)
	body := map[string]any{"productId": uuid.NewString(), "quantity": 1}

	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{model.ErrNotFound, http.StatusNotFound, "Product not found"},
		{model.ErrInsufficientStock, http.StatusBadRequest, "Insufficient stock"},
		{model.ErrInvalidQuantity, http.StatusBadRequest, "Quantity must be a positive integer"},
		{model.ErrDuplicateRequest, http.StatusConflict, "Duplicate request"},
		{fmt.Errorf("%w: timeout", model.ErrStorageUnavailable), http.StatusServiceUnavailable, "Service temporarily unavailable"},
		{errors.New("pq: secret detail"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		env.sales.err = tc.err
		rec := env.do(http.MethodPost, "/api/transactions", staff, body)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.msg, decodeMessage(t, rec).Message)
		assert.NotContains(t, rec.Body.String(), "secret detail")
	}
}

func TestTransactionsReads(t *testing.T) {
	env := newTestEnv(t)
	staff := env.token(t, model.RoleStaff)

	rec := env.do(http.MethodGet, "/api/transactions?productId=p-1&page=1&page_size=10", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	rec = env.do(http.MethodGet, "/api/transactions?page=-1", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/transactions/"+uuid.NewString(), staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Transaction not found", decodeMessage(t, rec).Message)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodOptions, "/api/transactions", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}
