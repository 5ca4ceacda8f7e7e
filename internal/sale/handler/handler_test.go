package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/fekuna/omnipos-retail-service/api/posv1"
	"github.com/fekuna/omnipos-retail-service/internal/auth"
	"github.com/fekuna/omnipos-retail-service/internal/model"
	"github.com/fekuna/omnipos-retail-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-retail-service/internal/sale/dto"
)

type mockUseCase struct {
	last  *dto.RecordSaleInput
	err   error
	items []model.Transaction
}

func (m *mockUseCase) RecordSale(ctx context.Context, in *dto.RecordSaleInput) (*model.Transaction, error) {
	m.last = in
	if m.err != nil {
		return nil, m.err
	}
	by := in.UserID
	return &model.Transaction{
		ID:                  uuid.NewString(),
		ProductID:           in.ProductID,
		ProductNameSnapshot: "Apple",
		Quantity:            in.Quantity,
		UnitPrice:           decimal.NewFromInt(10),
		TotalAmount:         decimal.NewFromInt(int64(10 * in.Quantity)),
		CreatedBy:           &by,
		OccurredAt:          time.Now().UTC(),
	}, nil
}

func (m *mockUseCase) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	return nil, model.ErrNotFound
}

func (m *mockUseCase) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.Transaction, int, error) {
	return m.items, len(m.items), nil
}

func startServer(t *testing.T, uc *mockUseCase) (posv1.SaleServiceClient, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	policy := auth.NewPolicy([]string{"admin", "staff"}, []string{"admin"})

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(posv1.ServerOption(), grpc.UnaryInterceptor(auth.UnaryServerInterceptor(tokens)))
	posv1.RegisterSaleServiceServer(srv, NewSaleHandler(uc, policy, logger.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		posv1.DialOption(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return posv1.NewSaleServiceClient(conn), tokens
}

func withToken(t *testing.T, tokens *auth.TokenManager, userID string, role model.Role) context.Context {
	t.Helper()
	raw, err := tokens.Issue(userID, role)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+raw)
}

func TestRecordSale_OverGRPC(t *testing.T) {
	uc := &mockUseCase{}
	client, tokens := startServer(t, uc)
	seller := uuid.NewString()
	productID := uuid.NewString()

	trx, err := client.RecordSale(withToken(t, tokens, seller, model.RoleStaff), &posv1.RecordSaleRequest{
		ProductID: productID,
		Quantity:  3,
		RequestID: "req-1",
	})
	require.NoError(t, err)
	assert.Equal(t, productID, trx.ProductID)
	assert.Equal(t, "30.00", trx.TotalAmount)
	assert.Equal(t, "10.00", trx.UnitPrice)
	assert.Equal(t, seller, trx.CreatedBy)

	require.NotNil(t, uc.last)
	assert.Equal(t, seller, uc.last.UserID)
	assert.Equal(t, "req-1", uc.last.RequestID)
}

func TestRecordSale_ErrorCodes(t *testing.T) {
	uc := &mockUseCase{}
	client, tokens := startServer(t, uc)
	req := &posv1.RecordSaleRequest{ProductID: uuid.NewString(), Quantity: 1}

	_, err := client.RecordSale(context.Background(), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	cases := map[error]codes.Code{
		model.ErrInsufficientStock:  codes.FailedPrecondition,
		model.ErrNotFound:           codes.NotFound,
		model.ErrInvalidQuantity:    codes.InvalidArgument,
		model.ErrDuplicateRequest:   codes.AlreadyExists,
		model.ErrStorageUnavailable: codes.Unavailable,
	}
	ctx := withToken(t, tokens, uuid.NewString(), model.RoleAdmin)
	for e, want := range cases {
		uc.err = e
		_, err := client.RecordSale(ctx, req)
		assert.Equal(t, want, status.Code(err), e.Error())
	}
}

func TestRecordSale_RoleNotAllowed(t *testing.T) {
	uc := &mockUseCase{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	h := NewSaleHandler(uc, auth.NewPolicy([]string{"admin"}, []string{"admin"}), logger.NewNop())

	u, err := tokens.Parse(mustIssue(t, tokens, model.RoleStaff))
	require.NoError(t, err)
	_, err = h.RecordSale(auth.WithUser(context.Background(), u), &posv1.RecordSaleRequest{ProductID: uuid.NewString(), Quantity: 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Nil(t, uc.last)
}

func mustIssue(t *testing.T, tokens *auth.TokenManager, role model.Role) string {
	t.Helper()
	raw, err := tokens.Issue(uuid.NewString(), role)
	require.NoError(t, err)
	return raw
}

func TestListTransactions_OverGRPC(t *testing.T) {
	uc := &mockUseCase{items: []model.Transaction{
		{ID: "t2", ProductID: "p", Quantity: 2, UnitPrice: decimal.NewFromInt(5), TotalAmount: decimal.NewFromInt(10)},
		{ID: "t1", ProductID: "p", Quantity: 1, UnitPrice: decimal.NewFromInt(5), TotalAmount: decimal.NewFromInt(5)},
	}}
	client, tokens := startServer(t, uc)

	res, err := client.ListTransactions(withToken(t, tokens, uuid.NewString(), model.RoleStaff), &posv1.ListTransactionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "t2", res.Transactions[0].ID)
	assert.Empty(t, res.Transactions[0].CreatedBy)
}
