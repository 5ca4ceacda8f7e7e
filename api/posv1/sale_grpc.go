package posv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	SaleService_RecordSale_FullMethodName       = "/pos.v1.SaleService/RecordSale"
	SaleService_ListTransactions_FullMethodName = "/pos.v1.SaleService/ListTransactions"
)

type SaleServiceClient interface {
	RecordSale(ctx context.Context, in *RecordSaleRequest, opts ...grpc.CallOption) (*Transaction, error)
	ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error)
}

type saleServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSaleServiceClient(cc grpc.ClientConnInterface) SaleServiceClient {
	return &saleServiceClient{cc}
}

func (c *saleServiceClient) RecordSale(ctx context.Context, in *RecordSaleRequest, opts ...grpc.CallOption) (*Transaction, error) {
	out := new(Transaction)
	if err := c.cc.Invoke(ctx, SaleService_RecordSale_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *saleServiceClient) ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsResponse, error) {
	out := new(ListTransactionsResponse)
	if err := c.cc.Invoke(ctx, SaleService_ListTransactions_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type SaleServiceServer interface {
	RecordSale(context.Context, *RecordSaleRequest) (*Transaction, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error)
	mustEmbedUnimplementedSaleServiceServer()
}

type UnimplementedSaleServiceServer struct{}

func (UnimplementedSaleServiceServer) RecordSale(context.Context, *RecordSaleRequest) (*Transaction, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordSale not implemented")
}

func (UnimplementedSaleServiceServer) ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListTransactions not implemented")
}

func (UnimplementedSaleServiceServer) mustEmbedUnimplementedSaleServiceServer() {}

func RegisterSaleServiceServer(s grpc.ServiceRegistrar, srv SaleServiceServer) {
	s.RegisterService(&SaleService_ServiceDesc, srv)
}

func _SaleService_RecordSale_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RecordSaleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SaleServiceServer).RecordSale(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SaleService_RecordSale_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SaleServiceServer).RecordSale(ctx, req.(*RecordSaleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SaleService_ListTransactions_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListTransactionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SaleServiceServer).ListTransactions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SaleService_ListTransactions_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SaleServiceServer).ListTransactions(ctx, req.(*ListTransactionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var SaleService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "pos.v1.SaleService",
	HandlerType: (*SaleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RecordSale", Handler: _SaleService_RecordSale_Handler},
		{MethodName: "ListTransactions", Handler: _SaleService_ListTransactions_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pos/v1/sale.proto",
}
