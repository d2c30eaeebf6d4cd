// Package barcodev1 describes the barcode.v1.BarcodeService gRPC API. Messages are
// the well-known wrapper types, so no generated message code is needed.
package barcodev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName               = "barcode.v1.BarcodeService"
	BarcodeService_Check_Name = "/barcode.v1.BarcodeService/Check"

	StatusValid   = "valid"
	StatusInvalid = "invalid"
)

// BarcodeServiceClient is the client API for BarcodeService.
type BarcodeServiceClient interface {
	// Check returns "valid" or "invalid" for the barcode in the request.
	Check(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type barcodeServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBarcodeServiceClient(cc grpc.ClientConnInterface) BarcodeServiceClient {
	return &barcodeServiceClient{cc}
}

func (c *barcodeServiceClient) Check(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, BarcodeService_Check_Name, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// BarcodeServiceServer is the server API for BarcodeService.
type BarcodeServiceServer interface {
	Check(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

func RegisterBarcodeServiceServer(s grpc.ServiceRegistrar, srv BarcodeServiceServer) {
	s.RegisterService(&BarcodeService_ServiceDesc, srv)
}

func _BarcodeService_Check_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BarcodeServiceServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: BarcodeService_Check_Name,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BarcodeServiceServer).Check(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// BarcodeService_ServiceDesc is the grpc.ServiceDesc for BarcodeService.
var BarcodeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BarcodeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Check",
			Handler:    _BarcodeService_Check_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "barcode/v1/barcode.proto",
}
