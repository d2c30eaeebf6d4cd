// Package grpc provides a gRPC server for the barcode check.
package grpc

import (
	"context"
	"errors"
	"log/slog"

	pb "github.com/abgdnv/barcodecheck/internal/barcode/api/barcodev1"
	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
	"github.com/abgdnv/barcodecheck/internal/barcode/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Server struct {
	checker service.BarcodeChecker
	logger  *slog.Logger
}

func NewServer(checker service.BarcodeChecker, logger *slog.Logger) *Server {
	return &Server{checker: checker, logger: logger.With("component", "grpc")}
}

var _ pb.BarcodeServiceServer = (*Server)(nil)

func (s *Server) Check(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	res := s.checker.Check(ctx, req.GetValue())
	switch res.Status {
	case service.StatusValid:
		return wrapperspb.String(pb.StatusValid), nil
	case service.StatusInvalid:
		return wrapperspb.String(pb.StatusInvalid), nil
	}
	if errors.Is(res.Cause, berrors.ErrStoreUnavailable) {
		s.logger.ErrorContext(ctx, "Store unavailable for gRPC check", "error", res.Cause)
		return nil, status.Error(codes.Unavailable, "could not connect to the database")
	}
	s.logger.ErrorContext(ctx, "Query failed for gRPC check", "error", res.Cause)
	return nil, status.Error(codes.Internal, "an error occurred while querying the database")
}
