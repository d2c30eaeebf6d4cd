package main

import (
	"context"
	"fmt"
	"time"

	pb "github.com/abgdnv/barcodecheck/internal/barcode/api/barcodev1"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// newCheckCmd asks a running barcode service, over gRPC, whether a barcode is known.
func newCheckCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "check <barcode>",
		Short:       "Check a barcode against a running barcode service",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			attempts, _ := cmd.Flags().GetUint("retries")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			conn, err := grpc.NewClient(addr,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
				grpc.WithUnaryInterceptor(retry.UnaryClientInterceptor(
					retry.WithCodes(codes.Unavailable),
					retry.WithMax(attempts),
					retry.WithBackoff(retry.BackoffExponential(100*time.Millisecond)),
				)),
			)
			if err != nil {
				return fmt.Errorf("failed to create gRPC client for %s: %w", addr, err)
			}
			defer func() { _ = conn.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			res, err := pb.NewBarcodeServiceClient(conn).Check(ctx, wrapperspb.String(args[0]))
			if err != nil {
				return fmt.Errorf("barcode check failed: %w", err)
			}

			if rt.out.format == "json" {
				return rt.out.json(map[string]string{"barcode": args[0], "status": res.GetValue()})
			}
			rt.out.kv([][2]string{
				{"barcode", args[0]},
				{"status", res.GetValue()},
			})
			return nil
		},
	}
	cmd.Flags().String("addr", "localhost:9090", "gRPC address of the barcode service")
	cmd.Flags().Uint("retries", 3, "attempts while the service is unavailable")
	cmd.Flags().Duration("timeout", 10*time.Second, "overall deadline for the check")
	return cmd
}
