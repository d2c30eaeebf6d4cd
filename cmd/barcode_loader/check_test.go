package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/abgdnv/barcodecheck/internal/barcode/app"
	"github.com/abgdnv/barcodecheck/internal/barcode/store"
	"github.com/abgdnv/barcodecheck/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startBarcodeService serves the barcode gRPC API on a random local port.
func startBarcodeService(t *testing.T, seed ...string) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := app.SetupDependencies(store.NewMemoryConnector(seed...),
		config.BreakerConfig{Failures: 5, Timeout: time.Minute}, logger)
	srv := app.SetupGrpcServer(deps, false)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func Test_CheckCmd(t *testing.T) {
	addr := startBarcodeService(t, "4006381333931")

	testCases := []struct {
		name    string
		barcode string
		status  string
	}{
		{name: "known barcode", barcode: "4006381333931", status: "valid"},
		{name: "padded barcode", barcode: "  4006381333931 ", status: "valid"},
		{name: "unknown barcode", barcode: "0000", status: "invalid"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, "check", "--addr", addr, tc.barcode)

			require.NoError(t, err)
			assert.Regexp(t, `status:\s+`+tc.status, out)
		})
	}
}

func Test_CheckCmd_JSON(t *testing.T) {
	addr := startBarcodeService(t, "A1")

	out, err := execute(t, "check", "-o", "json", "--addr", addr, "A1")

	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"barcode": "A1", "status": "valid"}, got)
}

func Test_CheckCmd_Errors(t *testing.T) {
	t.Run("missing argument", func(t *testing.T) {
		_, err := execute(t, "check")
		assert.Error(t, err)
	})
	t.Run("service unreachable", func(t *testing.T) {
		_, err := execute(t, "check", "--addr", "127.0.0.1:1", "--retries", "1", "--timeout", "2s", "A1")
		assert.ErrorContains(t, err, "barcode check failed")
	})
	t.Run("store credentials are not required", func(t *testing.T) {
		addr := startBarcodeService(t)
		t.Chdir(t.TempDir())
		t.Setenv("BARCODE_DATABASE_DRIVER", "postgres")
		t.Setenv("BARCODE_DATABASE_USER", "")
		t.Setenv("BARCODE_DATABASE_PASSWORD", "")
		t.Setenv("RDS_USERNAME", "")
		t.Setenv("RDS_PASSWORD", "")

		var stdout, stderr bytes.Buffer
		cmd, closeStore := newRootCmd(&stdout, &stderr, app.NewConnector)
		defer closeStore()
		cmd.SetArgs([]string{"check", "--addr", addr, "A1"})

		require.NoError(t, cmd.ExecuteContext(context.Background()))
		assert.Regexp(t, `status:\s+invalid`, stdout.String())
	})
}
