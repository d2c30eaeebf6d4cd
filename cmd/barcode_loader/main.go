// Command barcode_loader imports barcodes from a spreadsheet into the barcode store
// and offers operator helpers for the schema and stored rows.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/barcodecheck/internal/barcode/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd, closeStore := newRootCmd(os.Stdout, os.Stderr, app.NewConnector)
	err := rootCmd.ExecuteContext(ctx)
	closeStore()
	if err != nil {
		os.Exit(1)
	}
}
