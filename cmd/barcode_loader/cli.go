package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/abgdnv/barcodecheck/internal/barcode/service"
	"github.com/abgdnv/barcodecheck/internal/barcode/source"
	"github.com/abgdnv/barcodecheck/internal/barcode/store"
	"github.com/abgdnv/barcodecheck/internal/config"
	"github.com/abgdnv/barcodecheck/internal/platform/bootstrap"
	"github.com/spf13/cobra"
)

// annotationNoStore marks commands that never touch the barcode store.
const annotationNoStore = "no-store"

// connectorFactory builds the store connector from the database configuration.
type connectorFactory func(config.DatabaseConfig) (store.Connector, error)

// runtime holds what every subcommand needs, built once in PersistentPreRunE.
type runtime struct {
	cfg          config.LoaderConfig
	logger       *slog.Logger
	newConnector connectorFactory
	connector    store.Connector
	out          *printer
}

// close releases the store connector, if one was opened. Safe to call more than once.
func (rt *runtime) close() {
	if rt.connector != nil {
		rt.connector.Close()
		rt.connector = nil
	}
}

// newRootCmd builds the command tree. The returned func closes the store connector
// and must run after Execute, whether or not the command failed.
func newRootCmd(stdout, stderr io.Writer, newConnector connectorFactory) (*cobra.Command, func()) {
	rt := &runtime{newConnector: newConnector}

	rootCmd := &cobra.Command{
		Use:           "barcode_loader",
		Short:         "Bulk-load barcodes into the barcode store",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadLoader(configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			rt.cfg = cfg
			rt.logger = bootstrap.NewLoggerTo(stderr, cfg.Log.Level, cfg.Log.Format)
			rt.logger.Debug("Configuration loaded", "config", cfg.String())
			rt.out = newPrinter(stdout, outputFormat(cmd))
			if cmd.Annotations[annotationNoStore] == "true" {
				return nil
			}

			connector, err := rt.newConnector(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to create barcode store connector: %w", err)
			}
			rt.connector = connector
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().String("config", "", "path to the yaml config file (default config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	rootCmd.AddCommand(
		newLoadCmd(rt),
		newSchemaCmd(rt),
		newPeekCmd(rt),
		newCheckCmd(rt),
	)
	return rootCmd, rt.close
}

func newLoadCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Merge the barcodes of a spreadsheet column into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := service.RunParams{
				Path:    flagOr(cmd, "file", rt.cfg.Source.File),
				Section: flagOr(cmd, "sheet", rt.cfg.Source.Sheet),
				Column:  flagOr(cmd, "column", rt.cfg.Source.Column),
			}
			if params.Path == "" {
				return fmt.Errorf("no source file: pass --file or set source.file")
			}
			// the configured sheet names a workbook sheet; a CSV file has just one section
			if !cmd.Flags().Changed("sheet") && source.SingleSection(params.Path) {
				params.Section = ""
			}

			report, err := service.NewLoader(rt.connector, rt.logger).Run(cmd.Context(), params)
			if err != nil {
				return err
			}
			if rt.out.format == "json" {
				return rt.out.json(report)
			}
			rt.out.kv([][2]string{
				{"attempted", strconv.Itoa(report.Attempted)},
				{"inserted", strconv.Itoa(report.Inserted)},
				{"skipped", strconv.Itoa(report.Skipped)},
			})
			return nil
		},
	}
	cmd.Flags().String("file", "", "spreadsheet to import (.xlsx, .xlsm or .csv)")
	cmd.Flags().String("sheet", "", "sheet holding the barcodes (default from source.sheet; a CSV file has a single section)")
	cmd.Flags().String("column", "", "header of the barcode column (default from source.column)")
	return cmd
}

func newSchemaCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the barcode table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := service.NewLoader(rt.connector, rt.logger).EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(rt.out.w, "schema is up to date")
			return err
		},
	}
}

func newPeekCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peek",
		Short: "List the first stored barcodes and the total count",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt32("limit")
			if limit <= 0 {
				return fmt.Errorf("--limit must be greater than 0")
			}

			conn, err := rt.connector.Connect(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to connect to barcode store: %w", err)
			}
			defer conn.Release()

			list, err := conn.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			total, err := conn.Count(cmd.Context())
			if err != nil {
				return err
			}

			if rt.out.format == "json" {
				return rt.out.json(map[string]any{"total": total, "barcodes": list})
			}
			rows := make([][]string, 0, len(list))
			for _, b := range list {
				rows = append(rows, []string{strconv.FormatInt(b.ID, 10), b.Value, b.CreatedAt.Format(time.RFC3339)})
			}
			rt.out.table([]string{"ID", "BARCODE", "CREATED_AT"}, rows)
			_, err = fmt.Fprintf(rt.out.w, "total: %d\n", total)
			return err
		},
	}
	cmd.Flags().Int32("limit", 10, "number of rows to show")
	return cmd
}

// flagOr returns the flag value when it was set on the command line, fallback otherwise.
func flagOr(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// outputFormat returns "json" or "table" from the --output flag.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	if f == "json" {
		return "json"
	}
	return "table"
}
