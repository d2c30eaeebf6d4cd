package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
	"github.com/abgdnv/barcodecheck/internal/barcode/source"
	"github.com/abgdnv/barcodecheck/internal/barcode/store"
)

// Loader merges barcodes from tabular sources into the barcode set.
// Only one loader may run against a store at a time; concurrent runs are not coordinated.
type Loader struct {
	connector store.Connector
	logger    *slog.Logger
}

// RunParams names the file, the section and the column to import.
type RunParams struct {
	Path    string
	Section string
	Column  string
}

// NewLoader creates a Loader writing through connector.
func NewLoader(connector store.Connector, logger *slog.Logger) *Loader {
	return &Loader{
		connector: connector,
		logger:    logger.With("component", "loader"),
	}
}

// EnsureSchema creates the barcode set if it is missing. Safe to call on every run.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	if err := l.connector.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure barcode schema: %w", err)
	}
	l.logger.InfoContext(ctx, "Barcode schema is ready")
	return nil
}

// Load reads column from section and returns the normalized, deduplicated candidates
// in first-seen order.
func (l *Loader) Load(src source.Source, section, column string) ([]string, error) {
	cells, err := src.Column(section, column)
	if err != nil {
		return nil, err
	}
	candidates := Normalize(cells)
	l.logger.Info("Candidates loaded",
		"section", section,
		"column", column,
		"rows", len(cells),
		"unique", len(candidates))
	return candidates, nil
}

// Merge inserts the candidates that are not stored yet. Candidates are normalized again,
// so Attempted counts distinct non-blank values. On failure nothing is committed and the
// error wraps ErrMergeFailed.
func (l *Loader) Merge(ctx context.Context, conn store.Conn, candidates []string) (store.MergeReport, error) {
	candidates = normalizeStrings(candidates)
	start := time.Now()

	report, err := conn.Merge(ctx, candidates)
	if err != nil {
		attrs := []any{"attempted", len(candidates), "error", err}
		var rowErr *store.RowError
		if errors.As(err, &rowErr) {
			attrs = append(attrs, "row", rowErr.Row, "barcode", rowErr.Barcode, "sqlstate", rowErr.Code())
		}
		l.logger.ErrorContext(ctx, "Merge failed, nothing was committed", attrs...)
		return store.MergeReport{Attempted: len(candidates)},
			fmt.Errorf("%w: %d candidates rolled back: %w", berrors.ErrMergeFailed, len(candidates), err)
	}

	l.logger.InfoContext(ctx, "Merge committed",
		"attempted", report.Attempted,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"duration_ms", float64(time.Since(start).Nanoseconds())/1e6)
	if len(report.Duplicates) > 0 {
		l.logger.DebugContext(ctx, "Barcodes already present", "barcodes", report.Duplicates)
	}
	return report, nil
}

// Run imports one file: read and normalize, ensure the schema, then merge over a
// single connection that is released on every path. The source is read first so a
// bad file never touches the store.
func (l *Loader) Run(ctx context.Context, p RunParams) (store.MergeReport, error) {
	logger := l.logger.With("file", p.Path, "section", p.Section, "column", p.Column)
	logger.InfoContext(ctx, "Bulk load started")

	src, err := source.Open(p.Path)
	if err != nil {
		return store.MergeReport{}, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("Failed to close source", "error", err)
		}
	}()

	candidates, err := l.Load(src, p.Section, p.Column)
	if err != nil {
		return store.MergeReport{}, err
	}

	if err := l.EnsureSchema(ctx); err != nil {
		return store.MergeReport{}, err
	}

	conn, err := l.connector.Connect(ctx)
	if err != nil {
		return store.MergeReport{}, fmt.Errorf("failed to connect to barcode store: %w", err)
	}
	defer conn.Release()

	return l.Merge(ctx, conn, candidates)
}

// Normalize drops null and blank cells, trims the rest and removes exact duplicates,
// keeping the first occurrence.
func Normalize(cells []source.Cell) []string {
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		if c.Null {
			continue
		}
		values = append(values, c.Value)
	}
	return normalizeStrings(values)
}

func normalizeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
