// Package store provides access to the persistent barcode set.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// MaxBarcodeLength mirrors the width of the barcodes.barcode column.
const MaxBarcodeLength = 255

// Connector hands out connections to the barcode set.
// Every connection returned by Connect must be released by the caller.
type Connector interface {
	// Connect acquires a connection, bounded by the configured connect timeout.
	// Returns ErrConnection if the store cannot be reached.
	Connect(ctx context.Context) (Conn, error)

	// EnsureSchema creates the barcode set if it does not exist yet.
	// Calling it against an existing schema is a no-op that keeps the data.
	EnsureSchema(ctx context.Context) error

	// Close releases all resources held by the connector.
	Close()
}

// Conn is a single connection to the barcode set. It must not be shared between goroutines.
type Conn interface {
	// Exists reports whether the barcode is present (exact, case-sensitive match).
	// Returns ErrQuery if the query fails.
	Exists(ctx context.Context, barcode string) (bool, error)

	// Count returns the number of stored barcodes.
	Count(ctx context.Context) (int64, error)

	// List returns up to limit stored barcodes ordered by insertion.
	List(ctx context.Context, limit int32) ([]Barcode, error)

	// Merge inserts the barcodes that are not present yet, in a single transaction.
	// Duplicates are skipped. Any other failure rolls the whole merge back.
	Merge(ctx context.Context, barcodes []string) (MergeReport, error)

	// Release returns the connection. It is safe to call more than once.
	Release()
}

// Barcode is a stored barcode row. ID carries no meaning outside the store.
type Barcode struct {
	ID        int64     `json:"id"`
	Value     string    `json:"barcode"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxReportedDuplicates caps MergeReport.Duplicates. Skipped always holds the full count.
const MaxReportedDuplicates = 20

// MergeReport summarizes a committed merge. Duplicates lists the first
// MaxReportedDuplicates candidates that were already stored.
type MergeReport struct {
	Attempted  int      `json:"attempted"`
	Inserted   int      `json:"inserted"`
	Skipped    int      `json:"skipped"`
	Duplicates []string `json:"duplicates,omitempty"`
}

func (r *MergeReport) addDuplicate(barcode string) {
	if len(r.Duplicates) < MaxReportedDuplicates {
		r.Duplicates = append(r.Duplicates, barcode)
	}
}

// RowError identifies the candidate that aborted a merge.
type RowError struct {
	Row     int
	Barcode string
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (%q): %v", e.Row, e.Barcode, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Code returns the SQLSTATE of the underlying database error, if any.
func (e *RowError) Code() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Release releases c if it is not nil. Use it where a connection may never have been opened.
func Release(c Conn) {
	if c != nil {
		c.Release()
	}
}
