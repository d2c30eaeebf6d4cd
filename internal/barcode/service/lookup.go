// Package service provides barcode lookup and bulk-load logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
	"github.com/abgdnv/barcodecheck/internal/barcode/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sony/gobreaker/v2"
)

// Status is the outcome of a barcode check.
type Status int

const (
	StatusError Status = iota
	StatusValid
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "Valid"
	case StatusInvalid:
		return "Invalid"
	default:
		return "Error"
	}
}

// Result is the tri-state answer of Check. Cause is set only for StatusError and
// wraps either ErrStoreUnavailable or ErrQueryFailed.
type Result struct {
	Status Status
	Cause  error
}

// BarcodeChecker classifies candidate barcodes against the barcode set.
type BarcodeChecker interface {
	// Check never fails: store problems are reported as a StatusError result.
	Check(ctx context.Context, candidate string) Result
}

// BreakerConfig configures the circuit breaker around store access.
type BreakerConfig struct {
	// ConsecutiveFailures opens the breaker once exceeded.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

// LookupService implements BarcodeChecker. It holds no cache, every check queries the store.
type LookupService struct {
	connector store.Connector
	breaker   *gobreaker.CircuitBreaker[bool]
	metrics   *Metrics
	logger    *slog.Logger
}

// NewLookupService creates a LookupService. metrics may be nil.
func NewLookupService(connector store.Connector, cb BreakerConfig, metrics *Metrics, logger *slog.Logger) *LookupService {
	logger = logger.With("component", "lookup")
	st := gobreaker.Settings{
		Name:        "barcode-store",
		MaxRequests: 1,
		Timeout:     cb.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cb.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.breakerState(to)
		},
		IsSuccessful: storeHealthy,
	}
	return &LookupService{
		connector: connector,
		breaker:   gobreaker.NewCircuitBreaker[bool](st),
		metrics:   metrics,
		logger:    logger,
	}
}

// Check trims candidate and looks it up. Blank candidates, and candidates no text column
// could hold, are Invalid without a store round trip.
func (s *LookupService) Check(ctx context.Context, candidate string) (res Result) {
	start := time.Now()
	defer func() {
		if rvr := recover(); rvr != nil {
			s.logger.ErrorContext(ctx, "Panic during barcode lookup", "panic", rvr)
			res = Result{Status: StatusError, Cause: fmt.Errorf("%w: panic: %v", berrors.ErrQueryFailed, rvr)}
		}
		s.metrics.observe(res, time.Since(start))
	}()

	barcode := strings.TrimSpace(candidate)
	if !storable(barcode) {
		return Result{Status: StatusInvalid}
	}

	found, err := s.breaker.Execute(func() (bool, error) {
		return s.exists(ctx, barcode)
	})
	if err != nil {
		return s.classify(ctx, barcode, err)
	}
	if found {
		return Result{Status: StatusValid}
	}
	return Result{Status: StatusInvalid}
}

// storable reports whether barcode could be in the set at all. Text columns cannot
// hold NUL bytes or invalid UTF-8, so such candidates are never stored.
func storable(barcode string) bool {
	return barcode != "" && utf8.ValidString(barcode) && !strings.ContainsRune(barcode, 0)
}

// storeHealthy tells the breaker which errors say nothing about the store itself.
// A client going away, or a value the database rejects as data (SQLSTATE class
// 22 data exception, 23 constraint violation, 42 syntax or access rule), leaves
// the breaker untouched.
func storeHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23", "42":
			return true
		}
	}
	return false
}

// exists runs one scoped store round trip. The connection is released on every path.
func (s *LookupService) exists(ctx context.Context, barcode string) (bool, error) {
	conn, err := s.connector.Connect(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()
	return conn.Exists(ctx, barcode)
}

func (s *LookupService) classify(ctx context.Context, barcode string, err error) Result {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		s.logger.WarnContext(ctx, "Store circuit open, lookup rejected", "barcode", barcode)
		return Result{Status: StatusError, Cause: fmt.Errorf("%w: %w", berrors.ErrStoreUnavailable, err)}
	case errors.Is(err, berrors.ErrConnection):
		s.logger.ErrorContext(ctx, "Could not connect to the barcode store", "barcode", barcode, "error", err)
		return Result{Status: StatusError, Cause: fmt.Errorf("%w: %w", berrors.ErrStoreUnavailable, err)}
	default:
		s.logger.ErrorContext(ctx, "Barcode query failed", "barcode", barcode, "error", err)
		return Result{Status: StatusError, Cause: fmt.Errorf("%w: %w", berrors.ErrQueryFailed, err)}
	}
}
