package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
)

var errValueTooLong = errors.New("value too long for barcode column")
var errBlankValue = errors.New("barcode must not be blank")

// MemoryConnector implements Connector using an in-memory map.
// It enforces the same column constraints as the PostgreSQL schema.
type MemoryConnector struct {
	mu       sync.RWMutex
	barcodes map[string]Barcode
	nextID   int64
	closed   bool
}

// NewMemoryConnector creates an in-memory barcode set holding the given barcodes.
func NewMemoryConnector(seed ...string) *MemoryConnector {
	m := &MemoryConnector{
		barcodes: make(map[string]Barcode),
		nextID:   1,
	}
	for _, b := range seed {
		m.insert(b)
	}
	return m
}

// Connect returns a connection unless ctx is done or the connector is closed.
func (m *MemoryConnector) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", berrors.ErrConnection, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, fmt.Errorf("%w: connector closed", berrors.ErrConnection)
	}
	return &memConn{store: m}, nil
}

// EnsureSchema is a no-op, the map always exists.
func (m *MemoryConnector) EnsureSchema(_ context.Context) error {
	return nil
}

// Close makes further Connect calls fail. Stored barcodes are kept.
func (m *MemoryConnector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// Len returns the number of stored barcodes.
func (m *MemoryConnector) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.barcodes)
}

// insert adds b if absent. Caller must hold the write lock or own m exclusively.
func (m *MemoryConnector) insert(b string) bool {
	if _, exists := m.barcodes[b]; exists {
		return false
	}
	m.barcodes[b] = Barcode{ID: m.nextID, Value: b, CreatedAt: time.Now()}
	m.nextID++
	return true
}

// memConn is a connection to a MemoryConnector.
type memConn struct {
	store    *MemoryConnector
	released bool
}

func (c *memConn) Exists(_ context.Context, barcode string) (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	_, ok := c.store.barcodes[barcode]
	return ok, nil
}

func (c *memConn) Count(_ context.Context) (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	return int64(c.store.Len()), nil
}

func (c *memConn) List(_ context.Context, limit int32) ([]Barcode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	c.store.mu.RLock()
	list := make([]Barcode, 0, len(c.store.barcodes))
	for _, b := range c.store.barcodes {
		list = append(list, b)
	}
	c.store.mu.RUnlock()

	slices.SortFunc(list, func(a, b Barcode) int { return cmp.Compare(a.ID, b.ID) })
	if limit >= 0 && int(limit) < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// Merge validates every candidate before touching the map, so a failing row leaves the set unchanged.
func (c *memConn) Merge(ctx context.Context, barcodes []string) (MergeReport, error) {
	report := MergeReport{Attempted: len(barcodes)}
	if err := c.checkOpen(); err != nil {
		return report, err
	}
	for i, b := range barcodes {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w: %w", berrors.ErrQuery, err)
		}
		if err := checkColumn(b); err != nil {
			return report, fmt.Errorf("%w: %w", berrors.ErrQuery, &RowError{Row: i, Barcode: b, Err: err})
		}
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	for _, b := range barcodes {
		if c.store.insert(b) {
			report.Inserted++
			continue
		}
		report.addDuplicate(b)
	}
	report.Skipped = report.Attempted - report.Inserted
	return report, nil
}

func (c *memConn) Release() {
	if c != nil {
		c.released = true
	}
}

func (c *memConn) checkOpen() error {
	if c == nil || c.released {
		return fmt.Errorf("%w: connection already released", berrors.ErrQuery)
	}
	return nil
}

func checkColumn(b string) error {
	if utf8.RuneCountInString(b) > MaxBarcodeLength {
		return errValueTooLong
	}
	if strings.TrimSpace(b) == "" {
		return errBlankValue
	}
	return nil
}
