package service

import (
	"context"

	"github.com/abgdnv/barcodecheck/internal/barcode/store"
)

// mockConnector is a mock implementation of the store.Connector interface
type mockConnector struct {
	conn         *mockConn
	connectErr   error
	schemaErr    error
	connectCalls int
	schemaCalls  int
}

func (m *mockConnector) Connect(_ context.Context) (store.Conn, error) {
	m.connectCalls++
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	return m.conn, nil
}

func (m *mockConnector) EnsureSchema(_ context.Context) error {
	m.schemaCalls++
	return m.schemaErr
}

func (m *mockConnector) Close() {}

// mockConn is a mock implementation of the store.Conn interface
type mockConn struct {
	found     bool
	existsErr error
	queried   []string
	merged    []string
	report    store.MergeReport
	mergeErr  error
	released  int
	panicMsg  string
}

func (m *mockConn) Exists(_ context.Context, barcode string) (bool, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.queried = append(m.queried, barcode)
	return m.found, m.existsErr
}

func (m *mockConn) Count(_ context.Context) (int64, error) {
	return 0, nil
}

func (m *mockConn) List(_ context.Context, _ int32) ([]store.Barcode, error) {
	return nil, nil
}

func (m *mockConn) Merge(_ context.Context, barcodes []string) (store.MergeReport, error) {
	m.merged = barcodes
	return m.report, m.mergeErr
}

func (m *mockConn) Release() {
	m.released++
}
