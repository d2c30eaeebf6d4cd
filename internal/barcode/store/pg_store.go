package store

import (
	"context"
	"fmt"
	"time"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	existsQuery = `SELECT EXISTS (SELECT 1 FROM barcodes WHERE barcode = $1)`
	countQuery  = `SELECT count(*) FROM barcodes`
	listQuery   = `SELECT id, barcode, created_at FROM barcodes ORDER BY id LIMIT $1`
	insertQuery = `INSERT INTO barcodes (barcode) VALUES ($1) ON CONFLICT (barcode) DO NOTHING`
)

// PgConnector implements Connector on top of a PostgreSQL connection pool.
type PgConnector struct {
	pool       *pgxpool.Pool
	cfg        ConnConfig
	migrateURL string
}

// NewPgConnector validates cfg and prepares a lazily connecting pool.
// No network call is made here: missing credentials fail with ErrConfig and
// a malformed port with ErrConnection.
func NewPgConnector(cfg ConnConfig) (*PgConnector, error) {
	cfg = cfg.withDefaults()
	port, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.url("postgres", port))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", berrors.ErrConfig, err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	poolCfg.MinConns = 0
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", berrors.ErrConnection, err)
	}
	return &PgConnector{
		pool:       pool,
		cfg:        cfg,
		migrateURL: cfg.url("pgx5", port),
	}, nil
}

// Connect acquires a pooled connection within the connect timeout.
func (p *PgConnector) Connect(ctx context.Context) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	defer cancel()

	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", berrors.ErrConnection, err)
	}
	return &pgConn{
		conn:         c,
		queryTimeout: p.cfg.QueryTimeout,
		batchSize:    p.cfg.BatchSize,
	}, nil
}

// Ping checks that the store is reachable.
func (p *PgConnector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", berrors.ErrConnection, err)
	}
	return nil
}

// Close closes the pool.
func (p *PgConnector) Close() {
	p.pool.Close()
}

// pgConn is a pooled connection. After Release every operation fails with ErrQuery.
type pgConn struct {
	conn         *pgxpool.Conn
	queryTimeout time.Duration
	batchSize    int
}

func (c *pgConn) Exists(ctx context.Context, barcode string) (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	ctx, cancel := c.withQueryTimeout(ctx)
	defer cancel()

	var found bool
	if err := c.conn.QueryRow(ctx, existsQuery, barcode).Scan(&found); err != nil {
		return false, fmt.Errorf("%w: exists: %w", berrors.ErrQuery, err)
	}
	return found, nil
}

func (c *pgConn) Count(ctx context.Context) (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	ctx, cancel := c.withQueryTimeout(ctx)
	defer cancel()

	var n int64
	if err := c.conn.QueryRow(ctx, countQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %w", berrors.ErrQuery, err)
	}
	return n, nil
}

func (c *pgConn) List(ctx context.Context, limit int32) ([]Barcode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	ctx, cancel := c.withQueryTimeout(ctx)
	defer cancel()

	rows, err := c.conn.Query(ctx, listQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", berrors.ErrQuery, err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Barcode])
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", berrors.ErrQuery, err)
	}
	return list, nil
}

// Merge runs all inserts in one transaction, batchSize statements per round trip.
// No query timeout applies here: a merge is an offline job bounded by ctx only.
func (c *pgConn) Merge(ctx context.Context, barcodes []string) (MergeReport, error) {
	report := MergeReport{Attempted: len(barcodes)}
	if err := c.checkOpen(); err != nil {
		return report, err
	}
	if len(barcodes) == 0 {
		return report, nil
	}

	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: begin transaction: %w", berrors.ErrQuery, err)
	}
	// no-op once committed
	defer func() { _ = tx.Rollback(ctx) }()

	for start := 0; start < len(barcodes); start += c.batchSize {
		end := min(start+c.batchSize, len(barcodes))
		if err := insertBatch(ctx, tx, barcodes[start:end], start, &report); err != nil {
			return MergeReport{Attempted: report.Attempted}, fmt.Errorf("%w: %w", berrors.ErrQuery, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return MergeReport{Attempted: report.Attempted}, fmt.Errorf("%w: commit: %w", berrors.ErrQuery, err)
	}
	report.Skipped = report.Attempted - report.Inserted
	return report, nil
}

// insertBatch sends one batch of inserts and counts the outcome into report.
// offset is the index of chunk[0] in the whole merge.
func insertBatch(ctx context.Context, tx pgx.Tx, chunk []string, offset int, report *MergeReport) error {
	batch := &pgx.Batch{}
	for _, b := range chunk {
		batch.Queue(insertQuery, b)
	}
	br := tx.SendBatch(ctx, batch)

	for i, b := range chunk {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return &RowError{Row: offset + i, Barcode: b, Err: err}
		}
		if tag.RowsAffected() == 0 {
			report.addDuplicate(b)
			continue
		}
		report.Inserted++
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return nil
}

func (c *pgConn) Release() {
	if c == nil || c.conn == nil {
		return
	}
	c.conn.Release()
	c.conn = nil
}

func (c *pgConn) checkOpen() error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("%w: connection already released", berrors.ErrQuery)
	}
	return nil
}

func (c *pgConn) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.queryTimeout)
}
