package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// EnsureSchema applies the embedded migrations. An up-to-date schema is left untouched.
func (p *PgConnector) EnsureSchema(ctx context.Context) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, p.migrateURL)
	if err != nil {
		return fmt.Errorf("%w: migrate: %w", berrors.ErrConnection, err)
	}
	defer m.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: apply migrations: %w", berrors.ErrQuery, err)
	}
	return nil
}
