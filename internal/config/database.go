package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/barcodecheck/internal/barcode/store"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig holds the barcode store settings. Credentials are checked by the
// connector, so a service can start without them and report lookups as errors.
type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	Port     string `koanf:"port"`
	SSLMode  string `koanf:"sslmode"`
	Timeout  struct {
		Connect time.Duration `koanf:"connect"`
		Query   time.Duration `koanf:"query"`
	} `koanf:"timeout"`
	MaxConns  int32 `koanf:"maxconns"`
	BatchSize int   `koanf:"batchsize"`
}

// ConnConfig converts the settings into connector parameters.
func (c *DatabaseConfig) ConnConfig() store.ConnConfig {
	return store.ConnConfig{
		Host:           c.Host,
		User:           c.User,
		Password:       c.Password,
		Name:           c.Name,
		Port:           c.Port,
		SSLMode:        c.SSLMode,
		ConnectTimeout: c.Timeout.Connect,
		QueryTimeout:   c.Timeout.Query,
		MaxConns:       c.MaxConns,
		BatchSize:      c.BatchSize,
	}
}

// String returns a string representation of the database configuration with the password masked.
func (c *DatabaseConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  host: %s\n", orNotConfigured(c.Host)))
	b.WriteString(fmt.Sprintf("  port: %s\n", orNotConfigured(c.Port)))
	b.WriteString(fmt.Sprintf("  user: %s\n", orNotConfigured(c.User)))
	b.WriteString(fmt.Sprintf("  password: %s\n", maskSecret(c.Password)))
	b.WriteString(fmt.Sprintf("  name: %s\n", orNotConfigured(c.Name)))
	b.WriteString(fmt.Sprintf("  sslmode: %s\n", c.SSLMode))
	b.WriteString(fmt.Sprintf("  timeout: connect=%v query=%v\n", c.Timeout.Connect, c.Timeout.Query))
	b.WriteString(fmt.Sprintf("  maxconns: %d\n", c.MaxConns))
	b.WriteString(fmt.Sprintf("  batchsize: %d\n", c.BatchSize))
	return b.String()
}

func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Driver)
	}
	if c.Timeout.Connect < 0 {
		return fmt.Errorf("invalid database connect timeout: %v", c.Timeout.Connect)
	}
	if c.Timeout.Query < 0 {
		return fmt.Errorf("invalid database query timeout: %v", c.Timeout.Query)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("invalid database max connections: %d", c.MaxConns)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("invalid database batch size: %d", c.BatchSize)
	}
	return nil
}

func orNotConfigured(v string) string {
	if v == "" {
		return "<not configured>"
	}
	return v
}

func maskSecret(v string) string {
	if v == "" {
		return "<not configured>"
	}
	return "****"
}
