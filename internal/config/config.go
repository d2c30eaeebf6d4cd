// Package config defines the barcode service and loader configuration.
package config

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/abgdnv/barcodecheck/internal/config/configloader"
)

// EnvPrefix selects the process environment variables read by both binaries.
const EnvPrefix = "BARCODE_"

// legacyAliases maps the RDS_* variables used by older deployments onto database keys.
var legacyAliases = map[string]string{
	"RDS_HOSTNAME": "database.host",
	"RDS_USERNAME": "database.user",
	"RDS_PASSWORD": "database.password",
	"RDS_DB_NAME":  "database.name",
	"RDS_PORT":     "database.port",
}

var databaseDefaults = map[string]any{
	"database.driver":          DriverPostgres,
	"database.port":            "5432",
	"database.sslmode":         "disable",
	"database.timeout.connect": "5s",
	"database.timeout.query":   "3s",
	"database.maxconns":        10,
	"database.batchsize":       500,
	"log.level":                "info",
	"log.format":               "json",
}

var serviceDefaults = map[string]any{
	"server.port":               8080,
	"server.maxheaderbytes":     1 << 20,
	"server.timeout.read":       "10s",
	"server.timeout.write":      "10s",
	"server.timeout.idle":       "60s",
	"server.timeout.readheader": "5s",
	"pprof.enabled":             false,
	"pprof.addr":                "localhost:6060",
	"grpc.port":                 "9090",
	"grpc.reflection":           false,
	"shutdown.timeout":          "15s",
	"breaker.failures":          5,
	"breaker.timeout":           "30s",
}

var loaderDefaults = map[string]any{
	"source.sheet":  "Database",
	"source.column": "Barcode",
}

// Config is the barcode service configuration.
type Config struct {
	HTTPServer HTTPConfig       `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Log        LogConfig        `koanf:"log"`
	PProf      PProfConfig      `koanf:"pprof"`
	GRPCServer GrpcServerConfig `koanf:"grpc"`
	Shutdown   ShutdownConfig   `koanf:"shutdown"`
	Breaker    BreakerConfig    `koanf:"breaker"`
}

// String returns a string representation of the configuration with secrets masked.
func (c Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.GRPCServer.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Breaker.String())
	return b.String()
}

func (c Config) Validate() error {
	return errors.Join(
		c.HTTPServer.Validate(),
		c.Database.Validate(),
		c.Log.Validate(),
		c.PProf.Validate(),
		c.GRPCServer.Validate(),
		c.Shutdown.Validate(),
		c.Breaker.Validate(),
		c.checkStoreFitsWriteTimeout(),
	)
}

// checkStoreFitsWriteTimeout rejects a write timeout that would cut a check off
// before the store could answer it.
func (c Config) checkStoreFitsWriteTimeout() error {
	if c.Database.Driver == DriverMemory || c.HTTPServer.Timeout.Write <= 0 {
		return nil
	}
	storeBudget := c.Database.Timeout.Connect + c.Database.Timeout.Query
	if c.HTTPServer.Timeout.Write <= storeBudget {
		return fmt.Errorf("HTTP write timeout %v must exceed database connect+query timeouts %v",
			c.HTTPServer.Timeout.Write, storeBudget)
	}
	return nil
}

// LoaderConfig is the bulk loader configuration.
type LoaderConfig struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Source   SourceConfig   `koanf:"source"`
}

// String returns a string representation of the configuration with secrets masked.
func (c LoaderConfig) String() string {
	return c.Database.String() + c.Log.String() + c.Source.String()
}

func (c LoaderConfig) Validate() error {
	return errors.Join(
		c.Database.Validate(),
		c.Log.Validate(),
		c.Source.Validate(),
	)
}

// Load reads the service configuration. file may be empty to use config.yaml.
func Load(file string) (Config, error) {
	return configloader.Load[Config](options(file, serviceDefaults))
}

// LoadLoader reads the bulk loader configuration. file may be empty to use config.yaml.
func LoadLoader(file string) (LoaderConfig, error) {
	return configloader.Load[LoaderConfig](options(file, loaderDefaults))
}

func options(file string, defaults map[string]any) configloader.Options {
	merged := make(map[string]any, len(databaseDefaults)+len(defaults))
	maps.Copy(merged, databaseDefaults)
	maps.Copy(merged, defaults)
	return configloader.Options{
		EnvPrefix: EnvPrefix,
		File:      file,
		Defaults:  merged,
		Aliases:   legacyAliases,
	}
}
