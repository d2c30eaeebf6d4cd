package config

import (
	"errors"
	"fmt"
	"strings"
)

// LogConfig selects the slog level and output encoding.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func (c *LogConfig) String() string {
	return fmt.Sprintf("\n--- Log ---\n  level: %s\n  format: %s\n", c.Level, c.Format)
}

// Validate accepts the slog level names and the json or text format, case-insensitively.
// Empty values fall back to info and json.
func (c *LogConfig) Validate() error {
	var errs []error
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unsupported log level: %q", c.Level))
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format: %q", c.Format))
	}
	return errors.Join(errs...)
}
