package config

import (
	"fmt"
	"strings"
)

// SourceConfig names the default file, sheet and column for bulk loads.
type SourceConfig struct {
	File   string `koanf:"file"`
	Sheet  string `koanf:"sheet"`
	Column string `koanf:"column"`
}

// String returns a string representation of the SourceConfig.
func (c *SourceConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Source ---\n")
	b.WriteString(fmt.Sprintf("  file: %s\n", orNotConfigured(c.File)))
	b.WriteString(fmt.Sprintf("  sheet: %s\n", c.Sheet))
	b.WriteString(fmt.Sprintf("  column: %s\n", c.Column))
	return b.String()
}

func (c *SourceConfig) Validate() error {
	if strings.TrimSpace(c.Column) == "" {
		return fmt.Errorf("source column is not configured")
	}
	return nil
}
