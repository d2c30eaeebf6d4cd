package config

import (
	"fmt"
	"strings"
	"time"
)

// BreakerConfig configures the circuit breaker guarding the barcode store.
type BreakerConfig struct {
	Failures uint32        `koanf:"failures"`
	Timeout  time.Duration `koanf:"timeout"`
}

// String returns a string representation of the BreakerConfig.
func (c *BreakerConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Circuit Breaker ---\n")
	b.WriteString(fmt.Sprintf("  failures: %d\n", c.Failures))
	b.WriteString(fmt.Sprintf("  timeout: %v\n", c.Timeout))
	return b.String()
}

func (c *BreakerConfig) Validate() error {
	if c.Failures == 0 {
		return fmt.Errorf("breaker.failures must be greater than 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("breaker.timeout must be greater than 0")
	}
	return nil
}
