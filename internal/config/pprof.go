package config

import (
	"fmt"
	"net"
)

// PProfConfig enables the profiling endpoints on a separate listener.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) String() string {
	if !c.Enabled {
		return "\n--- PProf ---\n  enabled: false\n"
	}
	return fmt.Sprintf("\n--- PProf ---\n  enabled: true\n  address: %s\n", c.Addr)
}

// Validate requires a host:port address when profiling is enabled.
func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("pprof is enabled but address is not configured")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid pprof address %q: %w", c.Addr, err)
	}
	return nil
}
