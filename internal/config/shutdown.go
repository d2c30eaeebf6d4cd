package config

import (
	"context"
	"fmt"
	"time"
)

// maxShutdownTimeout bounds how long the service may drain on SIGTERM.
const maxShutdownTimeout = 5 * time.Minute

// ShutdownConfig bounds graceful shutdown of every server the service runs.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Context returns a context that expires after the shutdown timeout. It does not
// derive from the run context, which is already canceled when shutdown starts.
func (c *ShutdownConfig) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.Timeout)
}

func (c *ShutdownConfig) String() string {
	return fmt.Sprintf("\n--- Shutdown ---\n  timeout: %s\n", c.Timeout)
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 || c.Timeout > maxShutdownTimeout {
		return fmt.Errorf("shutdown timeout must be in (0, %s], got %s", maxShutdownTimeout, c.Timeout)
	}
	return nil
}
