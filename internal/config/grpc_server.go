package config

import (
	"fmt"
	"strconv"
)

// GrpcServerConfig configures the gRPC listener of the service.
type GrpcServerConfig struct {
	Port              string `koanf:"port"`
	ReflectionEnabled bool   `koanf:"reflection"`
}

func (c *GrpcServerConfig) String() string {
	return fmt.Sprintf("\n--- gRPC Server ---\n  port: %s\n  reflection: %t\n", c.Port, c.ReflectionEnabled)
}

func (c *GrpcServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("gRPC port is not configured")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid gRPC port: %q", c.Port)
	}
	return nil
}
