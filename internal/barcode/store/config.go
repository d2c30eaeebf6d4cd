package store

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	berrors "github.com/abgdnv/barcodecheck/internal/barcode/errors"
)

const (
	DefaultPort           = "5432"
	DefaultSSLMode        = "disable"
	DefaultConnectTimeout = 5 * time.Second
	DefaultBatchSize      = 500
)

// ConnConfig holds the connection parameters of the barcode store.
type ConnConfig struct {
	Host           string
	User           string
	Password       string
	Name           string
	Port           string
	SSLMode        string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	MaxConns       int32
	BatchSize      int
}

// validate checks the credentials without touching the network and returns the parsed port.
func (c *ConnConfig) validate() (int, error) {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.Name == "" {
		missing = append(missing, "database name")
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: missing %s", berrors.ErrConfig, strings.Join(missing, ", "))
	}

	rawPort := strings.TrimSpace(c.Port)
	if rawPort == "" {
		rawPort = DefaultPort
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: invalid port %q", berrors.ErrConnection, c.Port)
	}
	return port, nil
}

// withDefaults fills unset tuning values.
func (c ConnConfig) withDefaults() ConnConfig {
	if c.SSLMode == "" {
		c.SSLMode = DefaultSSLMode
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// url builds a connection URL for the given scheme.
func (c *ConnConfig) url(scheme string, port int) string {
	// connect_timeout is whole seconds, 0 would mean "wait forever"
	timeoutSec := max(int(c.ConnectTimeout/time.Second), 1)
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("connect_timeout", strconv.Itoa(timeoutSec))
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
