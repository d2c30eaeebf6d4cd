// Package app wires the barcode service components together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	pb "github.com/abgdnv/barcodecheck/internal/barcode/api/barcodev1"
	"github.com/abgdnv/barcodecheck/internal/barcode/service"
	"github.com/abgdnv/barcodecheck/internal/barcode/store"
	grpcImpl "github.com/abgdnv/barcodecheck/internal/barcode/transport/grpc"
	"github.com/abgdnv/barcodecheck/internal/barcode/transport/rest"
	"github.com/abgdnv/barcodecheck/internal/config"
	"github.com/abgdnv/barcodecheck/internal/platform/server"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Dependencies struct {
	Connector store.Connector
	Checker   service.BarcodeChecker
	Registry  *prometheus.Registry
	Logger    *slog.Logger
}

// NewConnector builds the connector selected by cfg.Driver. The postgres connector
// does not dial until the first Connect.
func NewConnector(cfg config.DatabaseConfig) (store.Connector, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemoryConnector(), nil
	case config.DriverPostgres, "":
		pg, err := store.NewPgConnector(cfg.ConnConfig())
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// Pinger is implemented by connectors that can probe the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func SetupDependencies(connector store.Connector, breaker config.BreakerConfig, logger *slog.Logger) *Dependencies {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(reg)
	checker := service.NewLookupService(connector, service.BreakerConfig{
		ConsecutiveFailures: breaker.Failures,
		OpenTimeout:         breaker.Timeout,
	}, metrics, logger)

	return &Dependencies{
		Connector: connector,
		Checker:   checker,
		Registry:  reg,
		Logger:    logger,
	}
}

// SetupHttpHandler initializes the router with middleware and all routes.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the barcode service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	var gatherer prometheus.Gatherer
	if deps.Registry != nil {
		gatherer = deps.Registry
	}
	rest.NewHandler(deps.Checker, gatherer, deps.Logger).RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the barcode service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux, deps.Logger)
}

// SetupGrpcServer initializes the gRPC server with the barcode and health services.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	barcodeRegisterFunc := func(s *grpc.Server) {
		pb.RegisterBarcodeServiceServer(s, grpcImpl.NewServer(deps.Checker, deps.Logger))
	}
	healthRegisterFunc := func(s *grpc.Server) {
		hs := health.NewServer()
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		hs.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(s, hs)
	}
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, barcodeRegisterFunc, healthRegisterFunc)
}
