// Package main runs the barcode check service: the HTML form, the JSON API and the gRPC API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/barcodecheck/internal/barcode/app"
	"github.com/abgdnv/barcodecheck/internal/config"
	"github.com/abgdnv/barcodecheck/internal/platform/bootstrap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	configFile := flag.String("config", "", "path to the yaml config file (default config.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, builds the store connector and starts the HTTP, gRPC and pprof servers.
func run(ctx context.Context, configFile string) error {
	cfg, cfgErr := config.Load(configFile)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	connector, err := app.NewConnector(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create barcode store connector: %w", err)
	}
	defer connector.Close()

	// The store may come up after the service; lookups report errors until it does.
	if pinger, ok := connector.(app.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			logger.Warn("Barcode store is not reachable yet", "error", err)
		} else {
			logger.Info("Successfully connected to the database!")
		}
	}

	httpServer, pprofServer, grpcServer := setupServers(app.SetupDependencies(connector, cfg.Breaker, logger), &cfg)

	g, gCtx := errgroup.WithContext(ctx)
	serveHTTP(gCtx, g, logger.With("server", "http"), httpServer, &cfg.Shutdown)
	serveGRPC(gCtx, g, logger.With("server", "grpc"), grpcServer, ":"+cfg.GRPCServer.Port, &cfg.Shutdown)
	if cfg.PProf.Enabled {
		serveHTTP(gCtx, g, logger.With("server", "pprof"), pprofServer, &cfg.Shutdown)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// serveHTTP runs srv in g and shuts it down once ctx is done.
func serveHTTP(ctx context.Context, g *errgroup.Group, logger *slog.Logger, srv *http.Server, shutdown *config.ShutdownConfig) {
	g.Go(func() error {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := shutdown.Context()
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// serveGRPC runs srv on addr in g. Once ctx is done in-flight calls get the shutdown
// timeout to finish before the server is stopped hard.
func serveGRPC(ctx context.Context, g *errgroup.Group, logger *slog.Logger, srv *grpc.Server, addr string, shutdown *config.ShutdownConfig) {
	g.Go(func() error {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		logger.Info("Server listening", slog.String("addr", addr))
		return srv.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		shutdownCtx, cancel := shutdown.Context()
		defer cancel()
		select {
		case <-stopped:
			logger.Info("Server stopped gracefully")
			return nil
		case <-shutdownCtx.Done():
			logger.Warn("Graceful stop timed out, forcing stop")
			srv.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})
}

// setupServers initializes the HTTP, pprof and gRPC servers.
func setupServers(deps *app.Dependencies, cfg *config.Config) (*http.Server, *http.Server, *grpc.Server) {
	httpServer := app.SetupHttpServer(deps, cfg)
	grpcServer := app.SetupGrpcServer(deps, cfg.GRPCServer.ReflectionEnabled)
	pprofServer := &http.Server{
		Addr:              cfg.PProf.Addr,
		ReadHeaderTimeout: cfg.HTTPServer.Timeout.ReadHeader,
	}
	return httpServer, pprofServer, grpcServer
}
