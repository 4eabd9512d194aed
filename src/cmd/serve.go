package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"finboard-server/src/api"
	"finboard-server/src/telemetry"
)

type serveCmd struct {
	store storeFlags
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API server" }
func (*serveCmd) Usage() string {
	return `finboard serve [-memory [-fixture <file>]]

  Serves the dashboard API. Reads the record store from Postgres
  (DATABASE_URL) unless -memory is given.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	c.store.register(f)
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := cfg.RequireServer(); err != nil {
		log.Error().Err(err).Msg("Invalid server configuration")
		return subcommands.ExitFailure
	}

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  "finboard",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		MetricsPort:  cfg.MetricsPort,
	}, log)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Error().Err(err).Msg("Telemetry shutdown failed")
		}
	}()
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize telemetry")
		return subcommands.ExitFailure
	}

	svc, release, err := c.store.service(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open record store")
		return subcommands.ExitFailure
	}
	defer release()

	router := api.NewRouter(svc, api.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "finboard"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("join_strategy", string(cfg.JoinStrategy)).Msg("API server running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
