package main

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

	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"

	"parking-fleet/internal/config"
	"parking-fleet/internal/logging"
	"parking-fleet/internal/parking"
	"parking-fleet/internal/server"
)

var (
	mode = flag.String("mode", "", "Mode to run: cli, server, or both (overrides MODE)")
	port = flag.String("port", "", "Port for HTTP server (overrides PORT)")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *port != "" {
		cfg.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := parking.NewTelemetryProvider(ctx, cfg.OTelConfig.ServiceName, cfg.OTelConfig.OTLPEndpoint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize telemetry: %v\n", err)
		os.Exit(1)
	}

	logging.Init(cfg.OTelConfig.ServiceName, cfg.Environment)

	fleet, err := newFleet(ctx, cfg, telemetryProvider)
	if err != nil {
		logging.Error(ctx, "failed to create parking fleet", "error", err)
		shutdownTelemetry(telemetryProvider)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch cfg.Mode {
	case "cli":
		runCLI(ctx, cancel, fleet, telemetryProvider, sigChan)
	case "server":
		runServer(ctx, cancel, cfg, fleet, telemetryProvider, sigChan)
	case "both":
		runBoth(ctx, cancel, cfg, fleet, telemetryProvider, sigChan)
	default:
		logging.Error(ctx, "invalid mode, must be cli, server, or both", "mode", cfg.Mode)
		shutdownTelemetry(telemetryProvider)
		os.Exit(1)
	}
}

// newFleet builds the fleet with logging observers and creates the lots
// listed in LOT_CAPACITIES.
func newFleet(ctx context.Context, cfg *config.Config, telemetryProvider *parking.TelemetryProvider) (*parking.Fleet, error) {
	fleet, err := parking.NewFleet(telemetryProvider,
		parking.WithFleetObservers(
			parking.LogObserver{Role: "owner", Name: cfg.OwnerName},
			parking.LogObserver{Role: "security", Name: cfg.SecurityName},
		),
		parking.WithAttendantName(cfg.AttendantName),
	)
	if err != nil {
		return nil, err
	}

	for _, capacity := range cfg.LotCapacities {
		status, err := fleet.AddLot(ctx, capacity)
		if err != nil {
			return nil, err
		}
		logging.Info(ctx, "parking lot created", "lot", status.Number, "lot_id", status.ID, "capacity", capacity)
	}
	return fleet, nil
}

func runCLI(ctx context.Context, cancel context.CancelFunc, fleet *parking.Fleet, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		logging.Info(ctx, "shutting down")
		cancel()
	}()

	shell := parking.NewShell(fleet, telemetryProvider, os.Stdin, os.Stdout)
	if err := shell.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error(ctx, "shell error", "error", err)
	}

	shutdownTelemetry(telemetryProvider)
}

func runServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, fleet *parking.Fleet, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	srv := server.NewServer(cfg.Port, fleet, cfg.OTelConfig.ServiceName)

	go func() {
		<-sigChan
		logging.Info(ctx, "received shutdown signal")
		shutdownServer(srv)
		cancel()
	}()

	logging.Info(ctx, "starting server mode", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error(ctx, "server error", "error", err)
	}

	shutdownTelemetry(telemetryProvider)
}

// runBoth serves HTTP while the shell reads stdin. The shell ending, a signal
// or a server failure stops both.
func runBoth(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, fleet *parking.Fleet, telemetryProvider *parking.TelemetryProvider, sigChan chan os.Signal) {
	srv := server.NewServer(cfg.Port, fleet, cfg.OTelConfig.ServiceName)

	go func() {
		select {
		case <-sigChan:
			logging.Info(ctx, "received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		shell := parking.NewShell(fleet, telemetryProvider, os.Stdin, os.Stdout)
		if err := shell.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error(ctx, "shell error", "error", err)
		}
		logging.Info(ctx, "CLI exited")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info(gctx, "starting HTTP server", "port", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownServer(srv)
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Error(ctx, "server error", "error", err)
	}

	shutdownTelemetry(telemetryProvider)
}

func shutdownServer(srv *server.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "server shutdown error", "error", err)
	}
}

func shutdownTelemetry(telemetryProvider *parking.TelemetryProvider) {
	logging.Info(context.Background(), "shutting down telemetry")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "error shutting down telemetry", "error", err)
	}
}
