// Package main is the entry point for the Frostline Express mission server.
// It only handles dependency injection and server initialization.
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

	"github.com/MRamiBalles/FrostlineExpress/internal/catalog"
	"github.com/MRamiBalles/FrostlineExpress/internal/config"
	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
	"github.com/MRamiBalles/FrostlineExpress/internal/events"
	"github.com/MRamiBalles/FrostlineExpress/internal/infra/storage"
	"github.com/MRamiBalles/FrostlineExpress/internal/network"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/logger"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/metrics"
	"github.com/MRamiBalles/FrostlineExpress/internal/platform/random"
)

func main() {
	configDir := flag.String("config", ".", "Directory holding "+config.FileName)
	flag.Parse()

	if err := run(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, "frostline-server:", err)
		os.Exit(1)
	}
}

func run(configDir string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLogger.Info("Initializing Frostline Express mission server...")

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	collector := metrics.Get()

	var store *storage.Store
	if cfg.Storage.Driver != "none" {
		appLogger.Info("Opening " + cfg.Storage.Driver + " storage...")
		store, err = storage.Open(cfg.Storage, collector)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	appLogger.Info("Bootstrapping mission journal...")
	var journal *events.EventLog
	if store != nil {
		journal = events.NewEventLog(store)
		journal.OnPersistError(func(e events.GameEvent, err error) {
			appLogger.With("event_id", e.ID).Err(err, "failed to persist journal entry")
		})
	} else {
		journal = events.NewEventLog(nil)
	}
	defer journal.Flush()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	appLogger.With("seed", fmt.Sprint(seed)).Info("Seeding simulation")

	world := &engine.World{
		Random:   random.NewSeeded(seed),
		Routes:   cat.RouteTable(),
		Weathers: cat.WeatherTable(),
		Vehicles: cat.VehicleRegistry(),
		Crew:     cat.CrewRoster(),
		Balance:  cfg.Balance,
		Log:      appLogger,
		Journal:  journal,
		Metrics:  collector,
	}
	gameEngine := engine.NewEngine(world)
	if store != nil {
		gameEngine.SetHistory(store)
	}
	if err := gameEngine.RefillPending(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go gameEngine.Start(ctx, cfg.TickRate)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(gameEngine, appLogger, collector, network.HubConfig{
		ClientSendBuffer: cfg.Network.ClientSendBuffer,
		BroadcastBuffer:  cfg.Network.BroadcastBuffer,
		SnapshotInterval: cfg.Network.SnapshotInterval,
		PollInterval:     cfg.Network.PollInterval,
	})
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, journal)
	hub.StartSnapshotBroadcaster(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)

	var api *network.API
	if store != nil {
		api = network.NewAPI(gameEngine, storage.NewRecapper(store.Events), store.History, appLogger)
	} else {
		api = network.NewAPI(gameEngine, nil, nil, appLogger)
	}
	api.RegisterRoutes(mux)
	network.NewJournalHandler(journal, appLogger).RegisterRoutes(mux)

	mux.HandleFunc("GET /metrics", collector.Handler())
	mux.HandleFunc("GET /metrics/prometheus", collector.PrometheusHandler())

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP API & WS Server listening on " + cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	appLogger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
