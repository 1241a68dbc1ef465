// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/danielhkuo/ballot-tally/card"
	"github.com/danielhkuo/ballot-tally/cliparse"
	"github.com/danielhkuo/ballot-tally/cvr"
	"github.com/danielhkuo/ballot-tally/db"
	"github.com/danielhkuo/ballot-tally/election"
	"github.com/danielhkuo/ballot-tally/logging"
	"github.com/danielhkuo/ballot-tally/middleware"
	"github.com/danielhkuo/ballot-tally/polls"
	"github.com/danielhkuo/ballot-tally/router"
	"github.com/danielhkuo/ballot-tally/scanner"
)

const (
	scannerTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	logger, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(logger); err != nil {
		logger.Error("service stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := election.LoadFile(cfg.ElectionPath)
	if err != nil {
		return err
	}
	logger.Info("election loaded",
		zap.String("title", e.Title),
		zap.String("election_hash", e.Hash()),
		zap.Int("contests", len(e.Contests)))

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("database schema ready", zap.String("type", cfg.DatabaseType))

	pollWorkerCard, err := openCard(ctx, cfg)
	if err != nil {
		return err
	}

	client := scanner.NewHTTPClient(cfg.ScannerURL, scannerTimeout)
	controller := scanner.NewController(client, scanner.Options{
		PollInterval: cfg.StatusPollInterval,
		CastDismiss:  cfg.CastDismissDelay,
		ErrorDismiss: cfg.ErrorDismissDelay,
	}, logger)
	hardware := scanner.NewHardwareMonitor(client, cfg.HardwarePollInterval, logger)

	snapshots := db.NewSnapshotStore(conn, cfg.DatabaseType, logger)
	tabulator := polls.NewTabulator(e, client, polls.TabulatorOptions{
		MachineID: cfg.MachineID,
		LiveMode:  cfg.LiveMode,
		Policy:    cvr.ReportOnly,
	}, logger,
		polls.StorePersister{Store: snapshots},
		polls.CardPersister{Writer: card.NewWriter(pollWorkerCard, logger), Logger: logger},
	)

	lifecycle, err := polls.NewLifecycle(e, tabulator, cfg.MachineID, cfg.PrecinctSelection(), logger,
		polls.WithScannerGate(controller),
		polls.WithStateStore(db.NewPollsStateStore(conn, cfg.DatabaseType)),
	)
	if err != nil {
		return fmt.Errorf("invalid precinct: %w", err)
	}
	if err := lifecycle.Restore(ctx); err != nil {
		return err
	}

	controller.Start(ctx)
	defer controller.Stop()
	hardware.Start(ctx)
	defer hardware.Stop()

	mux := router.NewRouter(router.Deps{
		Controller: controller,
		Lifecycle:  lifecycle,
		Hardware:   hardware,
		Snapshots:  snapshots,
		Logger:     logger,
	})

	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening",
		zap.Int("port", cfg.Port),
		zap.String("machine_id", cfg.MachineID),
		zap.String("precincts", cfg.PrecinctSelection().String()),
		zap.Bool("live_mode", cfg.LiveMode))
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server closed")
	return nil
}

func openCard(ctx context.Context, cfg cliparse.Config) (card.Card, error) {
	if cfg.CardBackend != cliparse.CardRedis {
		return card.NewMemoryCard(0), nil
	}
	rc := card.NewRedisCard(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), card.DefaultRedisKey)
	if err := rc.Ping(ctx); err != nil {
		return nil, fmt.Errorf("card bridge unreachable at %s: %w", cfg.RedisAddr, err)
	}
	return rc, nil
}
