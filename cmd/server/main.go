// Package main is the entry point for the pooled-fund engine server. It
// wires the accounting engine to its reference token ledgers, the audit
// journal, the maintenance scheduler and the HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantfold/vault/internal/config"
	"github.com/quantfold/vault/internal/database"
	"github.com/quantfold/vault/internal/events"
	"github.com/quantfold/vault/internal/fund"
	"github.com/quantfold/vault/internal/modules/history"
	historyhandlers "github.com/quantfold/vault/internal/modules/history/handlers"
	"github.com/quantfold/vault/internal/scheduler"
	"github.com/quantfold/vault/internal/server"
	"github.com/quantfold/vault/internal/token"
	"github.com/quantfold/vault/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		println("failed to load configuration:", err.Error())
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)
	log.Info().Str("data_dir", cfg.DataDir).Bool("dev_mode", cfg.DevMode).Msg("Starting fund engine")

	journalDB, err := database.New(database.Config{
		Path:    cfg.JournalDBPath(),
		Profile: database.ProfileLedger,
		Name:    "journal",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open journal database")
	}
	defer journalDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	journal, err := events.NewJournal(journalDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event journal")
	}
	hub := events.NewHub(log)
	eventManager := events.NewManager(journal, hub, log)

	asset := token.New()
	shares := token.NewShares()

	engine, err := fund.New(fund.Config{
		Custody:         cfg.CustodyAccount,
		Owner:           cfg.OwnerAccount,
		Treasury:        cfg.TreasuryAccount,
		TreasuryManager: cfg.TreasuryManagerAccount,
		FeeRatePercent:  cfg.FeeRatePercent,
		Operators:       cfg.OperatorAccounts,
	}, asset, shares, eventManager, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to construct fund engine")
	}

	historyRepo, err := history.NewRepository(historyDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price history")
	}
	historyService := history.NewService(engine, historyRepo, log)

	sched, err := scheduler.New(scheduler.Config{
		Fund:              engine,
		History:           historyService,
		Operator:          cfg.OwnerAccount,
		RebalanceSchedule: cfg.RebalanceSchedule,
		FeeSchedule:       cfg.FeeSchedule,
		QueueTrimSchedule: cfg.QueueTrimSchedule,
		SnapshotSchedule:  cfg.SnapshotSchedule,
		Log:               log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to construct scheduler")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:             log,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		Fund:            engine,
		Asset:           asset,
		Custody:         cfg.CustodyAccount,
		Journal:         journal,
		Hub:             hub,
		HistoryHandlers: historyhandlers.NewHandler(historyService, historyRepo, log),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Fund engine stopped")
}
