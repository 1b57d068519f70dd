package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"stock-market-api/src/collector"
	"stock-market-api/src/config"
	datasource "stock-market-api/src/data_source"
	"stock-market-api/src/data_source/alphavantage"
	"stock-market-api/src/data_source/yahoo"
	"stock-market-api/src/interfaces"
	"stock-market-api/src/logger"
	"stock-market-api/src/network"
	"stock-market-api/src/scheduler"
	"stock-market-api/src/server"
	"stock-market-api/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Storage
	var store interfaces.IStockStore

	switch cfg.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresStore(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		store, err = storage.NewSQLiteStore(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate store: %v", err)
	}
	defer store.Close()

	// Data sources behind the retrying network manager
	var netMgr interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger)

	var sources []interfaces.IDataSource
	for _, src := range cfg.DataSource.Sources {
		switch strings.ToLower(src.Name) {
		case "yahoo":
			sources = append(sources, yahoo.NewSource(cfg.MConfig, netMgr))
		case "alpha-vantage":
			if src.APIKey == "" {
				appLogger.Warning("alpha-vantage configured without API key, skipping")
				continue
			}
			sources = append(sources, alphavantage.NewSource(cfg.MConfig, src.APIKey, netMgr))
		default:
			appLogger.Warning("unknown data source '%s', skipping", src.Name)
		}
	}
	if len(sources) == 0 {
		appLogger.Critical("No usable data sources configured")
	}

	manager := datasource.NewSourceManager(cfg.MConfig, sources)
	coll := collector.NewCollector(cfg.MConfig, store, manager)

	// HTTP + WebSocket server
	srv := server.NewAPIServer(cfg.MConfig, store, coll)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// Periodic refresh
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewScheduler(cfg.MConfig, store, coll, srv)
		if err := sched.Start(); err != nil {
			appLogger.Critical("Failed to start scheduler: %v", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	if sched != nil {
		sched.Stop()
	}
	srv.Stop()
}
