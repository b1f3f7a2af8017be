package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"econ-observer/src/config"
	datasource "econ-observer/src/data_source"
	"econ-observer/src/logger"
	"econ-observer/src/server"
	"econ-observer/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.MConfig, config.Name)

	// Artifact sink
	sink, err := storage.NewSink(config.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init storage: %v", err)
	}
	if err := sink.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate storage: %v", err)
	}
	defer sink.Close()

	// Series providers
	if len(config.Sources) == 0 {
		appLogger.Critical("No data sources configured")
	}
	registry, err := datasource.NewRegistry(config.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init providers: %v", err)
	}

	// HTTP API + websocket hub; the server owns the analysis engine so run
	// progress events reach connected clients.
	srv := server.NewAPIServer(config.MConfig, appLogger, registry, sink)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	srv.Stop()
}
