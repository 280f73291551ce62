package server

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auyylaso/Valthrun/pkg/config"
	"github.com/auyylaso/Valthrun/pkg/logger"
)

// Main is the server entry point: it parses flags, loads configuration,
// initializes logging, starts the relay, and blocks until a shutdown signal
func Main() {
	addr := flag.String("addr", "", "Listen address (overrides config)")
	configPath := flag.String("config", "", "Config file path (optional)")
	staticMode := flag.String("static-mode", "", "Static serving mode: none, disk or bundled (overrides config)")
	staticDir := flag.String("static-dir", "", "Directory to serve static files from (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	logFormat := flag.String("log-format", "", "Log format: text or json (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Get().ErrorWithErr("failed to load configuration", err)
		os.Exit(1)
	}

	// Flags win over config file and environment
	if *addr != "" {
		cfg.Address = *addr
	}
	if *staticMode != "" {
		cfg.Static.Mode = *staticMode
	}
	if *staticDir != "" {
		cfg.Static.Directory = *staticDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	// Flag overrides land after LoadConfig validated the file values, so
	// the merged result must pass the same checks
	if err := cfg.Validate(); err != nil {
		logger.Get().ErrorWithErr("invalid configuration", err)
		os.Exit(1)
	}

	logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)
	log := logger.Get()

	log.InfoWith("server starting", "config", cfg.String())

	server := NewRadarServer()
	static := StaticServe{Mode: cfg.Static.Mode, Directory: cfg.Static.Directory}
	if err := server.ListenHTTP(cfg.Address, static); err != nil {
		log.ErrorWithErr("failed to start server", err)
		os.Exit(1)
	}

	// Block until interrupted
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.InfoWith("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.ErrorWithErr("shutdown failed", err)
	}
}
