package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/go-task-board/internal/config"
	"github.com/chepyr/go-task-board/internal/gateway"
	"github.com/chepyr/go-task-board/internal/logger"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "gateway configuration file")
	flag.Parse()

	var cfg config.Gateway
	if err := config.Load(configPath, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Gateway, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.StoreURL == "" || cfg.StoreKey == "" {
		log.Warn("store credentials missing, create-task requests will fail until STORE_URL and STORE_SERVICE_KEY are set")
	}

	handler := gateway.NewHandler(gateway.Config{
		StoreURL: cfg.StoreURL,
		StoreKey: cfg.StoreKey,
		Timeout:  cfg.RequestTimeout,
	}, gateway.StoreConnector, log)

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting gateway", "address", server.Addr, "path", gateway.Path)
	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("gateway stopped")
	return nil
}
