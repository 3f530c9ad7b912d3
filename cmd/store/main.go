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
	"github.com/chepyr/go-task-board/internal/db"
	"github.com/chepyr/go-task-board/internal/handlers"
	"github.com/chepyr/go-task-board/internal/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "store server configuration file")
	flag.Parse()

	var cfg config.Store
	if err := config.Load(configPath, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("store server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Store, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := initDB(cfg, log)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	handler := initHandler(cfg, dbConn, log)
	defer handler.RateLimiter.Stop()

	server := initServer(cfg, handler)
	return startServer(ctx, server, log)
}

func initDB(cfg config.Store, log *slog.Logger) (*sqlx.DB, error) {
	dbConn, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(dbConn); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	log.Info("database ready", "driver", cfg.DBDriver)
	return dbConn, nil
}

func initHandler(cfg config.Store, dbConn *sqlx.DB, log *slog.Logger) *handlers.Handler {
	return &handlers.Handler{
		TaskRepo:    db.NewTaskRepository(dbConn),
		UserRepo:    db.NewUserRepository(dbConn),
		Tokens:      handlers.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		RateLimiter: handlers.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow),
		ServiceKey:  cfg.ServiceKey,
		Timeout:     cfg.RequestTimeout,
		Log:         log,
	}
}

func initServer(cfg config.Store, handler *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func startServer(ctx context.Context, server *http.Server, log *slog.Logger) error {
	log.Info("starting store server", "address", server.Addr)

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
	log.Info("shutting down store server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("store server stopped")
	return nil
}
