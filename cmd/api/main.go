package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tomlord1122/todo-items/internal/config"
	"github.com/Tomlord1122/todo-items/internal/database"
	"github.com/Tomlord1122/todo-items/internal/repository"
	"github.com/Tomlord1122/todo-items/internal/server"
	"github.com/Tomlord1122/todo-items/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, timeout time.Duration, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	slog.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has timeout to finish the requests it is currently handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := dbService.Close(); err != nil {
		slog.Error("Error closing database connection pool", "error", err)
	}

	slog.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	dbService, err := database.New(cfg.Database)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		slog.Info("Applying database migrations")
		if err := dbService.Migrate(context.Background()); err != nil {
			_ = dbService.Close()
			return err
		}
	}

	store := repository.NewGormStore(dbService.GetDB())
	todoService := service.NewTodoService(store)
	itemService := service.NewItemService(store)

	apiServer := server.NewServer(*cfg, todoService, itemService, dbService)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	go gracefulShutdown(apiServer, dbService, cfg.ShutdownTimeout, done)

	slog.Info("Starting server", "addr", apiServer.Addr, "env", cfg.Env)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	// Wait for the graceful shutdown to complete
	<-done
	slog.Info("Graceful shutdown complete")
	return nil
}
