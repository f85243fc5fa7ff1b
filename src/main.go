// main.go - Entry point for the termchat client.
// Loads configuration, opens the durable state store (falling back to an
// in-memory one), wires the controller stack, and runs the TUI.

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"termchat/src/app"
	"termchat/src/config"
	"termchat/src/services/api"
	"termchat/src/services/identity"
	"termchat/src/services/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		logger.Info("loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	store := openStore(cfg.StatePath, logger)
	defer func() { _ = store.Close() }()

	gateway := api.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	ident := identity.NewManager(store, logger)

	application := app.New(gateway, ident, cfg, logger)
	defer application.Close()

	program := tea.NewProgram(application, tea.WithAltScreen())
	application.SetProgram(program)

	setupGracefulShutdown(program, logger)

	if _, err := program.Run(); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

// openStore opens the bolt-backed store, degrading to an in-memory one
// when the file cannot be used. The app still works for this run; the
// session id just will not survive a restart.
func openStore(path string, logger *slog.Logger) storage.Store {
	store, err := storage.OpenBolt(path)
	if err != nil {
		logger.Warn("state file unavailable, continuing in memory", "path", path, "error", err)
		return storage.NewMemoryStore()
	}
	return store
}

// setupGracefulShutdown quits the program cleanly on SIGINT/SIGTERM.
func setupGracefulShutdown(program *tea.Program, logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("received shutdown signal, cleaning up...")
		program.Quit()
	}()
}
