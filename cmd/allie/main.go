package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/felixgeelhaar/allie/adapter/cli/family"
	"github.com/felixgeelhaar/allie/adapter/cli/inbox"
	"github.com/felixgeelhaar/allie/adapter/cli/mcp"
	"github.com/felixgeelhaar/allie/adapter/cli/records"
	"github.com/felixgeelhaar/allie/internal/app"
	mcpinternal "github.com/felixgeelhaar/allie/internal/mcp"
	"github.com/felixgeelhaar/allie/pkg/config"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	cli.SetLogger(logger)

	// One-shot commands read the inbox on demand; the worker owns processing.
	cfg.AutoProcess = false

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}

	cli.SetApp(mcpinternal.NewCLIApp(container, false))

	// Register commands
	cli.AddCommand(inbox.Cmd)
	cli.AddCommand(records.Cmd)
	cli.AddCommand(family.Cmd)
	cli.AddCommand(mcp.Cmd)

	code := 0
	if err := cli.Execute(ctx); err != nil {
		code = 1
	}
	container.Close()
	os.Exit(code)
}
