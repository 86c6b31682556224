package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ClaudeDigest/internal/app"
	"ClaudeDigest/internal/config"
	"ClaudeDigest/internal/logging"
	"ClaudeDigest/internal/usecase"
)

const (
	exitOK        = 0
	exitError     = 1
	exitNoContent = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config (default $CLAUDE_DIGEST_CONFIG)")
	once := flag.Bool("once", true, "run a single pass and exit")
	daemon := flag.Bool("daemon", false, "run on the configured interval until interrupted")
	flag.Parse()

	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitError
	}
	logger := logging.NewWithFormat(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn(".env not loaded", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return exitError
	}
	defer application.Close()

	if *daemon || !*once {
		if err := application.RunDaemon(ctx); err != nil {
			logger.Error("daemon stopped", "error", err)
			return exitError
		}
		return exitOK
	}

	res, err := application.Run(ctx)
	switch {
	case errors.Is(err, usecase.ErrNoContent):
		logger.Info("no new content", "run_id", res.RunID)
		return exitNoContent
	case err != nil:
		logger.Error("run failed", "run_id", res.RunID, "error", err)
		return exitError
	}
	logger.Info("digest written", "run_id", res.RunID, "total_items", res.Digest.TotalItems, "path", cfg.Output.Path)
	return exitOK
}
