// Command blogcore runs the blog API server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/blogcore/blogcore/internal/app"
	"github.com/blogcore/blogcore/internal/config"
	"github.com/blogcore/blogcore/internal/version"
)

func main() {
	configPath := flag.String("config", config.PathFromEnv(), "path to YAML config file (env: CONFIG_PATH)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg)
	if err != nil {
		return err
	}

	slog.Info("blogcore starting", "version", version.Version, "commit", version.GitCommit)

	if err := application.Bootstrap(ctx); err != nil {
		return err
	}

	if err := application.Run(ctx); err != nil {
		return err
	}

	slog.Info("blogcore stopped")
	return nil
}
