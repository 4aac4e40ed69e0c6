package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sidesa/internal/cli"
	"sidesa/internal/platform/config"
	"sidesa/internal/platform/logger"
)

func main() {
	cfg := config.FromEnv()
	log := logger.NewTo(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(cli.PostgresOpener(cfg, log))
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
