package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/railcan/cmd/bustool/cmd"
	"github.com/danmuck/railcan/internal/logging"
)

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
