package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/doeshing/vitals/internal/infrastructure/cli"
	"github.com/doeshing/vitals/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.Options{Verbose: logger.VerboseFromEnv()}, os.Args[1:])
	stop()
	os.Exit(code)
}
