package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"taskmaster/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := cli.NewRootCmd(cli.OpenApp).ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("taskmaster: %v", err)
	}
}
