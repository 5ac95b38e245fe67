package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloudshare/handlers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := handlers.NewCLI(handlers.Options{})
	if err := app.RunContext(ctx, os.Args); err != nil {
		if !handlers.Reported(err) {
			fmt.Fprintf(os.Stderr, "cloudshare: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
