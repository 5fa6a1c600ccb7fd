// Package main is the entry point for the wx CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/meteocli/wx/internal/cli"
)

func main() {
	// Ctrl-C cancels in-flight requests and pending authorization waits
	// instead of killing the process mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
