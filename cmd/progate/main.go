package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/progate/internal/cmd"
	"github.com/felixgeelhaar/progate/internal/exitcode"
)

func main() {
	// Ctrl+C cancels in-flight requests and closes the dashboard
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx, os.Args[1:]); err != nil {
		if ctx.Err() == context.Canceled {
			exitcode.Exit(exitcode.Interrupted)
		}
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}
