package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Azure/aimbiztalk-sub006/cmd"
	"github.com/Azure/aimbiztalk-sub006/internal/observability"
)

func main() {
	// Interrupts cancel the analysis between rules and applications.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()
	observability.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cmd.ExitCode(err))
}
