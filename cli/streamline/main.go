package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	streamlinecmder "github.com/papercomputeco/streamline/cmd/streamline"
)

func main() {
	// SIGINT stays with the commands; chat uses it to stop a single reply.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)

	err := streamlinecmder.NewStreamlineCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
