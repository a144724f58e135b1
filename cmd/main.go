package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/neurogarden-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}

	a.Start()
	runErr := a.Run(ctx)
	if runErr != nil {
		a.Log.Error("Server failed", "error", runErr)
	} else {
		a.Log.Info("Server stopped")
	}
	a.Close()
	if runErr != nil {
		os.Exit(1)
	}
}
