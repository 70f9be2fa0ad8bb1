package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/catalog-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, true)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Start(ctx); err != nil {
		application.Log.Error("Start failed", "error", err)
		os.Exit(1)
	}
	if err := application.Run(ctx); err != nil {
		application.Log.Error("Server stopped", "error", err)
		os.Exit(1)
	}
	application.Log.Info("Server shut down")
}
