package main

import (
	"context"
	"log"
	"os"

	"github.com/nischalstumbeti/contestzen/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	configPath := os.Getenv("CONTESTZEN_CONFIG")
	if configPath == "" {
		configPath = "configs/default.yaml"
	}
	// Schema changes belong to the API and the operator CLI.
	runtime, err := bootstrap.NewRuntime(ctx, configPath, bootstrap.WithAutoMigrate(false))
	if err != nil {
		log.Fatalf("bootstrap worker runtime: %v", err)
	}
	if err := runtime.RunWorker(ctx); err != nil {
		log.Fatalf("run worker: %v", err)
	}
}
