package main

import (
	"context"
	"log"
	"os"

	"github.com/nischalstumbeti/contestzen/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, configPath())
	if err != nil {
		log.Fatalf("bootstrap api runtime: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run api: %v", err)
	}
}

func configPath() string {
	if p := os.Getenv("CONTESTZEN_CONFIG"); p != "" {
		return p
	}
	return "configs/default.yaml"
}
