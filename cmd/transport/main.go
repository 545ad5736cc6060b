package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"nabot/internal/config"
	"nabot/internal/di"
)

func main() {
	cfg, err := config.LoadSimulation()
	if err != nil {
		log.Fatalf("failed to load simulation config: %v", err)
	}

	sim, err := di.InitializeSimulation(cfg)
	if err != nil {
		log.Fatalf("failed to initialize simulation: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
	fmt.Println(summary(cfg))
}

// summary reports the written animations. Without steps no frame is recorded
// and the sinks write nothing.
func summary(cfg *config.Simulation) string {
	if cfg.Steps == 0 {
		return "no time steps taken, no gifs written"
	}
	return fmt.Sprintf("gifs saved as %s %s", cfg.OutputV, cfg.OutputP)
}
