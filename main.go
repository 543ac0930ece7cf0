package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tpgainz/sirene-search/runner"
	"github.com/tpgainz/sirene-search/runner/webrunner"
	"github.com/tpgainz/sirene-search/runner/workerrunner"
)

func main() {
	if _, err := os.Stat("/.dockerenv"); os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: Error loading .env file: %v (continuing without it)", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	runner.Banner()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan

		log.Println("Received signal, shutting down...")

		cancel()
	}()

	cfg := runner.ParseConfig()

	runnerInstance, err := runnerFactory(cfg)
	if err != nil {
		cancel()
		os.Stderr.WriteString(err.Error() + "\n")

		os.Exit(1)
	}

	if err := runnerInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Stderr.WriteString(err.Error() + "\n")

		_ = runnerInstance.Close(ctx)

		cancel()

		os.Exit(1)
	}

	_ = runnerInstance.Close(ctx)

	cancel()

	os.Exit(0)
}

func runnerFactory(cfg *runner.Config) (runner.Runner, error) {
	switch cfg.RunMode {
	case runner.RunModeWeb:
		return webrunner.New(cfg)
	case runner.RunModeWorker, runner.RunModeProduce:
		return workerrunner.New(cfg)
	default:
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}
}
