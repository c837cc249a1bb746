// Package main is the entry point for the gamebridge runner, the
// tray-owning process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/gamebridge/internal/app"
	"github.com/dshills/gamebridge/internal/config"
	"github.com/dshills/gamebridge/internal/ipc"
	"github.com/dshills/gamebridge/internal/logging"
	"github.com/dshills/gamebridge/internal/platform"
	"github.com/dshills/gamebridge/internal/shortcut"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", config.DefaultPath(), "path to configuration file")
	logLevel := flag.String("log-level", "", "override log level (debug, info, warn, error)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Output: os.Stderr,
		Prefix: "gamebridge",
	})

	// Leader election: only the lock holder owns the tray, hook, and
	// endpoint. A loser focuses the running instance and exits.
	lock, err := platform.AcquireLock(cfg.EndpointName)
	if err != nil {
		if errors.Is(err, platform.ErrLockHeld) {
			return focusExisting(cfg, log)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer lock.Release()

	var runner *app.Runner
	hotkeys := platform.NewHotkeyCenter(func(c shortcut.Chord) {
		if runner != nil {
			runner.OnChord(c)
		}
	})
	defer hotkeys.Close()

	runner = app.NewRunner(cfg,
		platform.NewKeyboardTap(),
		platform.NewInputSynthesizer(),
		hotkeys,
		platform.KeyHeld,
		log,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			return focusExisting(cfg, log)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// focusExisting tells the running instance to come to the front.
func focusExisting(cfg config.Config, log *logging.Logger) int {
	log.Info("another instance is running, focusing it")

	conn, err := ipc.Dial(ipc.Endpoint(cfg.EndpointName), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: instance running but unreachable: %v\n", err)
		return 1
	}
	defer conn.Close()

	if err := conn.Send(ipc.BringMainToFront{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
