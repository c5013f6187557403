//go:build ebiten

package main

import (
	"errors"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"

	"mad-cpm/internal/app"
	"mad-cpm/internal/core"
	_ "mad-cpm/internal/sims/tissue"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel, Prefix: "ca"})

	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("bad flags", "err", err)
	}

	sim, err := core.Open(cfg.Sim, cfg.SimParams())
	if err != nil {
		logger.Fatal("open sim", "sim", cfg.Sim, "err", err)
	}

	game := app.New(sim, cfg, logger)
	size := sim.Size()

	ebiten.SetWindowTitle("mad-cpm - " + sim.Name())
	ebiten.SetWindowSize(size.W*cfg.Scale+max(cfg.HUDWidth, 0), size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("viewer stopped", "err", err)
	}
}
