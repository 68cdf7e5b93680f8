// Command warpgridd boots a shim host engine with in-process default
// configuration and instantiates one component against it, demonstrating
// the wiring sequence without a packaging/config-loading wrapper around
// it (guest packaging and TOML config loading are handled by a separate,
// out-of-scope tool).
package main

import (
	"context"
	"os"

	"github.com/dotindustries/warpgrid-sub001/internal/config"
	"github.com/dotindustries/warpgrid-sub001/internal/engine"
	"github.com/dotindustries/warpgrid-sub001/internal/logging"
)

func main() {
	logging.Init(logging.Config{Level: logging.InfoLevel})
	log := logging.Component("main")

	// A missing configuration object means every shim runs at its
	// defaults.
	cfg := config.DefaultConfig()

	e := engine.New(cfg)

	inst, err := e.Instantiate(context.Background(), "", map[string]bool{
		"filesystem": true,
		"dns":        true,
		"signals":    true,
		"db-proxy":   true,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to instantiate guest component")
		os.Exit(1)
	}
	defer inst.Close()

	log.Info().Str("instance", inst.ID).Msg("shim host core ready")
}
