package main

import (
	"log"
	"os"

	"visitledger/internal/config"
	"visitledger/internal/logging"
	"visitledger/internal/store"
	"visitledger/internal/ui"
)

func main() {
	cfgStore, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logDir, err := config.Dir()
	if err != nil {
		log.Fatalf("resolve config dir: %v", err)
	}
	logger, closer, err := logging.Open(logDir)
	if err != nil {
		log.Fatalf("open log: %v", err)
	}
	defer closer.Close()

	client := store.NewClient(cfgStore.Config.Endpoint, logger)
	st := store.NewStore(client)

	program := ui.NewProgram(st, cfgStore, logger)
	if err := program.Start(); err != nil {
		logger.Error().Err(err).Msg("program terminated")
		log.Println("program terminated:", err)
		os.Exit(1)
	}
}
