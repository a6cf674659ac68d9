package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/farellandr/eventease/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("eventease failed")
		os.Exit(1)
	}
}
