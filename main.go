package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/tphakala/reefnet-go/cmd"
	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if settings.Output.Log.Enabled {
		if err := logging.InitWithFile(settings.Output.Log.Path, slog.LevelInfo); err != nil {
			fmt.Fprintf(os.Stderr, "error initializing log file: %v\n", err)
			os.Exit(1)
		}
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
