package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/grhansen/dotsync/cmd/dotsync/opts"
	"github.com/grhansen/dotsync/pkg/config"
	"github.com/grhansen/dotsync/pkg/log"
	"github.com/grhansen/dotsync/pkg/vcs"
)

var (
	// Flags
	settingsFile string
	debug        bool
)

// newRootOpts creates a new RootOpts with initialized dependencies
func newRootOpts(ctx context.Context) *opts.RootOpts {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return &opts.RootOpts{
		Store:  config.NewStore(settingsFile),
		Git:    vcs.NewShellGit(),
		Logger: log.New(os.Stdout, level),
	}
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&settingsFile, "config", "c", config.DefaultSettingsFile, "settings file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
}
