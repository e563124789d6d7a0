// Package opts holds the shared dependencies handed to every sub-command.
package opts

import (
	"github.com/grhansen/dotsync/pkg/config"
	"github.com/grhansen/dotsync/pkg/log"
	"github.com/grhansen/dotsync/pkg/vcs"
)

// RootOpts contains the dependencies shared by all commands. The settings
// store stays unloaded here so the config command works on a first run,
// before any settings file exists.
type RootOpts struct {
	Store  *config.Store
	Git    vcs.Git
	Logger *log.Logger
}
