package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/grhansen/dotsync/cmd/dotsync/commands"
	"github.com/grhansen/dotsync/cmd/dotsync/opts"
)

func main() {
	rootOpts := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "dotsync",
		Short: "A tool to simplify maintaining dot file repositories",
		Long: `dotsync mirrors your configuration ("dot") files between their local
locations and a version-controlled repository directory, optionally pulling,
committing and pushing with git around the copy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Flags are parsed by now, so logging and dependencies can be
			// wired up from them
			setupLogging()
			*rootOpts = *newRootOpts(cmd.Context())
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewConfigCmd(rootOpts),
		commands.NewLocalCmd(rootOpts),
		commands.NewRepoCmd(rootOpts),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if rootOpts.Logger != nil {
			rootOpts.Logger.Errorf("%v", err)
		} else {
			cobra.WriteStringAndCheck(os.Stderr, err.Error()+"\n")
		}
		os.Exit(1)
	}
}
