package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/grhansen/dotsync/cmd/dotsync/opts"
	"github.com/grhansen/dotsync/pkg/sync"
)

// NewLocalCmd creates the local command
func NewLocalCmd(rootOpts *opts.RootOpts) *cobra.Command {
	var (
		pull     bool
		fileName string
	)

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Update local dot files from the repository",
		Long: `Local overwrites the configured local dot files with the versions stored
in the repository directory. With --pull the repository is pulled first; a
failed pull aborts before any local file is touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "local").Logger().WithContext(cmd.Context())

			settings, err := rootOpts.Store.Load(ctx)
			if err != nil {
				return err
			}

			orchestrator, err := sync.New(sync.Options{
				Settings: *settings,
				Git:      rootOpts.Git,
				Only:     fileName,
			})
			if err != nil {
				return err
			}

			rootOpts.Logger.Header("updating local dot files from the repository")
			result, err := orchestrator.RunLocal(ctx, pull)
			if err != nil {
				return err
			}

			rootOpts.Logger.LogSyncResult(result)
			if !result.Ok() {
				return errors.Errorf("%d file(s) failed to sync", len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pull, "pull", false, "pull changes from the remote before synchronizing")
	cmd.Flags().StringVar(&fileName, "fileName", "", "only synchronize the dot file of the specified name")

	return cmd
}
