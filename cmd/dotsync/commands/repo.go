package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/grhansen/dotsync/cmd/dotsync/opts"
	"github.com/grhansen/dotsync/pkg/sync"
)

// NewRepoCmd creates the repo command
func NewRepoCmd(rootOpts *opts.RootOpts) *cobra.Command {
	var (
		push       bool
		commitOnly bool
		fileName   string
	)

	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Update repository dot files from the local versions",
		Long: `Repo overwrites the repository dot files with the configured local
versions, mirroring each local path in configured order so later paths win.
Copied changes are committed; with --push the commit is also pushed, unless
--commitOnly is set, which always skips the push.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "repo").Logger().WithContext(cmd.Context())

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

			rootOpts.Logger.Header("updating repository dot files from local versions")
			result, err := orchestrator.RunRepo(ctx, push, commitOnly)
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

	cmd.Flags().BoolVar(&push, "push", false, "commit and push changes to the remote after synchronizing")
	cmd.Flags().BoolVar(&commitOnly, "commitOnly", false, "commit changes but never push, even with --push")
	cmd.Flags().StringVar(&fileName, "fileName", "", "only synchronize the dot file of the specified name")

	return cmd
}
