package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/grhansen/dotsync/cmd/dotsync/opts"
	"github.com/grhansen/dotsync/pkg/config"
)

// NewConfigCmd creates the config command
func NewConfigCmd(rootOpts *opts.RootOpts) *cobra.Command {
	var (
		localPaths string
		location   string
		repoDir    string
		lineEnding string
		list       bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Store the dotsync settings",
		Long: `Config creates or updates the persisted settings. The settings file is
created on first use; every later local/repo run reads it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "config").Logger().WithContext(cmd.Context())

			settings, err := rootOpts.Store.Load(ctx)
			if errors.Is(err, config.ErrSettingsMissing) {
				// First invocation creates the settings file
				settings = &config.Settings{}
			} else if err != nil {
				return err
			}

			if list {
				printSettings(rootOpts.Store.Path(), settings)
				return nil
			}

			changed := false
			if localPaths != "" {
				settings.LocalPaths = splitPaths(localPaths)
				changed = true
			}
			if location != "" {
				settings.AddLocalPath(location)
				changed = true
			}
			if repoDir != "" {
				settings.SetRepoDir(repoDir)
				changed = true
			}
			if lineEnding != "" {
				ending, err := config.ParseLineEnding(lineEnding)
				if err != nil {
					return err
				}
				settings.SetLineEnding(ending)
				changed = true
			}

			if !changed {
				return errors.Errorf("nothing to do: pass --localPaths, --location, --repoDir, --lineEnding or --list")
			}

			if err := rootOpts.Store.Save(ctx, settings); err != nil {
				return err
			}
			rootOpts.Logger.Successf("settings saved to %s", rootOpts.Store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&localPaths, "localPaths", "", "comma-separated ordered list of local dot file directories")
	cmd.Flags().StringVar(&location, "location", "", "append one local dot file directory")
	cmd.Flags().StringVar(&repoDir, "repoDir", "", "dot file directory inside the repository checkout")
	cmd.Flags().StringVar(&lineEnding, "lineEnding", "", "line ending to normalize repo files with: none, lf, crlf")
	cmd.Flags().BoolVar(&list, "list", false, "display the current settings")

	return cmd
}

// splitPaths splits a comma-separated flag value, dropping empty segments
func splitPaths(value string) []string {
	var paths []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// printSettings renders the current settings as a table
func printSettings(path string, settings *config.Settings) {
	if len(settings.LocalPaths) == 0 && settings.RepoDir == "" {
		pterm.Info.Println("<EMPTY CONFIG>")
		return
	}

	data := pterm.TableData{
		{"setting", "value"},
		{"repo_dir", settings.RepoDir},
		{"local_paths", strings.Join(settings.LocalPaths, ", ")},
		{"line_ending", string(settings.LineEnding)},
	}
	if len(settings.Ignore) > 0 {
		data = append(data, []string{"ignore", strings.Join(settings.Ignore, ", ")})
	}

	pterm.Info.Printfln("settings from %s", path)
	// Render errors only happen with a broken writer, nothing to recover here
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
