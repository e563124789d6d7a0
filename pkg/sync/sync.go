// Package sync composes the settings, the file mirror and the git bridge
// into the local and repo pipelines behind the two sync sub-commands.
package sync

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/grhansen/dotsync/pkg/config"
	"github.com/grhansen/dotsync/pkg/mirror"
	"github.com/grhansen/dotsync/pkg/vcs"
)

// Options contains the collaborators for an Orchestrator
type Options struct {
	// Settings is the configuration for this invocation, taken by value so
	// no later mutation can leak in
	Settings config.Settings

	// Git is the version-control bridge; tests substitute a double
	Git vcs.Git

	// Only restricts the sync to a single relative path or base name
	Only string
}

// 🎮 Orchestrator runs one sync invocation
type Orchestrator struct {
	settings config.Settings
	git      vcs.Git
	only     string
}

// 🏭 New creates an orchestrator with the given options
func New(opts Options) (*Orchestrator, error) {
	if opts.Git == nil {
		return nil, errors.Errorf("git bridge is required")
	}
	return &Orchestrator{
		settings: opts.Settings,
		git:      opts.Git,
		only:     opts.Only,
	}, nil
}

// 🏃 RunLocal overwrites the configured local dot files with the repository
// versions. With pull set, the repository is pulled first; a failed pull
// aborts before any file is touched, since copying from a possibly-stale
// checkout would be misleading.
func (o *Orchestrator) RunLocal(ctx context.Context, pull bool) (*mirror.SyncResult, error) {
	logger := zerolog.Ctx(ctx)

	if err := o.checkTargets(); err != nil {
		return nil, err
	}

	if pull {
		outcome, err := o.git.Pull(ctx, o.settings.RepoDir)
		if err != nil {
			return nil, errors.Errorf("pulling before sync: %w", err)
		}
		logger.Info().Str("output", outcome.Message).Msg("pulled repository")
	}

	m := o.newMirror(nil)
	return m.CopyAll(ctx, o.settings.RepoDir, o.settings.LocalPaths)
}

// 🏃 RunRepo overwrites the repository dot files with the local versions.
// The file set is always defined by the repository directory: only entries
// already stored there are picked up from the local paths, so seeding the
// repository decides what gets synchronized. Each configured local path is
// mirrored in order, later paths overwriting earlier ones' contributions.
// Anything copied is committed; the commit is pushed only when push is set
// and commitOnly is not.
func (o *Orchestrator) RunRepo(ctx context.Context, push, commitOnly bool) (*mirror.SyncResult, error) {
	logger := zerolog.Ctx(ctx)

	if err := o.checkTargets(); err != nil {
		return nil, err
	}

	normalizer, err := normalizerFor(o.settings.LineEnding)
	if err != nil {
		return nil, err
	}
	m := o.newMirror(normalizer)

	entries, err := m.List(ctx, o.settings.RepoDir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		logger.Info().Str("repo_dir", o.settings.RepoDir).Msg("no files stored in the repository, nothing to sync")
		return mirror.NewSyncResult(), nil
	}

	willPush := push && !commitOnly

	if willPush {
		// Overwrite protection: refuse to clobber repo files that just
		// changed upstream. Re-running the command accepts the overwrite.
		outcome, err := o.git.Pull(ctx, o.settings.RepoDir)
		if err != nil {
			return nil, errors.Errorf("checking remote before overwrite: %w", err)
		}
		if pulledChanges(outcome) {
			return nil, errors.Errorf(
				"remote changes were just pulled into %s; repeat the command if overwriting is intended:\n%s",
				o.settings.RepoDir, outcome.Message)
		}
	}

	result := mirror.NewSyncResult()
	found := map[string]bool{}
	for _, localPath := range o.settings.LocalPaths {
		r := m.CopySet(ctx, localPath, entries, []string{o.settings.RepoDir})
		for _, entry := range r.Copied {
			found[entry.RelPath] = true
		}
		for _, entry := range r.Unchanged {
			found[entry.RelPath] = true
		}
		result.Absorb(r)
	}
	for _, rel := range entries {
		if !found[rel] {
			if _, failed := result.Failed[rel]; !failed {
				result.Failed[rel] = errors.Errorf("no local file matches %q in any configured path", rel)
			}
		}
	}

	if len(result.Copied) == 0 {
		logger.Info().Msg("repository already matches local files, skipping commit")
		return result, nil
	}

	outcome, err := o.git.Commit(ctx, o.settings.RepoDir, commitMessage(result))
	if err != nil {
		if errors.Is(err, vcs.ErrNothingToCommit) {
			logger.Info().Str("output", outcome.Message).Msg("nothing to commit")
			return result, nil
		}
		return result, errors.Errorf("committing dot files: %w", err)
	}
	logger.Info().Str("output", outcome.Message).Msg("committed dot files")

	if willPush {
		outcome, err := o.git.Push(ctx, o.settings.RepoDir)
		if err != nil {
			return result, errors.Errorf("pushing dot files: %w", err)
		}
		logger.Info().Str("output", outcome.Message).Msg("pushed dot files")
	}

	return result, nil
}

// checkTargets enforces the invariant that local targets are configured and
// the repo dir exists before either direction runs
func (o *Orchestrator) checkTargets() error {
	if len(o.settings.LocalPaths) == 0 {
		return errors.Errorf("no local paths configured; run 'dotsync config' first")
	}
	info, err := os.Stat(o.settings.RepoDir)
	if err != nil {
		return errors.Errorf("repository location %s: %w", o.settings.RepoDir, err)
	}
	if !info.IsDir() {
		return errors.Errorf("repository location %s is not a directory", o.settings.RepoDir)
	}
	return nil
}

// newMirror builds a mirror with this invocation's filters
func (o *Orchestrator) newMirror(normalizer mirror.Normalizer) *mirror.Mirror {
	return mirror.New(
		mirror.WithIgnoreGlobs(o.settings.Ignore),
		mirror.WithOnly(o.only),
		mirror.WithNormalizer(normalizer),
	)
}

// normalizerFor maps the configured line ending onto a mirror normalizer
func normalizerFor(e config.LineEnding) (mirror.Normalizer, error) {
	switch e {
	case config.LineEndingNone, "":
		return nil, nil
	case config.LineEndingLF:
		return mirror.NormalizeLF, nil
	case config.LineEndingCRLF:
		return mirror.NormalizeCRLF, nil
	default:
		return nil, errors.Errorf("unknown line ending %q", e)
	}
}

// pulledChanges reports whether a successful pull brought anything down
func pulledChanges(outcome vcs.Outcome) bool {
	msg := strings.TrimSpace(outcome.Message)
	return msg != "" && !strings.Contains(msg, "Already up to date")
}

// commitMessage names every updated file, deduplicated and sorted
func commitMessage(result *mirror.SyncResult) string {
	seen := map[string]bool{}
	var names []string
	for _, entry := range result.Copied {
		if !seen[entry.RelPath] {
			seen[entry.RelPath] = true
			names = append(names, fmt.Sprintf("'%s'", entry.RelPath))
		}
	}
	sort.Strings(names)
	return fmt.Sprintf("[dotsync] Updating dot files: %s", strings.Join(names, ", "))
}
