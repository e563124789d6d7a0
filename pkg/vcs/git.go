// Package vcs wraps the external git binary behind a small interface so the
// sync pipeline can be tested with a double instead of a working checkout.
package vcs

import (
	"context"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Operation names one of the three git operations the bridge offers
type Operation string

const (
	OpPull   Operation = "pull"
	OpCommit Operation = "commit"
	OpPush   Operation = "push"
)

var (
	// ErrUnavailable is returned when the git binary cannot be found
	ErrUnavailable = errors.New("git is not available")

	// ErrConflict is returned when an operation cannot complete cleanly
	// against the current checkout (merge conflicts, rejected pushes)
	ErrConflict = errors.New("git operation conflicts with current state")

	// ErrNetwork is returned when the remote cannot be reached
	ErrNetwork = errors.New("git remote is unreachable")

	// ErrNothingToCommit is returned by Commit when the tree is clean.
	// Informational, callers record it instead of failing.
	ErrNothingToCommit = errors.New("nothing to commit")
)

// Outcome reports one git operation: whether it succeeded and the trimmed
// output git produced along the way.
type Outcome struct {
	Operation Operation
	Succeeded bool
	Message   string
}

// Git is the injected capability the orchestrator runs pull/commit/push
// through. repoDir is always the repository working directory.
type Git interface {
	Pull(ctx context.Context, repoDir string) (Outcome, error)
	Commit(ctx context.Context, repoDir, message string) (Outcome, error)
	Push(ctx context.Context, repoDir string) (Outcome, error)

	// Changed lists modified and untracked paths under repoDir so commit
	// messages can name them
	Changed(ctx context.Context, repoDir string) ([]string, error)
}

// ShellGit implements Git by shelling out to the git command
type ShellGit struct {
	bin string
}

// NewShellGit creates a bridge that uses the git binary on PATH
func NewShellGit() *ShellGit {
	return &ShellGit{bin: "git"}
}

// Pull runs git pull in repoDir
func (g *ShellGit) Pull(ctx context.Context, repoDir string) (Outcome, error) {
	out, err := g.run(ctx, repoDir, "pull")
	if err != nil {
		return Outcome{Operation: OpPull, Message: out}, classify(OpPull, out, err)
	}
	return Outcome{Operation: OpPull, Succeeded: true, Message: out}, nil
}

// Commit stages everything under repoDir and commits it. A clean tree
// surfaces ErrNothingToCommit with an unsuccessful Outcome.
func (g *ShellGit) Commit(ctx context.Context, repoDir, message string) (Outcome, error) {
	if out, err := g.run(ctx, repoDir, "add", "-A"); err != nil {
		return Outcome{Operation: OpCommit, Message: out}, classify(OpCommit, out, err)
	}

	out, err := g.run(ctx, repoDir, "commit", "-m", message)
	if err != nil {
		lower := strings.ToLower(out)
		if strings.Contains(lower, "nothing to commit") || strings.Contains(lower, "nothing added to commit") {
			return Outcome{Operation: OpCommit, Message: "nothing to commit"},
				errors.Errorf("committing in %s: %w", repoDir, ErrNothingToCommit)
		}
		return Outcome{Operation: OpCommit, Message: out}, classify(OpCommit, out, err)
	}
	return Outcome{Operation: OpCommit, Succeeded: true, Message: out}, nil
}

// Push runs git push in repoDir
func (g *ShellGit) Push(ctx context.Context, repoDir string) (Outcome, error) {
	out, err := g.run(ctx, repoDir, "push")
	if err != nil {
		return Outcome{Operation: OpPush, Message: out}, classify(OpPush, out, err)
	}
	return Outcome{Operation: OpPush, Succeeded: true, Message: out}, nil
}

// Changed lists modified tracked files plus untracked files, one relative
// path per line
func (g *ShellGit) Changed(ctx context.Context, repoDir string) ([]string, error) {
	out, err := g.run(ctx, repoDir, "ls-files", "--modified", "--others", "--exclude-standard")
	if err != nil {
		return nil, classify(OpCommit, out, err)
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

// run executes git -C repoDir args... and returns the trimmed combined output
func (g *ShellGit) run(ctx context.Context, repoDir string, args ...string) (string, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("dir", repoDir).Strs("args", args).Msg("running git")

	cmd := exec.CommandContext(ctx, g.bin, append([]string{"-C", repoDir}, args...)...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// classify folds the exec error and git's output into the bridge's error
// taxonomy, keeping the raw output in the message.
func classify(op Operation, out string, err error) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return errors.Errorf("%w: %v", ErrUnavailable, err)
	}

	lower := strings.ToLower(out)
	switch {
	case containsAny(lower,
		"could not resolve host",
		"could not read from remote repository",
		"connection refused",
		"connection timed out",
		"network is unreachable",
		"operation timed out"):
		return errors.Errorf("%w: git %s: %s", ErrNetwork, op, out)
	case containsAny(lower,
		"conflict",
		"automatic merge failed",
		"your local changes",
		"needs merge",
		"non-fast-forward",
		"fetch first",
		"not possible to fast-forward"):
		return errors.Errorf("%w: git %s: %s", ErrConflict, op, out)
	default:
		return errors.Errorf("git %s failed: %w: %s", op, err, out)
	}
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
