// Package config owns the persisted dotsync settings: where the dot-file
// repository lives, which local directories it is mirrored against, and how
// file content is normalized on the way into the repository.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrSettingsMissing is returned when no settings file exists yet
	ErrSettingsMissing = errors.New("settings file does not exist")

	// ErrSettingsCorrupt is returned when the settings file cannot be parsed
	ErrSettingsCorrupt = errors.New("settings file is corrupt")
)

// DefaultRepoDir is the dot-file directory inside the repository checkout,
// relative to the install root.
const DefaultRepoDir = "DotFiles"

// 🔚 LineEnding selects how file content is normalized when copied into the
// repository directory.
type LineEnding string

const (
	LineEndingNone LineEnding = "none"
	LineEndingLF   LineEnding = "lf"
	LineEndingCRLF LineEnding = "crlf"
)

// ParseLineEnding converts a user-supplied string into a LineEnding
func ParseLineEnding(s string) (LineEnding, error) {
	switch LineEnding(strings.ToLower(s)) {
	case LineEndingNone, "":
		return LineEndingNone, nil
	case LineEndingLF:
		return LineEndingLF, nil
	case LineEndingCRLF:
		return LineEndingCRLF, nil
	default:
		return "", errors.Errorf("unknown line ending %q (want none, lf or crlf)", s)
	}
}

// 📚 Settings represents the complete persisted configuration
type Settings struct {
	// RepoDir is the dot-file directory inside the repository checkout
	RepoDir string `json:"repo_dir,omitempty" yaml:"repo_dir,omitempty" hcl:"repo_dir,optional"`

	// LocalPaths are the home-directory-like targets, in sync order.
	// During a repo sync later paths overwrite earlier ones' contributions.
	LocalPaths []string `json:"local_paths" yaml:"local_paths" hcl:"local_paths,optional"`

	// LineEnding normalizes content copied into the repository
	LineEnding LineEnding `json:"line_ending,omitempty" yaml:"line_ending,omitempty" hcl:"line_ending,optional"`

	// Ignore holds doublestar globs for files excluded from every sync
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty" hcl:"ignore,optional"`
}

// ➕ AddLocalPath appends a local target path. In-memory only, the caller
// persists with Store.Save.
func (s *Settings) AddLocalPath(path string) {
	s.LocalPaths = append(s.LocalPaths, path)
}

// SetRepoDir replaces the repository dot-file directory. In-memory only.
func (s *Settings) SetRepoDir(path string) {
	s.RepoDir = path
}

// SetLineEnding replaces the normalization mode. In-memory only.
func (s *Settings) SetLineEnding(e LineEnding) {
	s.LineEnding = e
}

// 🔍 Validate checks the settings and canonicalizes paths. Local paths get
// ~ expanded and cleaned; the repo dir defaults to DefaultRepoDir.
func (s *Settings) Validate() error {
	if s.RepoDir == "" {
		s.RepoDir = DefaultRepoDir
	}
	s.RepoDir = filepath.Clean(s.RepoDir)

	for i, p := range s.LocalPaths {
		if p == "" {
			return errors.Errorf("local path %d is empty", i)
		}
		expanded, err := homedir.Expand(p)
		if err != nil {
			return errors.Errorf("expanding local path %q: %w", p, err)
		}
		s.LocalPaths[i] = filepath.Clean(expanded)
	}

	if _, err := ParseLineEnding(string(s.LineEnding)); err != nil {
		return err
	}
	if s.LineEnding == "" {
		s.LineEnding = LineEndingNone
	}

	return nil
}

// 📝 String returns a one-line summary of the settings
func (s *Settings) String() string {
	return fmt.Sprintf("%s <-> [%s] (line_ending=%s)",
		s.RepoDir, strings.Join(s.LocalPaths, ", "), s.LineEnding)
}
