// Package mirror implements the one-directional, overwrite-based file copy
// between the dot-file repository directory and the configured local targets.
package mirror

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 FileEntry identifies one attempted copy: a file discovered under the
// source root and the destination path it was written to.
type FileEntry struct {
	RelPath string // path relative to the walked source root
	Target  string // destination path the content was written to
}

// 📊 SyncResult reports every file a copy attempted. Per-file failures never
// abort the batch, they land in Failed keyed by the path (or relative entry)
// that could not be read or written.
type SyncResult struct {
	Copied    []FileEntry
	Unchanged []FileEntry
	Failed    map[string]error
}

// NewSyncResult returns an empty result ready to absorb copy outcomes
func NewSyncResult() *SyncResult {
	return &SyncResult{Failed: map[string]error{}}
}

// Ok reports whether every attempted file succeeded
func (r *SyncResult) Ok() bool {
	return len(r.Failed) == 0
}

// Absorb merges another result into r, preserving order
func (r *SyncResult) Absorb(other *SyncResult) {
	r.Copied = append(r.Copied, other.Copied...)
	r.Unchanged = append(r.Unchanged, other.Unchanged...)
	for path, err := range other.Failed {
		r.Failed[path] = err
	}
}

// Normalizer rewrites file content on its way to the destination
type Normalizer func([]byte) []byte

// 🪞 Mirror copies regular files between directory trees, preserving
// relative paths.
type Mirror struct {
	ignore    []string
	only      string
	normalize Normalizer
}

// Option configures a Mirror
type Option func(*Mirror)

// WithIgnoreGlobs excludes files whose slash-separated relative path matches
// any of the given doublestar patterns
func WithIgnoreGlobs(patterns []string) Option {
	return func(m *Mirror) { m.ignore = patterns }
}

// WithOnly restricts the sync to a single relative path or base name
func WithOnly(name string) Option {
	return func(m *Mirror) { m.only = name }
}

// WithNormalizer applies a content normalizer to every copied file
func WithNormalizer(n Normalizer) Option {
	return func(m *Mirror) { m.normalize = n }
}

// New creates a Mirror
func New(opts ...Option) *Mirror {
	m := &Mirror{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// 📋 List walks root recursively and returns the sorted relative paths of
// every regular file, minus .git contents, ignore-glob matches and anything
// excluded by the only-filter. The listing is recomputed on every call.
func (m *Mirror) List(ctx context.Context, root string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Errorf("listing directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("%s is not a directory", root)
	}

	var rels []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug().Str("path", path).Err(err).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Errorf("resolving relative path for %s: %w", path, err)
		}
		if m.only != "" && rel != m.only && filepath.Base(rel) != m.only {
			return nil
		}
		if m.shouldIgnore(ctx, rel) {
			return nil
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(rels)
	return rels, nil
}

// 🏃 CopyAll copies every listed file under source to the same relative path
// under every destination, creating parent directories as needed. Existing
// destination files are unconditionally overwritten, except byte-identical
// content is left alone and recorded as Unchanged. The returned error covers
// only whole-batch problems such as a missing source directory; per-file
// failures are collected in the result and never abort the batch.
func (m *Mirror) CopyAll(ctx context.Context, source string, destinations []string) (*SyncResult, error) {
	rels, err := m.List(ctx, source)
	if err != nil {
		return nil, err
	}
	return m.copySet(ctx, source, rels, destinations, false), nil
}

// 🎯 CopySet copies the named relative paths from source into every
// destination. Entries the source does not have are skipped silently, which
// lets several source trees contribute to one destination in order without
// each needing the full file set.
func (m *Mirror) CopySet(ctx context.Context, source string, rels []string, destinations []string) *SyncResult {
	return m.copySet(ctx, source, rels, destinations, true)
}

func (m *Mirror) copySet(ctx context.Context, source string, rels []string, destinations []string, missingOK bool) *SyncResult {
	logger := zerolog.Ctx(ctx)
	result := NewSyncResult()

	for _, rel := range rels {
		content, err := os.ReadFile(filepath.Join(source, rel))
		if err != nil {
			if missingOK && os.IsNotExist(err) {
				continue
			}
			result.Failed[rel] = errors.Errorf("reading source: %w", err)
			continue
		}
		if m.normalize != nil {
			content = m.normalize(content)
		}
		for _, dest := range destinations {
			m.copyOne(FileEntry{RelPath: rel, Target: filepath.Join(dest, rel)}, content, result)
		}
	}

	logger.Debug().
		Str("source", source).
		Int("copied", len(result.Copied)).
		Int("unchanged", len(result.Unchanged)).
		Int("failed", len(result.Failed)).
		Msg("mirror finished")

	return result
}

// copyOne writes content to one destination, recording the outcome
func (m *Mirror) copyOne(entry FileEntry, content []byte, result *SyncResult) {
	existing, err := os.ReadFile(entry.Target)
	if err == nil && bytes.Equal(existing, content) {
		result.Unchanged = append(result.Unchanged, entry)
		return
	}

	if err := os.MkdirAll(filepath.Dir(entry.Target), 0o755); err != nil {
		result.Failed[entry.Target] = errors.Errorf("creating parent directories: %w", err)
		return
	}
	if err := os.WriteFile(entry.Target, content, 0o644); err != nil {
		result.Failed[entry.Target] = errors.Errorf("writing destination: %w", err)
		return
	}
	result.Copied = append(result.Copied, entry)
}

// shouldIgnore checks the relative path against the configured globs
func (m *Mirror) shouldIgnore(ctx context.Context, rel string) bool {
	if len(m.ignore) == 0 {
		return false
	}
	logger := zerolog.Ctx(ctx)
	slashed := filepath.ToSlash(rel)
	for _, pattern := range m.ignore {
		matched, err := doublestar.Match(pattern, slashed)
		if err != nil {
			logger.Debug().Str("pattern", pattern).Str("path", slashed).Err(err).Msg("error matching pattern")
			continue
		}
		if matched {
			logger.Debug().Str("file", slashed).Str("pattern", pattern).Msg("file ignored by pattern")
			return true
		}
	}
	return false
}
