package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "creating parent dirs")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "writing %s", rel)
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err, "reading %s", rel)
	return string(data)
}

func TestList(t *testing.T) {
	ctx := setupTestLogger(t)

	t.Run("lists_regular_files_recursively", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".vimrc", "set nocompatible\n")
		writeFile(t, root, filepath.Join(".config", "app", "settings.toml"), "answer = 42\n")
		writeFile(t, root, filepath.Join(".git", "HEAD"), "ref: refs/heads/main\n")
		require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755), "creating empty dir")

		rels, err := New().List(ctx, root)
		require.NoError(t, err, "listing files")
		assert.Equal(t, []string{filepath.Join(".config", "app", "settings.toml"), ".vimrc"}, rels,
			"listing should be sorted, recursive and skip .git")
	})

	t.Run("applies_ignore_globs", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".vimrc", "a\n")
		writeFile(t, root, ".vimrc.swp", "b\n")
		writeFile(t, root, filepath.Join(".config", "junk.swp"), "c\n")

		rels, err := New(WithIgnoreGlobs([]string{"**/*.swp", "*.swp"})).List(ctx, root)
		require.NoError(t, err, "listing files")
		assert.Equal(t, []string{".vimrc"}, rels, "swap files should be ignored")
	})

	t.Run("only_filter_matches_rel_path_and_base_name", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".vimrc", "a\n")
		writeFile(t, root, filepath.Join(".config", "app", "settings.toml"), "b\n")

		rels, err := New(WithOnly("settings.toml")).List(ctx, root)
		require.NoError(t, err, "listing by base name")
		assert.Equal(t, []string{filepath.Join(".config", "app", "settings.toml")}, rels, "base name should match nested file")

		rels, err = New(WithOnly(".vimrc")).List(ctx, root)
		require.NoError(t, err, "listing by relative path")
		assert.Equal(t, []string{".vimrc"}, rels, "relative path should match")
	})

	t.Run("missing_root_errors", func(t *testing.T) {
		_, err := New().List(ctx, filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err, "missing root should error")
	})
}

func TestCopyAll(t *testing.T) {
	ctx := setupTestLogger(t)

	t.Run("copies_to_every_destination", func(t *testing.T) {
		source := t.TempDir()
		destA := t.TempDir()
		destB := t.TempDir()
		writeFile(t, source, ".vimrc", "set nocompatible\n")
		writeFile(t, source, filepath.Join(".config", "app", "settings.toml"), "answer = 42\n")

		result, err := New().CopyAll(ctx, source, []string{destA, destB})
		require.NoError(t, err, "copying files")
		require.True(t, result.Ok(), "no file should fail")
		assert.Len(t, result.Copied, 4, "two files times two destinations")

		for _, dest := range []string{destA, destB} {
			assert.Equal(t, "set nocompatible\n", readFile(t, dest, ".vimrc"), "content should be byte-identical")
			assert.Equal(t, "answer = 42\n", readFile(t, dest, filepath.Join(".config", "app", "settings.toml")),
				"nested content should be byte-identical")
		}
	})

	t.Run("overwrites_existing_destination_files", func(t *testing.T) {
		source := t.TempDir()
		dest := t.TempDir()
		writeFile(t, source, ".vimrc", "new\n")
		writeFile(t, dest, ".vimrc", "old\n")

		result, err := New().CopyAll(ctx, source, []string{dest})
		require.NoError(t, err, "copying files")
		assert.Len(t, result.Copied, 1, "differing file should be overwritten")
		assert.Equal(t, "new\n", readFile(t, dest, ".vimrc"), "destination should hold the source content")
	})

	t.Run("identical_content_recorded_unchanged", func(t *testing.T) {
		source := t.TempDir()
		dest := t.TempDir()
		writeFile(t, source, ".vimrc", "same\n")
		writeFile(t, dest, ".vimrc", "same\n")

		result, err := New().CopyAll(ctx, source, []string{dest})
		require.NoError(t, err, "copying files")
		assert.Empty(t, result.Copied, "identical file should not be rewritten")
		require.Len(t, result.Unchanged, 1, "identical file should be recorded")
		assert.Equal(t, ".vimrc", result.Unchanged[0].RelPath, "unchanged entry should name the file")
	})

	t.Run("per_file_failure_does_not_abort_batch", func(t *testing.T) {
		source := t.TempDir()
		dest := t.TempDir()
		writeFile(t, source, ".vimrc", "a\n")
		writeFile(t, source, filepath.Join("blocked", "file"), "b\n")
		// A regular file where a directory is needed makes that one copy fail
		writeFile(t, dest, "blocked", "in the way\n")

		result, err := New().CopyAll(ctx, source, []string{dest})
		require.NoError(t, err, "batch should not abort")
		assert.Len(t, result.Copied, 1, "the unblocked file should still be copied")
		require.Len(t, result.Failed, 1, "the blocked file should be recorded")
		assert.Equal(t, "a\n", readFile(t, dest, ".vimrc"), "unblocked content should land")
	})

	t.Run("applies_normalizer", func(t *testing.T) {
		source := t.TempDir()
		dest := t.TempDir()
		writeFile(t, source, ".vimrc", "one\r\ntwo\r\n")

		_, err := New(WithNormalizer(NormalizeLF)).CopyAll(ctx, source, []string{dest})
		require.NoError(t, err, "copying files")
		assert.Equal(t, "one\ntwo\n", readFile(t, dest, ".vimrc"), "CRLF should become LF")
	})
}

func TestCopySet(t *testing.T) {
	ctx := setupTestLogger(t)

	t.Run("skips_entries_the_source_lacks", func(t *testing.T) {
		source := t.TempDir()
		dest := t.TempDir()
		writeFile(t, source, ".vimrc", "a\n")

		result := New().CopySet(ctx, source, []string{".vimrc", ".bashrc"}, []string{dest})
		assert.True(t, result.Ok(), "missing source entries are not failures")
		assert.Len(t, result.Copied, 1, "present entry should copy")
	})

	t.Run("later_sources_overwrite_earlier_ones", func(t *testing.T) {
		sourceA := t.TempDir()
		sourceB := t.TempDir()
		dest := t.TempDir()
		writeFile(t, sourceA, "x", "from A\n")
		writeFile(t, sourceB, "x", "from B\n")

		m := New()
		m.CopySet(ctx, sourceA, []string{"x"}, []string{dest})
		m.CopySet(ctx, sourceB, []string{"x"}, []string{dest})
		assert.Equal(t, "from B\n", readFile(t, dest, "x"), "last write should win")
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		fn   Normalizer
		in   string
		want string
	}{
		{name: "lf_from_crlf", fn: NormalizeLF, in: "a\r\nb\r\n", want: "a\nb\n"},
		{name: "lf_leaves_lf_alone", fn: NormalizeLF, in: "a\nb\n", want: "a\nb\n"},
		{name: "crlf_from_lf", fn: NormalizeCRLF, in: "a\nb\n", want: "a\r\nb\r\n"},
		{name: "crlf_leaves_crlf_alone", fn: NormalizeCRLF, in: "a\r\nb\r\n", want: "a\r\nb\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(tt.fn([]byte(tt.in))), "normalized content should match")
		})
	}
}
