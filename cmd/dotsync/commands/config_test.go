package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grhansen/dotsync/cmd/dotsync/opts"
	"github.com/grhansen/dotsync/pkg/config"
	"github.com/grhansen/dotsync/pkg/log"
)

func newTestOpts(t *testing.T) (*opts.RootOpts, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".dotsync.yaml")
	return &opts.RootOpts{
		Store:  config.NewStore(path),
		Logger: log.New(&bytes.Buffer{}, zerolog.Disabled),
	}, path
}

func runCmd(t *testing.T, rootOpts *opts.RootOpts, args ...string) error {
	t.Helper()
	cmd := NewConfigCmd(rootOpts)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	logger := zerolog.New(zerolog.TestWriter{T: t})
	return cmd.ExecuteContext(logger.WithContext(context.Background()))
}

func TestConfigCmd(t *testing.T) {
	t.Run("first_run_creates_settings_file", func(t *testing.T) {
		rootOpts, path := newTestOpts(t)

		err := runCmd(t, rootOpts, "--localPaths", "/home/test/one,/home/test/two")
		require.NoError(t, err, "running config command")

		_, statErr := os.Stat(path)
		require.NoError(t, statErr, "settings file should exist")

		settings, err := rootOpts.Store.Load(zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background()))
		require.NoError(t, err, "loading saved settings")
		assert.Equal(t, []string{"/home/test/one", "/home/test/two"}, settings.LocalPaths, "paths should keep flag order")
	})

	t.Run("location_appends_a_path", func(t *testing.T) {
		rootOpts, _ := newTestOpts(t)

		require.NoError(t, runCmd(t, rootOpts, "--localPaths", "/home/test/one"), "seeding settings")
		require.NoError(t, runCmd(t, rootOpts, "--location", "/home/test/two"), "appending a path")

		settings, err := rootOpts.Store.Load(zerolog.New(zerolog.TestWriter{T: t}).WithContext(context.Background()))
		require.NoError(t, err, "loading settings")
		assert.Equal(t, []string{"/home/test/one", "/home/test/two"}, settings.LocalPaths, "path should append in order")
	})

	t.Run("line_ending_is_validated", func(t *testing.T) {
		rootOpts, _ := newTestOpts(t)
		err := runCmd(t, rootOpts, "--lineEnding", "cr")
		require.Error(t, err, "unknown line ending should be rejected")
	})

	t.Run("no_flags_is_an_error", func(t *testing.T) {
		rootOpts, _ := newTestOpts(t)
		err := runCmd(t, rootOpts)
		require.Error(t, err, "running config without flags should fail")
		assert.Contains(t, err.Error(), "nothing to do", "error should explain")
	})
}
