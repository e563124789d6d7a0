package config

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the settings file looked up next to the repository
// root when no --config flag is given.
const DefaultSettingsFile = ".dotsync.yaml"

// 🗄️ Store loads and saves the settings file. The format is determined by
// the file extension:
// - .json for JSON
// - .yaml or .yml for YAML
// - .hcl for HCL (read-only, hand-written configs)
type Store struct {
	path string
}

// NewStore creates a store for the settings file at path
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultSettingsFile
	}
	return &Store{path: path}
}

// Path returns the settings file location
func (s *Store) Path() string {
	return s.path
}

// 🎯 Load reads the settings file. A missing file surfaces ErrSettingsMissing
// so first runs can be told apart from broken ones, which surface
// ErrSettingsCorrupt.
func (s *Store) Load(ctx context.Context) (*Settings, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", s.path).Msg("loading settings")

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("%w: %s", ErrSettingsMissing, s.path)
		}
		return nil, errors.Errorf("reading settings file: %w", err)
	}

	var settings *Settings
	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ".json":
		settings, err = loadJSON(data)
	case ".yaml", ".yml", "":
		settings, err = loadYAML(data)
	case ".hcl":
		settings, err = loadHCL(data, s.path)
	default:
		return nil, errors.Errorf("unsupported settings file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, errors.Errorf("validating settings: %w", err)
	}

	return settings, nil
}

// 💾 Save persists the settings atomically: the bytes land in a temp file in
// the same directory and are renamed over the settings file, so a crash
// mid-write never leaves a half-written file behind.
func (s *Store) Save(ctx context.Context, settings *Settings) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", s.path).Msg("saving settings")

	if err := settings.Validate(); err != nil {
		return errors.Errorf("validating settings: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(s.path)); ext {
	case ".json":
		data, err = json.MarshalIndent(settings, "", "  ")
	case ".yaml", ".yml", "":
		data, err = yaml.Marshal(settings)
	case ".hcl":
		return errors.Errorf("refusing to overwrite hand-written HCL settings %s; use a .yaml or .json settings file", s.path)
	default:
		return errors.Errorf("unsupported settings file extension %q", ext)
	}
	if err != nil {
		return errors.Errorf("encoding settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".dotsync-settings-*")
	if err != nil {
		return errors.Errorf("creating temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Errorf("writing temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Errorf("closing temp settings file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Errorf("setting settings file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Errorf("replacing settings file: %w", err)
	}

	return nil
}

// loadJSON loads settings from JSON data
func loadJSON(data []byte) (*Settings, error) {
	var settings Settings
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&settings); err != nil {
		return nil, errors.Errorf("%w: parsing JSON: %v", ErrSettingsCorrupt, err)
	}
	return &settings, nil
}

// loadYAML loads settings from YAML data
func loadYAML(data []byte) (*Settings, error) {
	var settings Settings
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&settings); err != nil {
		return nil, errors.Errorf("%w: parsing YAML: %v", ErrSettingsCorrupt, err)
	}
	return &settings, nil
}

// loadHCL loads settings from HCL data
func loadHCL(data []byte, filename string) (*Settings, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("%w: parsing HCL: %s", ErrSettingsCorrupt, diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var settings Settings
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &settings)
	if diags.HasErrors() {
		return nil, errors.Errorf("%w: decoding HCL: %s", ErrSettingsCorrupt, diags.Error())
	}

	return &settings, nil
}
