// Package config loads keyboard definitions.
//
// A keyboard is described by one TOML or YAML file (see File) holding the
// matrix size, layers, tap-hold timing, combos, tap dances, leader
// sequences, custom keycodes and feature options. Loading runs in four
// steps:
//
//  1. loader reads the file and its includes into a generic map
//  2. KEYWEAVE_ environment variables override timing values
//  3. the map is decoded strictly into File; unknown keys are errors
//  4. the File is compiled into an engine.Config, resolving every keycode
//     and name reference and collecting all problems as ValidationErrors
package config

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dshills/keyweave/internal/config/loader"
	"github.com/dshills/keyweave/internal/engine"
	"github.com/dshills/keyweave/internal/logging"
)

// SchemaVersion is the file format version written by this build.
const SchemaVersion = "1.0"

// SupportedVersions is the range of schema_version values this build reads.
const SupportedVersions = ">= 1.0, < 2.0"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "KEYWEAVE_"

// envMapping maps short environment names to timing fields. Any other
// KEYWEAVE_TIMING_* variable maps to the field of the same name.
var envMapping = map[string]string{
	"KEYWEAVE_TAPPING_TERM":       "timing.tapping_term",
	"KEYWEAVE_QUICK_TAP_TERM":     "timing.quick_tap_term",
	"KEYWEAVE_COMBO_TERM":         "timing.combo_term",
	"KEYWEAVE_TAP_DANCE_TERM":     "timing.tap_dance_term",
	"KEYWEAVE_LEADER_TIMEOUT":     "timing.leader_timeout",
	"KEYWEAVE_LAYER_LOCK_TIMEOUT": "timing.layer_lock_timeout",
}

// Keyboard is a compiled keyboard definition.
type Keyboard struct {
	Name string

	// Path is the file the keyboard was loaded from.
	Path string

	// Version is the file's schema_version.
	Version *semver.Version

	Engine engine.Config

	// Script is the path of the Lua file, or "" when there is none.
	Script string
}

// Loader loads keyboard files.
type Loader struct {
	fs  loader.FileSystem
	env bool
	log *logrus.Entry
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS reads files from fsys instead of the OS.
func WithFS(fsys loader.FileSystem) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithoutEnv disables environment overrides.
func WithoutEnv() Option {
	return func(l *Loader) {
		l.env = false
	}
}

// WithLogger sets the logger.
func WithLogger(log *logrus.Entry) Option {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{fs: loader.DefaultFS(), env: true}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logging.WithComponent(l.log, "config")
	return l
}

// Load reads and compiles the keyboard at path using the default loader.
func Load(path string) (*Keyboard, error) {
	return NewLoader().Load(path)
}

// Load reads and compiles the keyboard at path.
func (l *Loader) Load(path string) (*Keyboard, error) {
	raw, err := loader.New(l.fs).Load(path)
	if err != nil {
		return nil, err
	}
	return l.build(path, raw)
}

// Parse compiles a keyboard from data in the given format. Includes are
// not resolved.
func (l *Loader) Parse(format loader.Format, data []byte) (*Keyboard, error) {
	raw, err := loader.Parse(format, "<input>", data)
	if err != nil {
		return nil, err
	}
	return l.build("", raw)
}

func (l *Loader) build(path string, raw map[string]any) (*Keyboard, error) {
	if l.env {
		env := loader.NewEnvLoader(EnvPrefix, "timing")
		for name, field := range envMapping {
			env.AddMapping(name, field)
		}
		overrides, err := env.Load()
		if err != nil {
			return nil, err
		}
		if len(overrides) > 0 {
			l.log.WithField("overrides", overrides).Debug("environment overrides")
		}
		raw = loader.DeepMerge(raw, overrides)
	}

	file, err := decode(path, raw)
	if err != nil {
		return nil, err
	}

	version, err := checkVersion(file.SchemaVersion)
	if err != nil {
		return nil, &ValidationError{Path: path, Field: "schema_version", Err: err}
	}

	kb, err := compile(path, file)
	if err != nil {
		return nil, err
	}
	kb.Version = version

	l.log.WithFields(logrus.Fields{
		"path":    path,
		"name":    kb.Name,
		"layers":  kb.Engine.Keymap.Len(),
		"combos":  len(kb.Engine.Combos),
		"dances":  len(kb.Engine.Dances),
		"leaders": len(kb.Engine.Patterns),
	}).Debug("keyboard loaded")
	return kb, nil
}

// decode converts the generic map into a File. The map is re-encoded as
// YAML so that TOML and YAML input share one strict decoder.
func decode(path string, raw map[string]any) (*File, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		var terr *yaml.TypeError
		if errors.As(err, &terr) {
			return nil, &ValidationError{Path: path, Field: "file", Err: fmt.Errorf("%w: %v", ErrInvalidValue, terr.Errors)}
		}
		return nil, &ValidationError{Path: path, Field: "file", Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}
	return &f, nil
}

func checkVersion(v string) (*semver.Version, error) {
	if v == "" {
		v = SchemaVersion
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSchemaVersion, v, err)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return nil, err
	}
	if !constraint.Check(version) {
		return nil, fmt.Errorf("%w: %s not in %s", ErrSchemaVersion, version, SupportedVersions)
	}
	return version, nil
}
