package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/errors"
)

// Manifest is an extension manifest (.gdextension file).
type Manifest struct {
	Configuration Configuration     `toml:"configuration" json:"configuration"`
	Libraries     map[string]string `toml:"libraries" json:"libraries,omitempty" validate:"dive,keys,required,endkeys,required"`
	Bridge        Bridge            `toml:"bridge" json:"bridge,omitempty"`

	// Path is the file the manifest was loaded from (set at load time).
	Path string `toml:"-" json:"-"`
}

// Configuration is the [configuration] section read by the host.
type Configuration struct {
	EntrySymbol          string `toml:"entry_symbol" json:"entry_symbol" validate:"required" jsonschema:"description=Name of the exported init function"`
	CompatibilityMinimum string `toml:"compatibility_minimum" json:"compatibility_minimum" validate:"required,apiversion" jsonschema:"description=Oldest host API version the extension loads on,example=4.1"`
	CompatibilityMaximum string `toml:"compatibility_maximum" json:"compatibility_maximum,omitempty" validate:"omitempty,apiversion"`
	Reloadable           bool   `toml:"reloadable" json:"reloadable,omitempty"`
}

// Bridge is the [bridge] section controlling this library.
type Bridge struct {
	UnwindPolicy string `toml:"unwind_policy" json:"unwind_policy,omitempty" validate:"omitempty,oneof=abort recover" jsonschema:"enum=abort,enum=recover,default=recover"`
	LogLevel     string `toml:"log_level" json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	LogFormat    string `toml:"log_format" json:"log_format,omitempty" validate:"omitempty,oneof=json console" jsonschema:"enum=json,enum=console,default=json"`
	InitLevel    string `toml:"init_level" json:"init_level,omitempty" validate:"omitempty,oneof=core servers scene editor" jsonschema:"enum=core,enum=servers,enum=scene,enum=editor,default=scene"`
}

var validate = validator.New()

func init() {
	_ = validate.RegisterValidation("apiversion", func(fl validator.FieldLevel) bool {
		_, err := abi.ParseVersion(fl.Field().String())
		return err == nil
	})
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "cannot read "+path)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path, _ = filepath.Abs(path)
	return m, nil
}

// Parse decodes and validates manifest text. Unset [bridge] keys get their
// defaults.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse error")
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Bridge.UnwindPolicy == "" {
		m.Bridge.UnwindPolicy = "recover"
	}
	if m.Bridge.LogLevel == "" {
		m.Bridge.LogLevel = "info"
	}
	if m.Bridge.LogFormat == "" {
		m.Bridge.LogFormat = "json"
	}
	if m.Bridge.InitLevel == "" {
		m.Bridge.InitLevel = "scene"
	}
}

// Validate checks field constraints and version ordering.
func (m *Manifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "manifest validation failed")
	}
	if m.Configuration.CompatibilityMaximum != "" {
		lo, _ := abi.ParseVersion(m.Configuration.CompatibilityMinimum)
		hi, _ := abi.ParseVersion(m.Configuration.CompatibilityMaximum)
		if hi.Less(lo) {
			return errors.InvalidInput(errors.PhaseConfig,
				fmt.Sprintf("compatibility_maximum %s is older than compatibility_minimum %s", hi, lo))
		}
	}
	return nil
}

// CheckHost reports whether a host of the given version may load this
// extension: the manifest's range must admit it and the build's ABI must be
// compatible with it.
func (m *Manifest) CheckHost(host abi.APIVersion) error {
	lo, _ := abi.ParseVersion(m.Configuration.CompatibilityMinimum)
	if host.Less(lo) {
		return incompatible("host %s is older than compatibility_minimum %s", host, lo)
	}
	if s := m.Configuration.CompatibilityMaximum; s != "" {
		hi, _ := abi.ParseVersion(s)
		if hi.Less(host) {
			return incompatible("host %s is newer than compatibility_maximum %s", host, hi)
		}
	}
	if !abi.Compatible(host) {
		return incompatible("host %s cannot load a build targeting API %s", host, abi.Version)
	}
	return nil
}

func incompatible(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindIncompatible).Detail(format, args...).Build()
}

// InitLevel returns the configured registration level.
func (m *Manifest) InitLevel() abi.InitLevel {
	lvl, ok := abi.ParseInitLevel(m.Bridge.InitLevel)
	if !ok {
		return abi.InitScene
	}
	return lvl
}

// LibraryFor picks the [libraries] entry for a platform. A key such as
// "linux.debug.x86_64" matches when every dot-separated tag is among
// features; the most specific match wins.
func (m *Manifest) LibraryFor(features ...string) (string, bool) {
	have := make(map[string]bool, len(features))
	for _, f := range features {
		have[f] = true
	}

	keys := make([]string, 0, len(m.Libraries))
	for k := range m.Libraries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestTags := "", -1
	for _, k := range keys {
		tags := strings.Split(k, ".")
		match := true
		for _, tag := range tags {
			if !have[tag] {
				match = false
				break
			}
		}
		if match && len(tags) > bestTags {
			best, bestTags = k, len(tags)
		}
	}
	if bestTags < 0 {
		return "", false
	}
	return m.Libraries[best], true
}
