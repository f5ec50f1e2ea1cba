package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/errors"
	"github.com/wippyai/classbridge/hostsim"
)

const sample = `
[configuration]
entry_symbol = "classbridge_init"
compatibility_minimum = "4.1"
reloadable = true

[libraries]
"linux.x86_64" = "res://bin/libdemo.linux.so"
"linux.debug.x86_64" = "res://bin/libdemo.linux.debug.so"
"windows.x86_64" = "res://bin/demo.dll"

[bridge]
unwind_policy = "abort"
log_level = "debug"
log_format = "console"
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "classbridge_init", m.Configuration.EntrySymbol)
	assert.Equal(t, "4.1", m.Configuration.CompatibilityMinimum)
	assert.True(t, m.Configuration.Reloadable)
	assert.Len(t, m.Libraries, 3)
	assert.Equal(t, "abort", m.Bridge.UnwindPolicy)
	assert.Equal(t, "scene", m.Bridge.InitLevel)
	assert.Equal(t, abi.InitScene, m.InitLevel())
}

func TestParse_Defaults(t *testing.T) {
	m, err := Parse([]byte(`
[configuration]
entry_symbol = "init"
compatibility_minimum = "4.4"
`))
	require.NoError(t, err)
	assert.Equal(t, "recover", m.Bridge.UnwindPolicy)
	assert.Equal(t, "info", m.Bridge.LogLevel)
	assert.Equal(t, "json", m.Bridge.LogFormat)
	assert.False(t, m.Configuration.Reloadable)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"syntax", `[configuration`},
		{"missing entry", "[configuration]\ncompatibility_minimum = \"4.1\"\n"},
		{"bad version", "[configuration]\nentry_symbol = \"x\"\ncompatibility_minimum = \"four\"\n"},
		{"bad policy", "[configuration]\nentry_symbol = \"x\"\ncompatibility_minimum = \"4.1\"\n[bridge]\nunwind_policy = \"ignore\"\n"},
		{"bad level", "[configuration]\nentry_symbol = \"x\"\ncompatibility_minimum = \"4.1\"\n[bridge]\ninit_level = \"late\"\n"},
		{"inverted range", "[configuration]\nentry_symbol = \"x\"\ncompatibility_minimum = \"4.3\"\ncompatibility_maximum = \"4.1\"\n"},
		{"empty library path", "[configuration]\nentry_symbol = \"x\"\ncompatibility_minimum = \"4.1\"\n[libraries]\n\"linux\" = \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.text))
			require.Error(t, err)
			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, errors.PhaseConfig, e.Phase)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.gdextension")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.gdextension"))
	assert.Error(t, err)
}

func TestCheckHost(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.NoError(t, m.CheckHost(abi.Version))
	assert.Error(t, m.CheckHost(abi.APIVersion{Major: 4, Minor: 0}))
	assert.Error(t, m.CheckHost(abi.APIVersion{Major: 5, Minor: 0}))

	m.Configuration.CompatibilityMaximum = "4.2"
	err = m.CheckHost(abi.APIVersion{Major: 4, Minor: 3})
	require.Error(t, err)
	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errors.KindIncompatible, e.Kind)
}

func TestLibraryFor(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	lib, ok := m.LibraryFor("linux", "x86_64")
	require.True(t, ok)
	assert.Equal(t, "res://bin/libdemo.linux.so", lib)

	lib, ok = m.LibraryFor("linux", "debug", "x86_64")
	require.True(t, ok)
	assert.Equal(t, "res://bin/libdemo.linux.debug.so", lib)

	_, ok = m.LibraryFor("macos", "arm64")
	assert.False(t, ok)
}

func TestOptions(t *testing.T) {
	m, err := Parse([]byte(sample))
	require.NoError(t, err)

	opts, err := m.Options()
	require.NoError(t, err)
	require.Len(t, opts, 1)

	lib, err := bridge.NewLibrary(hostsim.New().Interface(), opts...)
	require.NoError(t, err)
	assert.Equal(t, bridge.UnwindAbort, lib.Policy())
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(Bridge{LogLevel: "warn", LogFormat: "json"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = NewLogger(Bridge{LogLevel: "debug", LogFormat: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(Bridge{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "entry_symbol")
	assert.Contains(t, s, "compatibility_minimum")
	assert.Contains(t, s, "unwind_policy")
	assert.Contains(t, s, `"recover"`)
}
