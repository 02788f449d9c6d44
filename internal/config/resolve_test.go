package config

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/agentstream/wren/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyMetaData(t *testing.T) toml.MetaData {
	t.Helper()
	var v struct{}
	md, err := toml.Decode("", &v)
	require.NoError(t, err)
	return md
}

func TestResolve_DefaultsOnly(t *testing.T) {
	t.Parallel()

	res := Resolve(NewDefaults(), nil, nil, nil, nil)
	assert.Equal(t, "auto", res.Config.Defaults.Vendor)
	assert.Equal(t, SourceDefault, res.Sources["defaults.vendor"])
}

func TestResolve_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	file := &Config{Defaults: DefaultsConfig{Vendor: "claude"}}
	res := Resolve(NewDefaults(), file, nil, nil, nil)
	assert.Equal(t, "claude", res.Config.Defaults.Vendor)
	assert.Equal(t, SourceFile, res.Sources["defaults.vendor"])
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	file := &Config{Defaults: DefaultsConfig{Vendor: "claude"}}
	env := func(key string) (string, bool) {
		if key == "WREN_VENDOR" {
			return "gemini", true
		}
		return "", false
	}
	res := Resolve(NewDefaults(), file, nil, env, nil)
	assert.Equal(t, "gemini", res.Config.Defaults.Vendor)
	assert.Equal(t, SourceEnv, res.Sources["defaults.vendor"])
}

func TestResolve_CLIOverridesEverything(t *testing.T) {
	t.Parallel()

	file := &Config{Defaults: DefaultsConfig{Vendor: "claude"}}
	env := func(key string) (string, bool) {
		if key == "WREN_VENDOR" {
			return "gemini", true
		}
		return "", false
	}
	vendor := "amp"
	res := Resolve(NewDefaults(), file, nil, env, &Overrides{Vendor: &vendor})
	assert.Equal(t, "amp", res.Config.Defaults.Vendor)
	assert.Equal(t, SourceCLI, res.Sources["defaults.vendor"])
}

func TestResolve_FileWithoutCompactMode_KeepsDefault(t *testing.T) {
	t.Parallel()

	var file Config
	md, err := toml.Decode("[defaults]\nvendor = \"claude\"\n", &file)
	require.NoError(t, err)

	res := Resolve(NewDefaults(), &file, &md, nil, nil)
	assert.True(t, res.Config.Defaults.CompactMode,
		"a wren.toml that never mentions compact_mode must not flip the compact default off")
	assert.Equal(t, "claude", res.Config.Defaults.Vendor)
}

func TestResolve_FileDisablesCompactMode(t *testing.T) {
	t.Parallel()

	var file Config
	md, err := toml.Decode("[defaults]\ncompact_mode = false\n", &file)
	require.NoError(t, err)

	res := Resolve(NewDefaults(), &file, &md, nil, nil)
	assert.False(t, res.Config.Defaults.CompactMode)
	assert.Equal(t, SourceFile, res.Sources["defaults.compact_mode"])
}

func TestValidate_RejectsUnknownVendor(t *testing.T) {
	t.Parallel()

	cfg := &Config{Defaults: DefaultsConfig{Vendor: "chatgpt", Format: "ansi"}}
	result := Validate(cfg, emptyMetaData(t))
	assert.True(t, result.HasErrors())
}

func TestValidate_AcceptsKnownValues(t *testing.T) {
	t.Parallel()

	cfg := &Config{Defaults: DefaultsConfig{Vendor: "claude", Format: "json"}}
	result := Validate(cfg, emptyMetaData(t))
	assert.False(t, result.HasErrors())
}

func TestValidate_RejectsNegativePrice(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Defaults: DefaultsConfig{Vendor: "auto", Format: "ansi"},
		Models:   map[string]pricing.ModelPrice{"x": {InputPerMTok: -1}},
	}
	result := Validate(cfg, emptyMetaData(t))
	assert.True(t, result.HasErrors())
}
