package config

import (
	"github.com/BurntSushi/toml"

	"github.com/agentstream/wren/internal/pricing"
)

// Source identifies where a configuration value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceCLI     Source = "cli"
)

// Resolved holds the fully-merged configuration plus per-field source
// tracking, the same shape the teacher's ResolvedConfig uses for its "wren
// config debug" equivalent.
type Resolved struct {
	Config  *Config
	Sources map[string]Source
	Path    string
}

// Overrides captures CLI flag values that take priority over everything
// else. A nil pointer field means "not set on the command line."
type Overrides struct {
	Vendor        *string
	Format        *string
	HideTools     *bool
	HideCost      *bool
	HideDebug     *bool
	CollapseTools *bool
	MaxLineLength *int
}

// EnvFunc looks up an environment variable; injected for testability.
type EnvFunc func(key string) (string, bool)

// Resolve merges defaults, an optional parsed wren.toml, environment
// variables, and CLI overrides in ascending priority order (§9's "builder
// pattern is a flat struct... reject unknown options at construction" plus
// §6.2's WREN_* / NO_COLOR environment contract).
//
// fileMeta is the TOML metadata from decoding fileConfig; it distinguishes
// a compact_mode/show_timestamps key the file genuinely sets from the Go
// zero value of an omitted key, so a wren.toml that never mentions
// compact_mode cannot silently flip the built-in compact default off. A nil
// fileMeta (a Config constructed in code rather than decoded) applies
// fileConfig's values as given.
func Resolve(defaults *Config, fileConfig *Config, fileMeta *toml.MetaData, envFn EnvFunc, overrides *Overrides) *Resolved {
	if defaults == nil {
		defaults = NewDefaults()
	}
	if envFn == nil {
		envFn = func(string) (string, bool) { return "", false }
	}
	if overrides == nil {
		overrides = &Overrides{}
	}

	res := &Resolved{
		Config:  &Config{Models: make(map[string]pricing.ModelPrice)},
		Sources: make(map[string]Source),
	}

	// Layer 1: defaults.
	res.Config.Defaults = defaults.Defaults
	res.Sources["defaults.vendor"] = SourceDefault
	res.Sources["defaults.format"] = SourceDefault
	res.Sources["defaults.hide_tools"] = SourceDefault
	res.Sources["defaults.hide_cost"] = SourceDefault
	res.Sources["defaults.hide_debug"] = SourceDefault
	res.Sources["defaults.collapse_tools"] = SourceDefault
	res.Sources["defaults.max_line_length"] = SourceDefault
	for model, price := range defaults.Models {
		res.Config.Models[model] = price
	}

	// Layer 2: config file.
	if fileConfig != nil {
		if fileConfig.Defaults.Vendor != "" {
			res.Config.Defaults.Vendor = fileConfig.Defaults.Vendor
			res.Sources["defaults.vendor"] = SourceFile
		}
		if fileConfig.Defaults.Format != "" {
			res.Config.Defaults.Format = fileConfig.Defaults.Format
			res.Sources["defaults.format"] = SourceFile
		}
		if fileConfig.Defaults.MaxLineLength != 0 {
			res.Config.Defaults.MaxLineLength = fileConfig.Defaults.MaxLineLength
			res.Sources["defaults.max_line_length"] = SourceFile
		}
		res.Config.Defaults.HideTools = res.Config.Defaults.HideTools || fileConfig.Defaults.HideTools
		res.Config.Defaults.HideCost = res.Config.Defaults.HideCost || fileConfig.Defaults.HideCost
		res.Config.Defaults.HideDebug = res.Config.Defaults.HideDebug || fileConfig.Defaults.HideDebug
		res.Config.Defaults.CollapseTools = res.Config.Defaults.CollapseTools || fileConfig.Defaults.CollapseTools
		if fileConfig.Defaults.HideTools {
			res.Sources["defaults.hide_tools"] = SourceFile
		}
		if fileConfig.Defaults.HideCost {
			res.Sources["defaults.hide_cost"] = SourceFile
		}
		if fileConfig.Defaults.HideDebug {
			res.Sources["defaults.hide_debug"] = SourceFile
		}
		if fileConfig.Defaults.CollapseTools {
			res.Sources["defaults.collapse_tools"] = SourceFile
		}
		if fileMeta == nil || fileMeta.IsDefined("defaults", "compact_mode") {
			res.Config.Defaults.CompactMode = fileConfig.Defaults.CompactMode
			res.Sources["defaults.compact_mode"] = SourceFile
		}
		if fileMeta == nil || fileMeta.IsDefined("defaults", "show_timestamps") {
			res.Config.Defaults.ShowTimestamps = fileConfig.Defaults.ShowTimestamps
			res.Sources["defaults.show_timestamps"] = SourceFile
		}
		for model, price := range fileConfig.Models {
			res.Config.Models[model] = price
			res.Sources["models."+model] = SourceFile
		}
	}

	// Layer 3: environment variables.
	if v, ok := envFn("WREN_VENDOR"); ok && v != "" {
		res.Config.Defaults.Vendor = v
		res.Sources["defaults.vendor"] = SourceEnv
	}
	if v, ok := envFn("WREN_FORMAT"); ok && v != "" {
		res.Config.Defaults.Format = v
		res.Sources["defaults.format"] = SourceEnv
	}

	// Layer 4: CLI overrides, highest priority.
	if overrides.Vendor != nil {
		res.Config.Defaults.Vendor = *overrides.Vendor
		res.Sources["defaults.vendor"] = SourceCLI
	}
	if overrides.Format != nil {
		res.Config.Defaults.Format = *overrides.Format
		res.Sources["defaults.format"] = SourceCLI
	}
	if overrides.HideTools != nil {
		res.Config.Defaults.HideTools = *overrides.HideTools
		res.Sources["defaults.hide_tools"] = SourceCLI
	}
	if overrides.HideCost != nil {
		res.Config.Defaults.HideCost = *overrides.HideCost
		res.Sources["defaults.hide_cost"] = SourceCLI
	}
	if overrides.HideDebug != nil {
		res.Config.Defaults.HideDebug = *overrides.HideDebug
		res.Sources["defaults.hide_debug"] = SourceCLI
	}
	if overrides.CollapseTools != nil {
		res.Config.Defaults.CollapseTools = *overrides.CollapseTools
		res.Sources["defaults.collapse_tools"] = SourceCLI
	}
	if overrides.MaxLineLength != nil {
		res.Config.Defaults.MaxLineLength = *overrides.MaxLineLength
		res.Sources["defaults.max_line_length"] = SourceCLI
	}

	return res
}
