// Package config loads and resolves wren.toml: default vendor/format/filter
// options plus the Claude usage->cost price table referenced by §9 as
// externally supplied.
//
// Loading and layered resolution are grounded on the teacher's own
// internal/config package (BurntSushi/toml decoding plus
// MetaData.Undecoded() for rejecting unknown keys, a defaults -> file ->
// env -> CLI override chain with per-field source tracking); the schema
// itself is replaced end to end since wren's domain has no project/agent
// pipeline to configure.
package config

import "github.com/agentstream/wren/internal/pricing"

// ConfigFileName is the name of wren's configuration file.
const ConfigFileName = "wren.toml"

// Config is the top-level shape of wren.toml.
type Config struct {
	Defaults DefaultsConfig                `toml:"defaults"`
	Models   map[string]pricing.ModelPrice `toml:"models"`
}

// DefaultsConfig maps to the [defaults] section: the fallback values for
// options a CLI flag does not explicitly set (§6.1).
type DefaultsConfig struct {
	Vendor         string `toml:"vendor"`
	Format         string `toml:"format"`
	HideTools      bool   `toml:"hide_tools"`
	HideCost       bool   `toml:"hide_cost"`
	HideDebug      bool   `toml:"hide_debug"`
	CollapseTools  bool   `toml:"collapse_tools"`
	CompactMode    bool   `toml:"compact_mode"`
	ShowTimestamps bool   `toml:"show_timestamps"`
	MaxLineLength  int    `toml:"max_line_length"`
}

// PriceTable extracts the [models.*] sections as a pricing.Table.
func (c *Config) PriceTable() *pricing.Table {
	if len(c.Models) == 0 {
		return nil
	}
	return &pricing.Table{Models: c.Models}
}
