package config

// NewDefaults returns wren's built-in default configuration, the base layer
// Resolve starts from before layering in the config file, environment, and
// CLI flags.
func NewDefaults() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Vendor:        "auto",
			Format:        "ansi",
			CompactMode:   true,
			MaxLineLength: 1 << 20,
		},
	}
}
