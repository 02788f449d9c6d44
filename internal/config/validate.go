package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Severity classifies a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found while validating a resolved Config.
type Issue struct {
	Severity Severity
	Field    string
	Message  string
}

// ValidationResult holds every Issue found during Validate.
type ValidationResult struct {
	Issues []Issue
}

// HasErrors reports whether any issue has SeverityError.
func (r ValidationResult) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

var validVendors = map[string]bool{"auto": true, "claude": true, "gemini": true, "amp": true}
var validFormats = map[string]bool{"ansi": true, "html": true, "json": true}

// Validate checks a resolved Config for errors and warnings, including
// unknown keys surfaced by the TOML decoder's metadata (§9: "reject unknown
// options at construction").
func Validate(cfg *Config, md toml.MetaData) ValidationResult {
	var result ValidationResult

	if cfg == nil {
		result.Issues = append(result.Issues, Issue{SeverityError, "", "configuration is nil"})
		return result
	}

	if !validVendors[cfg.Defaults.Vendor] {
		result.Issues = append(result.Issues, Issue{
			SeverityError, "defaults.vendor",
			fmt.Sprintf("unrecognized vendor %q (want auto, claude, gemini, or amp)", cfg.Defaults.Vendor),
		})
	}
	if !validFormats[cfg.Defaults.Format] {
		result.Issues = append(result.Issues, Issue{
			SeverityError, "defaults.format",
			fmt.Sprintf("unrecognized format %q (want ansi, html, or json)", cfg.Defaults.Format),
		})
	}
	if cfg.Defaults.MaxLineLength < 0 {
		result.Issues = append(result.Issues, Issue{
			SeverityError, "defaults.max_line_length", "must not be negative",
		})
	}
	if cfg.Defaults.MaxLineLength > 0 && cfg.Defaults.MaxLineLength < 64 {
		result.Issues = append(result.Issues, Issue{
			SeverityWarning, "defaults.max_line_length",
			"very small line length bounds will split ordinary JSON lines",
		})
	}

	for model, price := range cfg.Models {
		if price.InputPerMTok < 0 || price.OutputPerMTok < 0 {
			result.Issues = append(result.Issues, Issue{
				SeverityError, "models." + model, "prices must not be negative",
			})
		}
	}

	if md.Undecoded() != nil {
		for _, key := range md.Undecoded() {
			result.Issues = append(result.Issues, Issue{
				SeverityError, key.String(), "unrecognized configuration key",
			})
		}
	}

	return result
}
