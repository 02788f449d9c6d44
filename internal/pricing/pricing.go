// Package pricing loads the externally-supplied Claude usage -> cost table.
//
// §4.2/§9 leave the pricing table as an open question: "implementers should
// treat pricing as externally supplied and default to debug when unknown."
// Table is that external input, loaded the same way the teacher's
// internal/config package loads wren.toml: github.com/BurntSushi/toml,
// decoding into a flat struct and reporting undecoded keys via
// toml.MetaData.
package pricing

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ModelPrice is the per-million-token price for one Claude model.
type ModelPrice struct {
	InputPerMTok  float64 `toml:"input_per_mtok"`
	OutputPerMTok float64 `toml:"output_per_mtok"`
}

// Table maps a Claude model identifier to its price. A Table with no entry
// for a requested model is "unknown" for the purposes of §4.2/§9: the
// caller should fall back to a debug event rather than inventing a price.
type Table struct {
	Models map[string]ModelPrice `toml:"models"`
}

// Cost returns the USD delta for inputTokens/outputTokens against model's
// price. ok is false when model has no entry in the table (including when
// the table itself is nil or empty).
func (t *Table) Cost(model string, inputTokens, outputTokens int) (usd float64, ok bool) {
	if t == nil || t.Models == nil {
		return 0, false
	}
	price, found := t.Models[model]
	if !found {
		return 0, false
	}
	usd = float64(inputTokens)/1_000_000*price.InputPerMTok +
		float64(outputTokens)/1_000_000*price.OutputPerMTok
	return usd, true
}

// LoadFile parses a TOML pricing table, mirroring
// internal/config.LoadFromFile's (*Config, toml.MetaData, error) shape so
// callers can detect typo'd keys via MetaData.Undecoded().
func LoadFile(path string) (*Table, toml.MetaData, error) {
	var t Table
	md, err := toml.DecodeFile(path, &t)
	if err != nil {
		return nil, md, fmt.Errorf("pricing: loading %s: %w", path, err)
	}
	return &t, md, nil
}
