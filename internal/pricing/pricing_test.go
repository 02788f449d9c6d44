package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Cost_Unknown(t *testing.T) {
	t.Parallel()

	var tbl *Table
	_, ok := tbl.Cost("claude-opus", 100, 50)
	assert.False(t, ok)

	tbl = &Table{}
	_, ok = tbl.Cost("claude-opus", 100, 50)
	assert.False(t, ok)
}

func TestTable_Cost_Known(t *testing.T) {
	t.Parallel()

	tbl := &Table{Models: map[string]ModelPrice{
		"claude-opus": {InputPerMTok: 15, OutputPerMTok: 75},
	}}

	usd, ok := tbl.Cost("claude-opus", 1_000_000, 1_000_000)
	require.True(t, ok)
	assert.InDelta(t, 90.0, usd, 1e-9)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "wren.toml")
	content := `
[models.claude-opus]
input_per_mtok = 15.0
output_per_mtok = 75.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, md, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, md.Undecoded())

	usd, ok := tbl.Cost("claude-opus", 500_000, 0)
	require.True(t, ok)
	assert.InDelta(t, 7.5, usd, 1e-9)
}
