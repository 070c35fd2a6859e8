package paste

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.yaml")
	yaml := `
banks:
  brou:
    name: BROU
    delimiter: ";"
    source_prefix: brou
    columns:
      - index: 0
        type: date
        format: "02/01/2006"
      - index: 1
        type: description
      - index: 2
        type: amount
        name: amount
  itau_debito:
    name: Custom Itau
    delimiter: "\t"
    requires_currency: true
    amount_calculation: debit_minus_credit
    columns:
      - index: 0
        type: date
      - index: 1
        type: description
      - index: 2
        type: amount
        name: debit
      - index: 3
        type: amount
        name: credit
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// New bank added alongside the built-ins.
	brou, ok := cfg.Banks["brou"]
	require.True(t, ok)
	assert.Equal(t, ";", brou.Delimiter)
	assert.Len(t, brou.Columns, 3)
	assert.Equal(t, ColumnAmount, brou.Columns[2].Type)

	// Built-in override wins wholesale.
	itau, ok := cfg.Banks["itau_debito"]
	require.True(t, ok)
	assert.Equal(t, "Custom Itau", itau.Name)
	assert.Len(t, itau.Columns, 4)

	// Untouched built-ins survive.
	_, ok = cfg.Banks["scotia"]
	assert.True(t, ok)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfigBanks(t *testing.T) {
	cfg := DefaultConfig()
	for _, code := range []string{"itau_debito", "itau_credito", "scotia", "bbva"} {
		_, ok := cfg.Banks[code]
		assert.True(t, ok, "missing built-in bank %s", code)
	}
}
