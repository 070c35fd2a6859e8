// Package paste parses bank statements pasted as raw text into
// transactions ready for import: per-bank column layouts, locale-aware
// amount parsing, multi-format dates, currency-name normalization and
// duplicate detection.
package paste

import (
	"fmt"

	"github.com/spf13/viper"
)

// ColumnType identifies how a statement column is interpreted.
type ColumnType string

// Column types.
const (
	ColumnDate        ColumnType = "date"
	ColumnDescription ColumnType = "description"
	ColumnAmount      ColumnType = "amount"
	ColumnCurrency    ColumnType = "currency"
	ColumnSource      ColumnType = "source"
	ColumnIgnore      ColumnType = "ignore"
)

// Amount resolution strategies.
const (
	// AmountDebitMinusCredit computes the final amount as the "debit"
	// column minus the "credit" column.
	AmountDebitMinusCredit = "debit_minus_credit"
	// AmountUseNonZero picks the first non-zero amount column among the
	// configured amount/currency pairs.
	AmountUseNonZero = "use_non_zero"
)

// Column describes one delimited column of a bank's statement format.
type Column struct {
	Name   string     `mapstructure:"name"`   // key for amount columns
	Type   ColumnType `mapstructure:"type"`
	Format string     `mapstructure:"format"` // date layout, for date columns
	Value  string     `mapstructure:"value"`  // fixed value, for currency columns
	Index  int        `mapstructure:"index"`
}

// AmountCurrencyPair binds an amount column to a fixed currency for banks
// that report one column per currency.
type AmountCurrencyPair struct {
	AmountField string `mapstructure:"amount_field"`
	Currency    string `mapstructure:"currency"`
}

// BankConfig describes how to parse one bank's pasted statement.
type BankConfig struct {
	Name                string               `mapstructure:"name"`
	Delimiter           string               `mapstructure:"delimiter"`
	SourcePrefix        string               `mapstructure:"source_prefix"`
	AmountCalculation   string               `mapstructure:"amount_calculation"`
	Columns             []Column             `mapstructure:"columns"`
	AmountCurrencyPairs []AmountCurrencyPair `mapstructure:"amount_currency_pairs"`
	RequiresCurrency    bool                 `mapstructure:"requires_currency"`
}

// Config holds all configured bank formats.
type Config struct {
	Banks map[string]BankConfig `mapstructure:"banks"`
}

// DefaultConfig returns the built-in bank formats.
func DefaultConfig() Config {
	return Config{
		Banks: map[string]BankConfig{
			"itau_debito": {
				Name:              "Itaú débito",
				Delimiter:         "\t",
				RequiresCurrency:  true,
				SourcePrefix:      "itau",
				AmountCalculation: AmountDebitMinusCredit,
				Columns: []Column{
					{Index: 0, Type: ColumnDate, Format: "02/01/06"},
					{Index: 1, Type: ColumnDescription},
					{Index: 2, Type: ColumnAmount, Name: "debit"},
					{Index: 3, Type: ColumnAmount, Name: "credit"},
					{Index: 4, Type: ColumnSource},
				},
			},
			"itau_credito": {
				Name:             "Itaú crédito",
				Delimiter:        "\t",
				RequiresCurrency: true,
				SourcePrefix:     "itau",
				Columns: []Column{
					{Index: 0, Type: ColumnDate, Format: "02/01/06"},
					{Index: 1, Type: ColumnDescription},
					{Index: 2, Type: ColumnAmount, Name: "amount"},
					{Index: 3, Type: ColumnSource},
				},
			},
			"scotia": {
				Name:              "Scotiabank",
				Delimiter:         "\t",
				SourcePrefix:      "scotia",
				AmountCalculation: AmountUseNonZero,
				Columns: []Column{
					{Index: 0, Type: ColumnDate, Format: "02/01/2006"},
					{Index: 1, Type: ColumnDescription},
					{Index: 2, Type: ColumnAmount, Name: "uyu"},
					{Index: 3, Type: ColumnAmount, Name: "usd"},
				},
				AmountCurrencyPairs: []AmountCurrencyPair{
					{AmountField: "uyu", Currency: "UYU"},
					{AmountField: "usd", Currency: "USD"},
				},
			},
			"bbva": {
				Name:         "BBVA",
				Delimiter:    "\t",
				SourcePrefix: "bbva",
				Columns: []Column{
					{Index: 0, Type: ColumnDate, Format: "02/01/2006"},
					{Index: 1, Type: ColumnDescription},
					{Index: 2, Type: ColumnCurrency},
					{Index: 3, Type: ColumnAmount, Name: "amount"},
				},
			},
		},
	}
}

// LoadConfig reads bank formats from a YAML file. Banks defined in the
// file are merged over the built-in defaults.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read bank config: %w", err)
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return Config{}, fmt.Errorf("failed to parse bank config: %w", err)
	}

	cfg := DefaultConfig()
	for code, bank := range loaded.Banks {
		cfg.Banks[code] = bank
	}

	return cfg, nil
}
