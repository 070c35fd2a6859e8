package paste

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one parsed statement line.
type Entry struct {
	Date        time.Time
	Description string
	Currency    string
	Source      string
	Amount      decimal.Decimal
	IsDuplicate bool
}

// Parser turns pasted statement text into entries using per-bank configs.
type Parser struct {
	config Config
}

// NewParser creates a parser with the given bank configs.
func NewParser(config Config) *Parser {
	return &Parser{config: config}
}

// Parse parses raw pasted text for the given bank. A fallback currency is
// required for banks whose statements don't carry one. Lines that fail to
// parse are reported as errors without aborting the batch.
func (p *Parser) Parse(raw, bank, currency string) ([]Entry, []string) {
	cfg, ok := p.config.Banks[bank]
	if !ok {
		return nil, []string{fmt.Sprintf("bank %q not found in config", bank)}
	}

	if cfg.RequiresCurrency && currency == "" {
		return nil, []string{"currency is required for this bank"}
	}

	lines := splitLines(raw)
	if len(lines) == 0 {
		return nil, []string{"no data lines found"}
	}

	var entries []Entry
	var errs []string

	for i, line := range lines {
		entry, err := p.parseLine(line, cfg, currency)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", i+1, err))
			continue
		}
		entries = append(entries, *entry)
	}

	return entries, errs
}

// parseLine parses a single delimited statement line.
func (p *Parser) parseLine(line string, cfg BankConfig, fallbackCurrency string) (*Entry, error) {
	delimiter := cfg.Delimiter
	if delimiter == "" {
		delimiter = "\t"
	}

	parts := strings.Split(line, delimiter)
	if len(parts) < len(cfg.Columns) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(cfg.Columns), len(parts))
	}

	var entry Entry
	amounts := make(map[string]decimal.Decimal)

	for _, col := range cfg.Columns {
		if col.Index >= len(parts) {
			return nil, fmt.Errorf("column index %d out of range", col.Index)
		}
		value := strings.TrimSpace(parts[col.Index])

		switch col.Type {
		case ColumnIgnore:
			continue
		case ColumnDate:
			date, err := ParseDate(value, col.Format)
			if err != nil {
				return nil, err
			}
			entry.Date = date
		case ColumnDescription:
			entry.Description = value
		case ColumnAmount:
			if value == "" {
				continue // empty amount columns are allowed
			}
			amount, err := ParseAmount(value)
			if err != nil {
				return nil, err
			}
			amounts[col.Name] = amount
		case ColumnCurrency:
			if col.Value != "" {
				entry.Currency = col.Value
			} else if value != "" {
				entry.Currency = NormalizeCurrency(value)
			}
		case ColumnSource:
			entry.Source = CleanSource(value, cfg.SourcePrefix)
		default:
			return nil, fmt.Errorf("unknown column type %q", col.Type)
		}
	}

	amount, currency, err := resolveAmount(amounts, cfg)
	if err != nil {
		return nil, err
	}
	entry.Amount = amount
	if currency != "" {
		entry.Currency = currency
	}
	if entry.Currency == "" {
		entry.Currency = fallbackCurrency
	}
	entry.Currency = strings.ToUpper(entry.Currency)

	return &entry, nil
}

// resolveAmount applies the bank's amount strategy to the parsed amount
// columns, returning the final amount and, for per-currency columns, the
// currency that came with it.
func resolveAmount(amounts map[string]decimal.Decimal, cfg BankConfig) (decimal.Decimal, string, error) {
	if cfg.AmountCalculation == AmountDebitMinusCredit {
		return amounts["debit"].Sub(amounts["credit"]), "", nil
	}

	if len(cfg.AmountCurrencyPairs) > 0 {
		// Use the first non-zero amount column; if all are zero, fall
		// back to zero in the first configured currency.
		for _, pair := range cfg.AmountCurrencyPairs {
			if amount, ok := amounts[pair.AmountField]; ok && !amount.IsZero() {
				return amount, pair.Currency, nil
			}
		}
		return decimal.Zero, cfg.AmountCurrencyPairs[0].Currency, nil
	}

	amount, ok := amounts["amount"]
	if !ok {
		return decimal.Zero, "", fmt.Errorf("no amount column parsed")
	}
	return amount, "", nil
}

// splitLines splits raw text into trimmed non-empty lines.
func splitLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Detector scores pasted text against the configured bank formats.
type Detector struct {
	config Config
}

// NewDetector creates a format detector.
func NewDetector(config Config) *Detector {
	return &Detector{config: config}
}

// BestMatch returns the bank format most likely to parse the text, with a
// confidence in [0, 1]. If bank is non-empty only that format is tested.
func (d *Detector) BestMatch(raw, bank string) (string, float64) {
	lines := splitLines(raw)
	if len(lines) == 0 {
		return "", 0.0
	}

	var candidates []string
	if bank != "" {
		candidates = []string{bank}
	} else {
		for code := range d.config.Banks {
			candidates = append(candidates, code)
		}
	}

	bestMatch := ""
	bestScore := 0.0
	for _, code := range candidates {
		score := d.matchScore(lines, code)
		if score > bestScore || (score == bestScore && bestMatch != "" && code < bestMatch) {
			bestScore = score
			bestMatch = code
		}
	}

	if bestScore == 0.0 {
		return "", 0.0
	}
	return bestMatch, bestScore
}

// matchScore scores how well the first few lines fit a bank's column
// layout, as the fraction that split into exactly the configured column
// count. Exact counts keep formats with overlapping widths apart.
func (d *Detector) matchScore(lines []string, bank string) float64 {
	cfg, ok := d.config.Banks[bank]
	if !ok {
		return 0.0
	}

	delimiter := cfg.Delimiter
	if delimiter == "" {
		delimiter = "\t"
	}

	sample := len(lines)
	if sample > 5 {
		sample = 5
	}
	if sample == 0 {
		return 0.0
	}

	matched := 0
	for _, line := range lines[:sample] {
		if len(strings.Split(line, delimiter)) == len(cfg.Columns) {
			matched++
		}
	}

	return float64(matched) / float64(sample)
}
