package paste

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItauDebito(t *testing.T) {
	parser := NewParser(DefaultConfig())

	raw := "05/12/25\tSole y Gian f*HANDY*\t582,00\t0,00\t**** 7654\n" +
		"06/12/25\tDEVOLUCION COMPRA\t0,00\t150,00\t**** 7654\n"

	entries, errs := parser.Parse(raw, "itau_debito", "UYU")
	require.Empty(t, errs)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.True(t, first.Date.Equal(time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Sole y Gian f*HANDY*", first.Description)
	assert.True(t, first.Amount.Equal(mustDecimal(t, "582.00")), "debit minus credit, got %s", first.Amount)
	assert.Equal(t, "UYU", first.Currency)
	assert.Equal(t, "itau:7654", first.Source)

	// A refund is credit-only and comes out negative.
	second := entries[1]
	assert.True(t, second.Amount.Equal(mustDecimal(t, "-150.00")), "got %s", second.Amount)
}

func TestParseItauDebitoRequiresCurrency(t *testing.T) {
	parser := NewParser(DefaultConfig())

	entries, errs := parser.Parse("05/12/25\tHANDY\t582,00\t0,00\t**** 7654", "itau_debito", "")
	assert.Empty(t, entries)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "currency is required")
}

func TestParseScotiaPicksNonZeroColumn(t *testing.T) {
	parser := NewParser(DefaultConfig())

	raw := "05/12/2025\tSUPERMERCADO DISCO\t1.200,44\t0,00\n" +
		"06/12/2025\tAMAZON WEB SERVICES\t0,00\t25,00\n"

	entries, errs := parser.Parse(raw, "scotia", "")
	require.Empty(t, errs)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].Amount.Equal(mustDecimal(t, "1200.44")))
	assert.Equal(t, "UYU", entries[0].Currency)

	assert.True(t, entries[1].Amount.Equal(mustDecimal(t, "25.00")))
	assert.Equal(t, "USD", entries[1].Currency)
}

func TestParseBBVACurrencyColumn(t *testing.T) {
	parser := NewParser(DefaultConfig())

	raw := "05/12/2025\tNETFLIX.COM\tDólares\t15,99\n" +
		"06/12/2025\tSUPERMERCADO\tPesos\t850,00\n"

	entries, errs := parser.Parse(raw, "bbva", "")
	require.Empty(t, errs)
	require.Len(t, entries, 2)
	assert.Equal(t, "USD", entries[0].Currency)
	assert.Equal(t, "UYU", entries[1].Currency)
}

func TestParseCollectsPerLineErrors(t *testing.T) {
	parser := NewParser(DefaultConfig())

	raw := "05/12/25\tHANDY\t582,00\t0,00\t**** 7654\n" +
		"garbage line\n" +
		"notadate\tHANDY\t10,00\t0,00\t**** 7654\n" +
		"06/12/25\tNETFLIX\t15,99\t0,00\t**** 7654\n"

	entries, errs := parser.Parse(raw, "itau_debito", "UYU")
	assert.Len(t, entries, 2, "good lines survive bad neighbors")
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "line 2")
	assert.Contains(t, errs[1], "line 3")
}

func TestParseUnknownBank(t *testing.T) {
	parser := NewParser(DefaultConfig())

	entries, errs := parser.Parse("anything", "nosuchbank", "UYU")
	assert.Empty(t, entries)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "nosuchbank")
}

func TestParseEmptyInput(t *testing.T) {
	parser := NewParser(DefaultConfig())

	entries, errs := parser.Parse("   \n  \n", "itau_debito", "UYU")
	assert.Empty(t, entries)
	assert.NotEmpty(t, errs)
}

func TestDetectorBestMatch(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	// Five columns only fit the itau_debito layout.
	raw := "05/12/25\tHANDY\t582,00\t0,00\t**** 7654\n" +
		"06/12/25\tNETFLIX\t15,99\t0,00\t**** 7654\n"

	bank, confidence := detector.BestMatch(raw, "")
	assert.Equal(t, "itau_debito", bank)
	assert.Equal(t, 1.0, confidence)
}

func TestDetectorPinnedBank(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	raw := "05/12/2025\tDISCO\t1.200,44\t0,00"

	bank, confidence := detector.BestMatch(raw, "scotia")
	assert.Equal(t, "scotia", bank)
	assert.Equal(t, 1.0, confidence)
}

func TestDetectorNoMatch(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	bank, confidence := detector.BestMatch("just words without tabs", "")
	assert.Empty(t, bank)
	assert.Zero(t, confidence)

	bank, confidence = detector.BestMatch("", "")
	assert.Empty(t, bank)
	assert.Zero(t, confidence)
}

func TestDetectorPartialMatch(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	// Three parseable lines out of five.
	raw := "05/12/25\tHANDY\t582,00\t0,00\t**** 7654\n" +
		"noise\n" +
		"06/12/25\tNETFLIX\t15,99\t0,00\t**** 7654\n" +
		"more noise\n" +
		"07/12/25\tSPOTIFY\t9,99\t0,00\t**** 7654\n"

	bank, confidence := detector.BestMatch(raw, "itau_debito")
	assert.Equal(t, "itau_debito", bank)
	assert.InDelta(t, 0.6, confidence, 1e-9)
}

func TestValidateEntry(t *testing.T) {
	valid := Entry{
		Date:        time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC),
		Description: "HANDY",
		Amount:      decimal.NewFromInt(10),
		Currency:    "UYU",
	}
	assert.Empty(t, ValidateEntry(valid))

	var problems []string

	missing := valid
	missing.Date = time.Time{}
	missing.Description = ""
	problems = ValidateEntry(missing)
	assert.Len(t, problems, 2)

	badCurrency := valid
	badCurrency.Currency = "PESOS"
	problems = ValidateEntry(badCurrency)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "3 letters")
}

// staticChecker is a TransactionChecker with a fixed answer.
type staticChecker struct {
	exists bool
	err    error
	calls  int
}

func (c *staticChecker) TransactionExists(context.Context, string, time.Time, string, decimal.Decimal, string) (bool, error) {
	c.calls++
	return c.exists, c.err
}

func TestMarkDuplicatesInBatch(t *testing.T) {
	day := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Date: day, Description: "HANDY", Amount: decimal.NewFromInt(10), Currency: "UYU"},
		{Date: day, Description: "HANDY", Amount: decimal.NewFromInt(10), Currency: "UYU"},
		{Date: day, Description: "HANDY", Amount: decimal.NewFromInt(20), Currency: "UYU"},
	}

	checker := &staticChecker{}
	require.NoError(t, MarkDuplicates(context.Background(), checker, "ana", entries))

	assert.False(t, entries[0].IsDuplicate)
	assert.True(t, entries[1].IsDuplicate, "exact repeat within the batch")
	assert.False(t, entries[2].IsDuplicate, "different amount is a new entry")
	assert.Equal(t, 2, checker.calls, "in-batch duplicates skip the store check")
}

func TestMarkDuplicatesAgainstStore(t *testing.T) {
	entries := []Entry{
		{Date: time.Now(), Description: "HANDY", Amount: decimal.NewFromInt(10), Currency: "UYU"},
	}

	checker := &staticChecker{exists: true}
	require.NoError(t, MarkDuplicates(context.Background(), checker, "ana", entries))
	assert.True(t, entries[0].IsDuplicate)

	failing := &staticChecker{err: errors.New("db closed")}
	err := MarkDuplicates(context.Background(), failing, "ana", entries)
	assert.Error(t, err)
}
