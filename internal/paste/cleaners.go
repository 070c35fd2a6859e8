package paste

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnparseable is returned when a value cannot be normalized.
var ErrUnparseable = errors.New("unparseable value")

// currencyPrefix strips leading ISO codes from amounts like "USD 140.50".
var currencyPrefix = regexp.MustCompile(`^[A-Z]{3}\s+`)

// commonDateLayouts are tried in order when a column has no explicit
// format. First match wins.
var commonDateLayouts = []string{
	"02-01-06",   // 05-12-25
	"02/01/06",   // 05/12/25
	"02/01/2006", // 05/12/2025
	"02-01-2006", // 05-12-2025
	"2006-01-02", // 2025-12-05
}

// currencyNames maps common currency names, including corrupted-encoding
// variants seen in real bank exports, to ISO 4217 codes.
var currencyNames = map[string]string{
	"pesos":      "UYU",
	"peso":       "UYU",
	"dólares":    "USD",
	"dolares":    "USD",
	"dólar":      "USD",
	"dolar":      "USD",
	"dollars":    "USD",
	"dollar":     "USD",
	"dï¿½lares":  "USD",
	"dï¿½lar":    "USD",
}

// ParseAmount normalizes a monetary string to a two-decimal value.
//
// Both decimal conventions are handled by comparing the rightmost comma
// and period: "1.200,44" (EU) and "1,200.44" (US) both parse to 1200.44.
// A leading ISO currency prefix ("USD 140.50") is stripped.
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrUnparseable)
	}

	value = currencyPrefix.ReplaceAllString(value, "")
	value = strings.ReplaceAll(value, " ", "")

	commaPos := strings.LastIndex(value, ",")
	periodPos := strings.LastIndex(value, ".")

	switch {
	case commaPos == -1 && periodPos == -1:
		// Plain digits
	case commaPos == -1:
		// Only period: US decimal separator, nothing to do
	case periodPos == -1:
		// Only comma: EU decimal separator
		value = strings.ReplaceAll(value, ",", ".")
	case commaPos > periodPos:
		// EU: 1.200,44
		value = strings.ReplaceAll(value, ".", "")
		value = strings.ReplaceAll(value, ",", ".")
	default:
		// US: 1,200.44
		value = strings.ReplaceAll(value, ",", "")
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrUnparseable, value)
	}

	return d.Round(2), nil
}

// ParseDate parses a date string, trying the explicit layout first and
// then the common layouts in order.
func ParseDate(value, layout string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrUnparseable)
	}

	if layout != "" {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	for _, l := range commonDateLayouts {
		if t, err := time.Parse(l, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: date %q", ErrUnparseable, value)
}

// NormalizeCurrency maps a currency string to an ISO 4217 code.
//
// Three-letter inputs pass through uppercased. Known currency names
// ("Pesos", "Dólares") and their corrupted-encoding variants map to their
// codes; unknown values are returned uppercased as-is.
func NormalizeCurrency(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if len(value) == 3 && isAlpha(value) {
		return strings.ToUpper(value)
	}

	lower := strings.ToLower(value)
	if code, ok := currencyNames[lower]; ok {
		return code
	}

	// Fuzzy fallback for mangled encodings
	if strings.Contains(lower, "dolar") || strings.Contains(lower, "d�lar") {
		return "USD"
	}
	if strings.Contains(lower, "peso") {
		return "UYU"
	}

	return strings.ToUpper(value)
}

// CleanSource strips card-number padding and prefixes the bank code,
// e.g. "**** 7654" with bank "itau" becomes "itau:7654".
func CleanSource(value, bank string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "*", ""))
	if value == "" {
		return ""
	}

	bank = strings.ToLower(strings.TrimSpace(bank))
	if bank == "" {
		return value
	}
	return bank + ":" + value
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
