package paste

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionChecker checks whether an owner already has a persisted
// transaction with the exact same identifying fields.
type TransactionChecker interface {
	TransactionExists(ctx context.Context, ownerID string, date time.Time, description string, amount decimal.Decimal, currency string) (bool, error)
}

// ValidateEntry checks a parsed entry for the fields an import requires.
// It returns a list of problems; an empty list means the entry is valid.
func ValidateEntry(entry Entry) []string {
	var problems []string

	if entry.Date.IsZero() {
		problems = append(problems, "missing date")
	}
	if entry.Description == "" {
		problems = append(problems, "missing description")
	}
	if entry.Currency == "" {
		problems = append(problems, "missing currency")
	} else if len(entry.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("currency must be 3 letters: %s", entry.Currency))
	}

	return problems
}

// sameEntry reports whether two entries share the duplicate-detection
// identity: date, description, amount and currency.
func sameEntry(a, b Entry) bool {
	return a.Date.Year() == b.Date.Year() &&
		a.Date.YearDay() == b.Date.YearDay() &&
		a.Description == b.Description &&
		a.Amount.Equal(b.Amount) &&
		a.Currency == b.Currency
}

// DuplicateInBatch reports whether the entry duplicates an earlier entry
// in the same batch.
func DuplicateInBatch(entry Entry, earlier []Entry) bool {
	for _, e := range earlier {
		if sameEntry(entry, e) {
			return true
		}
	}
	return false
}

// MarkDuplicates flags entries that duplicate either an earlier entry in
// the batch or a transaction already persisted for the owner.
func MarkDuplicates(ctx context.Context, checker TransactionChecker, ownerID string, entries []Entry) error {
	for i := range entries {
		if DuplicateInBatch(entries[i], entries[:i]) {
			entries[i].IsDuplicate = true
			continue
		}

		exists, err := checker.TransactionExists(ctx, ownerID, entries[i].Date, entries[i].Description, entries[i].Amount, entries[i].Currency)
		if err != nil {
			return fmt.Errorf("failed to check for duplicate: %w", err)
		}
		entries[i].IsDuplicate = exists
	}

	return nil
}
