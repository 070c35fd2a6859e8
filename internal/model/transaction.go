package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus marks whether a transaction is confirmed or held back
// as a suspected duplicate during import.
type TransactionStatus string

const (
	// StatusConfirmed is the normal state for a transaction.
	StatusConfirmed TransactionStatus = "confirmed"
	// StatusPendingDuplicate marks an imported transaction that exactly
	// matched an existing one and awaits user review.
	StatusPendingDuplicate TransactionStatus = "pending_duplicate"
)

// Transaction represents a single financial transaction from any source.
//
// The categorization engine only reads Description, Amount and Currency,
// and conditionally fills CategoryID and PayeeID. It never creates
// transactions.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	CategoryID  *int64
	PayeeID     *int64
	ID          string
	OwnerID     string
	Description string
	Currency    string
	Source      string
	Status      TransactionStatus
	Amount      decimal.Decimal
}

// Categorized reports whether the transaction already has a category.
func (t *Transaction) Categorized() bool {
	return t.CategoryID != nil
}
