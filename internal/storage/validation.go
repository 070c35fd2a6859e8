package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cachinapp/cachin/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidRule        = errors.New("invalid rule")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrNotFound           = errors.New("not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRule validates a categorization rule.
func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.OwnerID) == "" {
		return fmt.Errorf("%w: missing owner", ErrInvalidRule)
	}
	if strings.TrimSpace(rule.Tokens) == "" {
		return fmt.Errorf("%w: missing description tokens", ErrInvalidRule)
	}
	if !rule.Predicts() {
		return fmt.Errorf("%w: must predict a category or payee", ErrInvalidRule)
	}
	if rule.Currency != "" && len(rule.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidRule)
	}
	if rule.Accuracy < 0 || rule.Accuracy > 1 {
		return fmt.Errorf("%w: accuracy must be between 0 and 1", ErrInvalidRule)
	}
	return nil
}

// validateTransactions validates a slice of transactions.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.OwnerID) == "" {
		return fmt.Errorf("%w: missing owner", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidTransaction)
	}
	if len(txn.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidTransaction)
	}
	return nil
}
