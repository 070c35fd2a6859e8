// Package model defines the core data structures for the cachin application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rule maps transaction attributes to a predicted category and/or payee.
//
// Rules are learned from user categorizations: every time a transaction is
// assigned a category or payee, up to four rule variants are stored (tokens
// alone, tokens+amount+currency, tokens+currency, tokens+amount). A nil
// Amount or empty Currency acts as a wildcard at match time.
type Rule struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	CategoryID *int64           `json:"category_id,omitempty"`
	PayeeID    *int64           `json:"payee_id,omitempty"`
	OwnerID    string           `json:"owner_id"`
	Tokens     string           `json:"tokens"`
	Currency   string           `json:"currency,omitempty"`
	ID         int64            `json:"id"`
	UsageCount int              `json:"usage_count"`
	Accuracy   float64          `json:"accuracy"`
}

// Predicts reports whether the rule carries at least one prediction.
// A rule with neither category nor payee matches transactions but can
// never change one.
func (r *Rule) Predicts() bool {
	return r.CategoryID != nil || r.PayeeID != nil
}

// RuleStats summarizes an owner's rule set.
type RuleStats struct {
	TotalRules        int
	AvgUsage          float64
	AvgAccuracy       float64
	TotalApplications int
}
