package rules

import (
	"context"

	"github.com/cachinapp/cachin/internal/model"
)

// RuleStore persists learned categorization rules.
//
// GetOrCreateRule must be idempotent: inserting a rule whose identity
// tuple (owner, tokens, amount, currency, category, payee) already exists
// fetches the existing row instead of creating a duplicate, including
// under concurrent callers.
type RuleStore interface {
	// GetOrCreateRule inserts the rule or loads the existing row with the
	// same identity, filling ID, timestamps and counters either way.
	GetOrCreateRule(ctx context.Context, rule *model.Rule) error
	// GetRulesByMinAccuracy returns all of an owner's rules with
	// accuracy >= minAccuracy.
	GetRulesByMinAccuracy(ctx context.Context, ownerID string, minAccuracy float64) ([]model.Rule, error)
	// IncrementRuleUsage atomically increments a rule's usage counter.
	IncrementRuleUsage(ctx context.Context, id int64) error
	// RuleStats aggregates counts and averages over an owner's rules.
	RuleStats(ctx context.Context, ownerID string) (model.RuleStats, error)
	// CountStaleRules counts rules eligible for deletion.
	CountStaleRules(ctx context.Context, ownerID string, maxUsage int, maxAccuracy float64) (int64, error)
	// DeleteStaleRules deletes rules with usage_count <= maxUsage and
	// accuracy < maxAccuracy, returning how many were removed.
	DeleteStaleRules(ctx context.Context, ownerID string, maxUsage int, maxAccuracy float64) (int64, error)
}

// TransactionStore provides the transaction access the engine needs. The
// engine never creates transactions; it only reads uncategorized ones and
// writes back category/payee assignments.
type TransactionStore interface {
	// GetUncategorizedTransactions returns an owner's transactions with no
	// category, oldest first. A limit <= 0 means no cap.
	GetUncategorizedTransactions(ctx context.Context, ownerID string, limit int) ([]model.Transaction, error)
	// UpdateTransactionAssignment persists the transaction's current
	// CategoryID and PayeeID.
	UpdateTransactionAssignment(ctx context.Context, txn *model.Transaction) error
}
