package rules

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cachinapp/cachin/internal/model"
)

// Config holds the engine's tunable thresholds. The defaults were tuned
// empirically; treat them as configuration, not law.
type Config struct {
	// AccuracyThreshold is the minimum rule accuracy considered at match
	// time. It is the primary quality gate.
	AccuracyThreshold float64
	// MinApplyScore is the absolute match-score floor below which the top
	// match is not applied. Low on purpose: accuracy filtering is trusted
	// as the real gate.
	MinApplyScore float64
	// UsageBonusRate is the per-use score bonus added at match time.
	UsageBonusRate float64
	// UsageBonusCap bounds the total usage bonus.
	UsageBonusCap float64
	// StaleAccuracy is the accuracy ceiling below which unused rules are
	// eligible for cleanup.
	StaleAccuracy float64
	// ReapplyLimit caps how many transactions a deferred batch re-apply
	// touches after a categorization event.
	ReapplyLimit int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		AccuracyThreshold: 0.5,
		MinApplyScore:     0.1,
		UsageBonusRate:    0.01,
		UsageBonusCap:     0.2,
		StaleAccuracy:     0.5,
		ReapplyLimit:      50,
	}
}

// Engine orchestrates rule learning and application. Every operation runs
// to completion synchronously in the caller's context; state is scoped
// per owner and rules never cross owners.
type Engine struct {
	rules        RuleStore
	transactions TransactionStore
	matcher      *Matcher
	cfg          Config
}

// New creates an engine with the default configuration.
func New(rules RuleStore, transactions TransactionStore) *Engine {
	return NewWithConfig(rules, transactions, DefaultConfig())
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(rules RuleStore, transactions TransactionStore, cfg Config) *Engine {
	return &Engine{
		rules:        rules,
		transactions: transactions,
		matcher:      NewMatcher(rules, cfg),
		cfg:          cfg,
	}
}

// GenerateRules learns rule variants from a categorized transaction.
//
// Four variants are stored against the same (category, payee) pair:
// tokens alone, tokens+amount+currency, tokens+currency, tokens+amount.
// Creation is idempotent; calling twice with identical inputs returns the
// same four rules with usage and accuracy untouched. A description that
// sanitizes to nothing yields no rules.
func (e *Engine) GenerateRules(ctx context.Context, ownerID, description string, amount decimal.Decimal, currency string, categoryID, payeeID *int64) ([]model.Rule, error) {
	tokens := Sanitize(description)
	if len(tokens) == 0 {
		return nil, nil
	}

	joined := strings.Join(tokens, " ")
	curr := strings.ToUpper(currency)

	variants := []struct {
		amount   *decimal.Decimal
		currency string
	}{
		{nil, ""},
		{&amount, curr},
		{nil, curr},
		{&amount, ""},
	}

	created := make([]model.Rule, 0, len(variants))
	for _, v := range variants {
		rule := model.Rule{
			OwnerID:    ownerID,
			Tokens:     joined,
			Amount:     v.amount,
			Currency:   v.currency,
			CategoryID: categoryID,
			PayeeID:    payeeID,
			Accuracy:   1.0,
		}
		if err := e.rules.GetOrCreateRule(ctx, &rule); err != nil {
			return nil, err
		}
		created = append(created, rule)
	}

	return created, nil
}

// OnAssigned is the transaction lifecycle hook: it learns rules from a
// transaction whose category or payee was just set. Callers should follow
// up with a deferred batch re-apply (see Reapplier) so the new rules
// immediately help other uncategorized transactions.
func (e *Engine) OnAssigned(ctx context.Context, txn *model.Transaction) ([]model.Rule, error) {
	if txn.CategoryID == nil && txn.PayeeID == nil {
		return nil, nil
	}
	return e.GenerateRules(ctx, txn.OwnerID, txn.Description, txn.Amount, txn.Currency, txn.CategoryID, txn.PayeeID)
}

// ApplyBest finds and applies the best matching rule to a transaction.
//
// The winning rule fills the transaction's category and payee only where
// they are currently empty; an existing assignment is never overwritten.
// On success the transaction is persisted and the rule's usage counter
// incremented. A nil rule with nil error means no rule applied, which is
// the normal outcome for unmatched transactions.
func (e *Engine) ApplyBest(ctx context.Context, txn *model.Transaction) (*model.Rule, error) {
	if strings.TrimSpace(txn.Description) == "" {
		return nil, nil
	}
	if txn.Categorized() && txn.PayeeID != nil {
		return nil, nil
	}

	matches, err := e.matcher.FindMatches(ctx, txn.OwnerID, txn.Description, txn.Amount, txn.Currency, e.cfg.AccuracyThreshold)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	best := matches[0]
	if best.Score < e.cfg.MinApplyScore {
		return nil, nil
	}

	if best.Rule.CategoryID != nil && txn.CategoryID == nil {
		txn.CategoryID = best.Rule.CategoryID
	}
	if best.Rule.PayeeID != nil && txn.PayeeID == nil {
		txn.PayeeID = best.Rule.PayeeID
	}

	if err := e.transactions.UpdateTransactionAssignment(ctx, txn); err != nil {
		return nil, err
	}
	if err := e.rules.IncrementRuleUsage(ctx, best.Rule.ID); err != nil {
		return nil, err
	}

	slog.Debug("applied categorization rule",
		"owner", txn.OwnerID,
		"transaction", txn.ID,
		"rule", best.Rule.ID,
		"score", best.Score)

	return &best.Rule, nil
}

// ApplyToAll applies rules to an owner's uncategorized transactions,
// optionally capped at maxCount. It returns how many transactions were
// updated and how many were considered. Re-running is safe: transactions
// categorized on a previous pass are excluded by the selection filter.
func (e *Engine) ApplyToAll(ctx context.Context, ownerID string, maxCount int) (updated, total int, err error) {
	txns, err := e.transactions.GetUncategorizedTransactions(ctx, ownerID, maxCount)
	if err != nil {
		return 0, 0, err
	}

	total = len(txns)
	for i := range txns {
		select {
		case <-ctx.Done():
			return updated, total, ctx.Err()
		default:
		}

		rule, applyErr := e.ApplyBest(ctx, &txns[i])
		if applyErr != nil {
			return updated, total, applyErr
		}
		if rule != nil {
			updated++
		}
	}

	return updated, total, nil
}

// Stats aggregates an owner's rule set.
func (e *Engine) Stats(ctx context.Context, ownerID string) (model.RuleStats, error) {
	return e.rules.RuleStats(ctx, ownerID)
}

// CountStale reports how many rules CleanupStale would delete.
func (e *Engine) CountStale(ctx context.Context, ownerID string, minUsage int) (int64, error) {
	return e.rules.CountStaleRules(ctx, ownerID, minUsage, e.cfg.StaleAccuracy)
}

// CleanupStale deletes an owner's rules with usage_count <= minUsage and
// accuracy below the stale ceiling. Destructive and non-reversible; use
// CountStale for a dry run.
func (e *Engine) CleanupStale(ctx context.Context, ownerID string, minUsage int) (int64, error) {
	return e.rules.DeleteStaleRules(ctx, ownerID, minUsage, e.cfg.StaleAccuracy)
}
