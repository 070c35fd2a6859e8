package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/cachinapp/cachin/internal/model"
)

// Suggestion is a dry-run categorization: the rule that would be applied
// to a transaction, with a human-readable reason.
type Suggestion struct {
	Transaction model.Transaction
	Rule        model.Rule
	Reason      string
	Score       float64
}

// Suggester previews what ApplyToAll would do without writing anything.
type Suggester struct {
	engine *Engine
}

// NewSuggester creates a suggester over the given engine.
func NewSuggester(engine *Engine) *Suggester {
	return &Suggester{engine: engine}
}

// SuggestForOwner returns one suggestion per uncategorized transaction
// that has a winning rule, in the same order ApplyToAll would visit them.
// Transactions with no winning rule are skipped. Nothing is persisted and
// no usage counters move.
func (s *Suggester) SuggestForOwner(ctx context.Context, ownerID string, limit int) ([]Suggestion, error) {
	txns, err := s.engine.transactions.GetUncategorizedTransactions(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	for i := range txns {
		select {
		case <-ctx.Done():
			return suggestions, ctx.Err()
		default:
		}

		txn := txns[i]
		if strings.TrimSpace(txn.Description) == "" {
			continue
		}

		matches, matchErr := s.engine.matcher.FindMatches(ctx, ownerID, txn.Description, txn.Amount, txn.Currency, s.engine.cfg.AccuracyThreshold)
		if matchErr != nil {
			return nil, matchErr
		}
		if len(matches) == 0 || matches[0].Score < s.engine.cfg.MinApplyScore {
			continue
		}

		best := matches[0]
		suggestions = append(suggestions, Suggestion{
			Transaction: txn,
			Rule:        best.Rule,
			Score:       best.Score,
			Reason:      describeRule(best.Rule),
		})
	}

	return suggestions, nil
}

// describeRule renders the rule's predicate for display.
func describeRule(rule model.Rule) string {
	reason := fmt.Sprintf("matches %q", rule.Tokens)
	if rule.Amount != nil {
		reason += fmt.Sprintf(" at %s", rule.Amount.StringFixed(2))
	}
	if rule.Currency != "" {
		reason += " in " + rule.Currency
	}
	if rule.UsageCount > 0 {
		reason += fmt.Sprintf(", applied %d times before", rule.UsageCount)
	}
	return reason
}
