package rules

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cachinapp/cachin/internal/model"
)

// Match pairs a candidate rule with its computed match score.
type Match struct {
	Rule  model.Rule
	Score float64
}

// Matcher ranks an owner's stored rules against a transaction.
type Matcher struct {
	store RuleStore
	cfg   Config
}

// NewMatcher creates a matcher backed by the given rule store.
func NewMatcher(store RuleStore, cfg Config) *Matcher {
	return &Matcher{store: store, cfg: cfg}
}

// FindMatches returns all rules that could categorize the given
// transaction attributes, best first. Only rules with accuracy >=
// threshold are considered. The ordering is deterministic for a fixed
// rule set: score descending, then accuracy descending, then rule ID.
func (m *Matcher) FindMatches(ctx context.Context, ownerID, description string, amount decimal.Decimal, currency string, threshold float64) ([]Match, error) {
	tokens := Sanitize(description)
	if len(tokens) == 0 {
		return nil, nil
	}

	candidates, err := m.store.GetRulesByMinAccuracy(ctx, ownerID, threshold)
	if err != nil {
		return nil, err
	}

	return rank(candidates, tokens, amount, currency, m.cfg), nil
}

// rank scores candidate rules against sanitized transaction tokens and
// returns the surviving matches in deterministic best-first order.
func rank(candidates []model.Rule, tokens []string, amount decimal.Decimal, currency string, cfg Config) []Match {
	txnTokens := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		txnTokens[t] = struct{}{}
	}

	var matches []Match
	for _, rule := range candidates {
		// At least one shared token is mandatory, no matter how
		// specific the rule's amount/currency pins are.
		if !sharesToken(rule.Tokens, txnTokens) {
			continue
		}

		if rule.Amount != nil && !rule.Amount.Equal(amount) {
			continue
		}
		if rule.Currency != "" && !strings.EqualFold(rule.Currency, currency) {
			continue
		}

		specificity := SpecificityScore(strings.Fields(rule.Tokens), rule.Amount, rule.Currency)

		// Usage acts as a capped tie-breaker, not a primary signal.
		usageBonus := float64(rule.UsageCount) * cfg.UsageBonusRate
		if usageBonus > cfg.UsageBonusCap {
			usageBonus = cfg.UsageBonusCap
		}

		matches = append(matches, Match{Rule: rule, Score: specificity + usageBonus})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Rule.Accuracy != matches[j].Rule.Accuracy {
			return matches[i].Rule.Accuracy > matches[j].Rule.Accuracy
		}
		return matches[i].Rule.ID < matches[j].Rule.ID
	})

	return matches
}

// sharesToken reports whether any of the rule's space-joined tokens
// appears in the transaction token set.
func sharesToken(ruleTokens string, txnTokens map[string]struct{}) bool {
	for _, t := range strings.Fields(ruleTokens) {
		if _, ok := txnTokens[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}
