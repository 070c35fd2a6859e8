package rules

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/cachinapp/cachin/internal/model"
)

// memStore is an in-memory RuleStore and TransactionStore with the same
// idempotence semantics as the SQLite implementation.
type memStore struct {
	transactions map[string]*model.Transaction
	rules        []model.Rule
	nextRuleID   int64
}

func newMemStore() *memStore {
	return &memStore{transactions: make(map[string]*model.Transaction)}
}

func ruleIdentity(r *model.Rule) [6]string {
	amount := ""
	if r.Amount != nil {
		amount = r.Amount.StringFixed(2)
	}
	category := ""
	if r.CategoryID != nil {
		category = strconv.FormatInt(*r.CategoryID, 10)
	}
	payee := ""
	if r.PayeeID != nil {
		payee = strconv.FormatInt(*r.PayeeID, 10)
	}
	return [6]string{r.OwnerID, r.Tokens, amount, r.Currency, category, payee}
}

func (m *memStore) GetOrCreateRule(_ context.Context, rule *model.Rule) error {
	id := ruleIdentity(rule)
	for i := range m.rules {
		if ruleIdentity(&m.rules[i]) == id {
			*rule = m.rules[i]
			return nil
		}
	}

	m.nextRuleID++
	rule.ID = m.nextRuleID
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	m.rules = append(m.rules, *rule)
	return nil
}

func (m *memStore) GetRulesByMinAccuracy(_ context.Context, ownerID string, minAccuracy float64) ([]model.Rule, error) {
	var out []model.Rule
	for _, r := range m.rules {
		if r.OwnerID == ownerID && r.Accuracy >= minAccuracy {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) IncrementRuleUsage(_ context.Context, id int64) error {
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules[i].UsageCount++
			return nil
		}
	}
	return nil
}

func (m *memStore) RuleStats(_ context.Context, ownerID string) (model.RuleStats, error) {
	var stats model.RuleStats
	for _, r := range m.rules {
		if r.OwnerID != ownerID {
			continue
		}
		stats.TotalRules++
		stats.TotalApplications += r.UsageCount
		stats.AvgUsage += float64(r.UsageCount)
		stats.AvgAccuracy += r.Accuracy
	}
	if stats.TotalRules > 0 {
		stats.AvgUsage /= float64(stats.TotalRules)
		stats.AvgAccuracy /= float64(stats.TotalRules)
	}
	return stats, nil
}

func (m *memStore) CountStaleRules(_ context.Context, ownerID string, maxUsage int, maxAccuracy float64) (int64, error) {
	var count int64
	for _, r := range m.rules {
		if r.OwnerID == ownerID && r.UsageCount <= maxUsage && r.Accuracy < maxAccuracy {
			count++
		}
	}
	return count, nil
}

func (m *memStore) DeleteStaleRules(_ context.Context, ownerID string, maxUsage int, maxAccuracy float64) (int64, error) {
	var kept []model.Rule
	var deleted int64
	for _, r := range m.rules {
		if r.OwnerID == ownerID && r.UsageCount <= maxUsage && r.Accuracy < maxAccuracy {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.rules = kept
	return deleted, nil
}

func (m *memStore) GetUncategorizedTransactions(_ context.Context, ownerID string, limit int) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range m.transactions {
		if t.OwnerID == ownerID && t.CategoryID == nil {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpdateTransactionAssignment(_ context.Context, txn *model.Transaction) error {
	saved := *txn
	m.transactions[txn.ID] = &saved
	return nil
}

// findRule returns the stored rule with the given ID.
func (m *memStore) findRule(id int64) *model.Rule {
	for i := range m.rules {
		if m.rules[i].ID == id {
			return &m.rules[i]
		}
	}
	return nil
}
