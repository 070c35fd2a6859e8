package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cachinapp/cachin/internal/model"
)

// ruleColumns is the standard column list for rule scans.
const ruleColumns = `id, owner_id, description_tokens, amount, currency,
	category_id, payee_id, usage_count, accuracy, created_at, updated_at`

// GetOrCreateRule inserts the rule or loads the existing row with the same
// identity tuple, filling ID, counters and timestamps either way.
//
// The insert uses OR IGNORE against the unique identity index, so a
// concurrent duplicate insert is absorbed silently and the follow-up
// select returns whichever row won.
func (s *SQLiteStorage) GetOrCreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO categorization_rules (
			owner_id, description_tokens, amount, currency,
			category_id, payee_id, usage_count, accuracy
		) VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		rule.OwnerID, rule.Tokens,
		amountToNullString(rule.Amount), stringToNullString(rule.Currency),
		int64ToNullInt64(rule.CategoryID), int64ToNullInt64(rule.PayeeID),
		rule.Accuracy,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	amountKey := ""
	if rule.Amount != nil {
		amountKey = rule.Amount.StringFixed(2)
	}
	var categoryKey, payeeKey int64
	if rule.CategoryID != nil {
		categoryKey = *rule.CategoryID
	}
	if rule.PayeeID != nil {
		payeeKey = *rule.PayeeID
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM categorization_rules
		WHERE owner_id = ?
		  AND description_tokens = ?
		  AND IFNULL(amount, '') = ?
		  AND IFNULL(currency, '') = ?
		  AND IFNULL(category_id, 0) = ?
		  AND IFNULL(payee_id, 0) = ?`,
		rule.OwnerID, rule.Tokens, amountKey, rule.Currency, categoryKey, payeeKey,
	)

	fetched, err := scanRule(row)
	if err != nil {
		return fmt.Errorf("failed to load rule after insert: %w", err)
	}
	*rule = *fetched

	return nil
}

// GetRulesByMinAccuracy returns all of an owner's rules with accuracy at
// or above the threshold, ordered by ID for reproducible matching.
func (s *SQLiteStorage) GetRulesByMinAccuracy(ctx context.Context, ownerID string, minAccuracy float64) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM categorization_rules
		WHERE owner_id = ? AND accuracy >= ?
		ORDER BY id ASC`,
		ownerID, minAccuracy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", scanErr)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// IncrementRuleUsage atomically increments a rule's usage counter.
func (s *SQLiteStorage) IncrementRuleUsage(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categorization_rules
		SET usage_count = usage_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment rule usage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: rule %d", ErrNotFound, id)
	}

	return nil
}

// RuleStats aggregates counts and averages over an owner's rules.
func (s *SQLiteStorage) RuleStats(ctx context.Context, ownerID string) (model.RuleStats, error) {
	if err := validateContext(ctx); err != nil {
		return model.RuleStats{}, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return model.RuleStats{}, err
	}

	var stats model.RuleStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			IFNULL(AVG(usage_count), 0),
			IFNULL(AVG(accuracy), 0),
			IFNULL(SUM(usage_count), 0)
		FROM categorization_rules
		WHERE owner_id = ?`, ownerID,
	).Scan(&stats.TotalRules, &stats.AvgUsage, &stats.AvgAccuracy, &stats.TotalApplications)
	if err != nil {
		return model.RuleStats{}, fmt.Errorf("failed to get rule stats: %w", err)
	}

	return stats, nil
}

// CountStaleRules counts rules that DeleteStaleRules would remove.
func (s *SQLiteStorage) CountStaleRules(ctx context.Context, ownerID string, maxUsage int, maxAccuracy float64) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return 0, err
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM categorization_rules
		WHERE owner_id = ? AND usage_count <= ? AND accuracy < ?`,
		ownerID, maxUsage, maxAccuracy,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stale rules: %w", err)
	}

	return count, nil
}

// DeleteStaleRules removes an owner's rules with usage_count <= maxUsage
// and accuracy < maxAccuracy, returning how many were deleted.
func (s *SQLiteStorage) DeleteStaleRules(ctx context.Context, ownerID string, maxUsage int, maxAccuracy float64) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM categorization_rules
		WHERE owner_id = ? AND usage_count <= ? AND accuracy < ?`,
		ownerID, maxUsage, maxAccuracy,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale rules: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// SetRuleAccuracy overrides a rule's accuracy score. Accuracy is otherwise
// write-once at creation; this is the manual adjustment knob.
func (s *SQLiteStorage) SetRuleAccuracy(ctx context.Context, id int64, accuracy float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if accuracy < 0 || accuracy > 1 {
		return fmt.Errorf("%w: accuracy must be between 0 and 1", ErrInvalidRule)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categorization_rules
		SET accuracy = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, accuracy, id)
	if err != nil {
		return fmt.Errorf("failed to set rule accuracy: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: rule %d", ErrNotFound, id)
	}

	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

// scanRule scans a single rule row using the ruleColumns column order.
func scanRule(row scanner) (*model.Rule, error) {
	var rule model.Rule
	var amount, currency sql.NullString
	var categoryID, payeeID sql.NullInt64

	err := row.Scan(
		&rule.ID, &rule.OwnerID, &rule.Tokens, &amount, &currency,
		&categoryID, &payeeID, &rule.UsageCount, &rule.Accuracy,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rule.Amount, err = nullStringToAmount(amount)
	if err != nil {
		return nil, err
	}
	if currency.Valid {
		rule.Currency = currency.String
	}
	rule.CategoryID = nullInt64ToPtr(categoryID)
	rule.PayeeID = nullInt64ToPtr(payeeID)

	return &rule, nil
}
