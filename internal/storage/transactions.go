package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cachinapp/cachin/internal/model"
)

const transactionColumns = `id, owner_id, date, description, amount, currency,
	source, category_id, payee_id, status, created_at`

// SaveTransactions inserts a batch of transactions atomically.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (
			id, owner_id, date, description, amount, currency,
			source, category_id, payee_id, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		txn := &transactions[i]
		status := txn.Status
		if status == "" {
			status = model.StatusConfirmed
		}
		_, err = stmt.ExecContext(ctx,
			txn.ID, txn.OwnerID, txn.Date, txn.Description,
			txn.Amount.StringFixed(2), txn.Currency,
			stringToNullString(txn.Source),
			int64ToNullInt64(txn.CategoryID), int64ToNullInt64(txn.PayeeID),
			string(status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}

	return nil
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// GetUncategorizedTransactions returns an owner's transactions with no
// category, oldest first. A limit <= 0 means no cap.
func (s *SQLiteStorage) GetUncategorizedTransactions(ctx context.Context, ownerID string, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE owner_id = ? AND category_id IS NULL
		ORDER BY date ASC, id ASC`
	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get uncategorized transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		txns = append(txns, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}

// UpdateTransactionAssignment persists the transaction's current category
// and payee references.
func (s *SQLiteStorage) UpdateTransactionAssignment(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if err := validateString(txn.ID, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, payee_id = ?
		WHERE id = ?`,
		int64ToNullInt64(txn.CategoryID), int64ToNullInt64(txn.PayeeID), txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction assignment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: transaction %s", ErrNotFound, txn.ID)
	}

	return nil
}

// TransactionExists reports whether an owner already has a transaction
// with the exact same date, description, amount and currency. Used for
// import duplicate detection.
func (s *SQLiteStorage) TransactionExists(ctx context.Context, ownerID string, date time.Time, description string, amount decimal.Decimal, currency string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM transactions
		WHERE owner_id = ?
		  AND date(date) = date(?)
		  AND description = ?
		  AND amount = ?
		  AND currency = ?`,
		ownerID, date, description, amount.StringFixed(2), currency,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}

	return count > 0, nil
}

// ListOwners returns the distinct owners that have transactions.
func (s *SQLiteStorage) ListOwners(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM transactions ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan owner: %w", err)
		}
		owners = append(owners, owner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owners: %w", err)
	}

	return owners, nil
}

// scanTransaction scans a single transaction row using the
// transactionColumns column order.
func scanTransaction(row scanner) (*model.Transaction, error) {
	var txn model.Transaction
	var amount, status string
	var source sql.NullString
	var categoryID, payeeID sql.NullInt64

	err := row.Scan(
		&txn.ID, &txn.OwnerID, &txn.Date, &txn.Description, &amount,
		&txn.Currency, &source, &categoryID, &payeeID, &status, &txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	txn.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
	}
	if source.Valid {
		txn.Source = source.String
	}
	txn.CategoryID = nullInt64ToPtr(categoryID)
	txn.PayeeID = nullInt64ToPtr(payeeID)
	txn.Status = model.TransactionStatus(status)

	return &txn, nil
}
