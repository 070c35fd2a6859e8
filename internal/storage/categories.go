package storage

import (
	"context"
	"fmt"

	"github.com/cachinapp/cachin/internal/model"
)

// GetOrCreateCategory returns the owner's category with the given name,
// creating it if missing.
func (s *SQLiteStorage) GetOrCreateCategory(ctx context.Context, ownerID, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (owner_id, name) VALUES (?, ?)`,
		ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	var cat model.Category
	err = s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at FROM categories WHERE owner_id = ? AND name = ?`,
		ownerID, name,
	).Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	return &cat, nil
}

// GetCategories returns all of an owner's categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context, ownerID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, created_at FROM categories WHERE owner_id = ? ORDER BY name`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetOrCreatePayee returns the owner's payee with the given name, creating
// it if missing.
func (s *SQLiteStorage) GetOrCreatePayee(ctx context.Context, ownerID, name string) (*model.Payee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO payees (owner_id, name) VALUES (?, ?)`,
		ownerID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create payee: %w", err)
	}

	var payee model.Payee
	err = s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, created_at FROM payees WHERE owner_id = ? AND name = ?`,
		ownerID, name,
	).Scan(&payee.ID, &payee.OwnerID, &payee.Name, &payee.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load payee: %w", err)
	}

	return &payee, nil
}

// GetPayees returns all of an owner's payees ordered by name.
func (s *SQLiteStorage) GetPayees(ctx context.Context, ownerID string) ([]model.Payee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, name, created_at FROM payees WHERE owner_id = ? ORDER BY name`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payees []model.Payee
	for rows.Next() {
		var payee model.Payee
		if err := rows.Scan(&payee.ID, &payee.OwnerID, &payee.Name, &payee.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payee: %w", err)
		}
		payees = append(payees, payee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payees: %w", err)
	}

	return payees, nil
}
