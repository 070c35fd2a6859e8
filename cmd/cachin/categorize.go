package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cachinapp/cachin/internal/rules"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize <transaction-id>",
		Short: "Assign a category and/or payee to a transaction",
		Long: `Assign a category and/or payee to a transaction by name, creating
them if needed. The assignment teaches the rule engine: rule variants
are learned from the transaction and a bounded batch pass immediately
re-applies rules to the user's other uncategorized transactions.`,
		Args: cobra.ExactArgs(1),
		RunE: runCategorize,
	}

	cmd.Flags().String("category", "", "category name to assign")
	cmd.Flags().String("payee", "", "payee name to assign")

	return cmd
}

func runCategorize(cmd *cobra.Command, args []string) error {
	categoryName, _ := cmd.Flags().GetString("category")
	payeeName, _ := cmd.Flags().GetString("payee")

	if categoryName == "" && payeeName == "" {
		return fmt.Errorf("at least one of --category or --payee is required")
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	txn, err := store.GetTransactionByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}

	if categoryName != "" {
		category, catErr := store.GetOrCreateCategory(ctx, txn.OwnerID, categoryName)
		if catErr != nil {
			return fmt.Errorf("failed to resolve category: %w", catErr)
		}
		txn.CategoryID = &category.ID
	}
	if payeeName != "" {
		payee, payeeErr := store.GetOrCreatePayee(ctx, txn.OwnerID, payeeName)
		if payeeErr != nil {
			return fmt.Errorf("failed to resolve payee: %w", payeeErr)
		}
		txn.PayeeID = &payee.ID
	}

	if err := store.UpdateTransactionAssignment(ctx, txn); err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}

	engine := newEngine(store)

	// Learn rules from the assignment, then drain the deferred batch pass
	// so the new rules immediately help other uncategorized transactions.
	learned, err := engine.OnAssigned(ctx, txn)
	if err != nil {
		return fmt.Errorf("failed to learn rules: %w", err)
	}

	reapplier := rules.NewReapplier(engine, 1)
	reapplier.Enqueue(txn.OwnerID)
	if err := reapplier.Drain(ctx); err != nil {
		return fmt.Errorf("failed to re-apply rules: %w", err)
	}

	slog.Info("Transaction categorized",
		"transaction", txn.ID,
		"rules_learned", len(learned))

	return nil
}
