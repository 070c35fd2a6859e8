package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cachinapp/cachin/internal/rules"
)

func applyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply categorization rules to uncategorized transactions",
		Long: `Run the rule engine over uncategorized transactions for one user
or for every user with transactions. Transactions that already have a
category are never touched, so re-running is always safe.`,
		RunE: runApply,
	}

	cmd.Flags().String("user", "", "user to process (default: all users)")
	cmd.Flags().Int("max", 0, "maximum transactions to process per user (0 = no cap)")
	cmd.Flags().Bool("dry-run", false, "show what would be categorized without writing")

	return cmd
}

func runApply(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")
	maxCount, _ := cmd.Flags().GetInt("max")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	engine := newEngine(store)

	var owners []string
	if user != "" {
		owners = []string{user}
	} else {
		owners, err = store.ListOwners(ctx)
		if err != nil {
			return fmt.Errorf("failed to list owners: %w", err)
		}
		if len(owners) == 0 {
			slog.Info("No transactions found, nothing to apply")
			return nil
		}
	}

	if dryRun {
		return runApplyDryRun(ctx, engine, owners, maxCount)
	}

	bar := progressbar.NewOptions(len(owners),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Applying rules..."),
	)

	totalUpdated := 0
	totalConsidered := 0

	for _, owner := range owners {
		stats, statsErr := engine.Stats(ctx, owner)
		if statsErr != nil {
			return fmt.Errorf("failed to get rule stats for %s: %w", owner, statsErr)
		}

		updated, total, applyErr := engine.ApplyToAll(ctx, owner, maxCount)
		if applyErr != nil {
			return fmt.Errorf("failed to apply rules for %s: %w", owner, applyErr)
		}

		totalUpdated += updated
		totalConsidered += total
		_ = bar.Add(1)

		slog.Info("Processed user",
			"user", owner,
			"rules", stats.TotalRules,
			"updated", updated,
			"considered", total)
	}

	_ = bar.Finish()
	fmt.Println()
	slog.Info("Rule application finished",
		"users", len(owners),
		"updated", totalUpdated,
		"considered", totalConsidered)

	return nil
}

// runApplyDryRun previews the run: every transaction that would be
// categorized is printed with its winning rule, and nothing is written.
func runApplyDryRun(ctx context.Context, engine *rules.Engine, owners []string, maxCount int) error {
	suggester := rules.NewSuggester(engine)

	total := 0
	for _, owner := range owners {
		suggestions, err := suggester.SuggestForOwner(ctx, owner, maxCount)
		if err != nil {
			return fmt.Errorf("failed to preview rules for %s: %w", owner, err)
		}

		for _, s := range suggestions {
			fmt.Printf("%s  %s  %s %s  %s (score %.2f)\n",
				owner,
				s.Transaction.Date.Format("2006-01-02"),
				s.Transaction.Amount.StringFixed(2),
				s.Transaction.Currency,
				s.Reason,
				s.Score)
		}
		total += len(suggestions)
	}

	slog.Info("Dry run finished", "users", len(owners), "would_update", total)
	return nil
}
