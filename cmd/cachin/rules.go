package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and maintain categorization rules",
	}

	cmd.AddCommand(rulesStatsCmd())
	cmd.AddCommand(rulesCleanupCmd())

	return cmd
}

func rulesStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rule statistics for a user",
		RunE:  runRulesStats,
	}

	cmd.Flags().String("user", "", "user to inspect")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRulesStats(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	stats, err := newEngine(store).Stats(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to get rule stats: %w", err)
	}

	fmt.Printf("Rules for %s\n", user)
	fmt.Printf("  Total rules:        %d\n", stats.TotalRules)
	fmt.Printf("  Average usage:      %.2f\n", stats.AvgUsage)
	fmt.Printf("  Average accuracy:   %.2f\n", stats.AvgAccuracy)
	fmt.Printf("  Total applications: %d\n", stats.TotalApplications)

	return nil
}

func rulesCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stale rules with low usage and low accuracy",
		Long: `Delete a user's rules whose usage count is at or below the floor and
whose accuracy is below the stale ceiling. Deletion is permanent; use
--dry-run to see how many rules would be removed.`,
		RunE: runRulesCleanup,
	}

	cmd.Flags().String("user", "", "user whose rules to clean")
	cmd.Flags().Int("min-usage", 0, "delete rules with usage count at or below this")
	cmd.Flags().Bool("dry-run", false, "report what would be deleted without deleting")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRulesCleanup(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")
	minUsage, _ := cmd.Flags().GetInt("min-usage")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	engine := newEngine(store)

	if dryRun {
		count, countErr := engine.CountStale(ctx, user, minUsage)
		if countErr != nil {
			return fmt.Errorf("failed to count stale rules: %w", countErr)
		}
		slog.Info("Dry run: stale rules that would be deleted", "user", user, "count", count)
		return nil
	}

	deleted, err := engine.CleanupStale(ctx, user, minUsage)
	if err != nil {
		return fmt.Errorf("failed to clean up rules: %w", err)
	}

	slog.Info("Deleted stale rules", "user", user, "deleted", deleted)

	return nil
}
