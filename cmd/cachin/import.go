package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cachinapp/cachin/internal/common"
	"github.com/cachinapp/cachin/internal/model"
	"github.com/cachinapp/cachin/internal/paste"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from a pasted bank statement",
		Long: `Parse a text file containing statement lines pasted from a bank,
validate and de-duplicate the entries, persist them, and run the rule
engine over the newly imported transactions.

Exact duplicates of existing transactions (same date, description,
amount and currency) are imported with status pending_duplicate for
review rather than silently dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("user", "", "user to import transactions for")
	cmd.Flags().String("bank", "", "bank format code (e.g. itau_debito)")
	cmd.Flags().String("currency", "", "fallback currency for banks that require one")
	cmd.Flags().Bool("detect", false, "auto-detect the bank format")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	bank, _ := cmd.Flags().GetString("bank")
	currency, _ := cmd.Flags().GetString("currency")
	detect, _ := cmd.Flags().GetBool("detect")

	if bank == "" && !detect {
		return fmt.Errorf("either --bank or --detect is required")
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read statement file: %w", err)
	}

	banks, err := bankConfig()
	if err != nil {
		return err
	}

	if detect {
		detected, confidence := paste.NewDetector(banks).BestMatch(string(raw), bank)
		if detected == "" {
			return common.NewUserError("could not detect a bank format, use --bank to pick one", common.ErrUnknownBank)
		}
		slog.Info("Detected bank format", "bank", detected, "confidence", confidence)
		bank = detected
	}

	entries, parseErrs := paste.NewParser(banks).Parse(string(raw), bank, strings.ToUpper(currency))
	for _, e := range parseErrs {
		slog.Warn("Skipped statement line", "error", e)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w from %s", common.ErrNoEntries, args[0])
	}

	// Drop invalid entries before touching storage
	valid := entries[:0]
	for _, entry := range entries {
		if problems := paste.ValidateEntry(entry); len(problems) > 0 {
			slog.Warn("Skipped invalid entry",
				"description", entry.Description,
				"problems", strings.Join(problems, "; "))
			continue
		}
		valid = append(valid, entry)
	}
	if len(valid) == 0 {
		return fmt.Errorf("%w: every parsed entry failed validation", common.ErrInvalidEntry)
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := paste.MarkDuplicates(ctx, store, user, valid); err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(valid),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing transactions..."),
	)

	transactions := make([]model.Transaction, 0, len(valid))
	duplicates := 0
	for _, entry := range valid {
		status := model.StatusConfirmed
		if entry.IsDuplicate {
			status = model.StatusPendingDuplicate
			duplicates++
		}
		transactions = append(transactions, model.Transaction{
			ID:          uuid.NewString(),
			OwnerID:     user,
			Date:        entry.Date,
			Description: entry.Description,
			Amount:      entry.Amount,
			Currency:    entry.Currency,
			Source:      entry.Source,
			Status:      status,
		})
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Println()

	if err := store.SaveTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	// Categorize what we just imported
	updated, considered, err := newEngine(store).ApplyToAll(ctx, user, 0)
	if err != nil {
		return fmt.Errorf("failed to apply rules: %w", err)
	}

	slog.Info("Import finished",
		"user", user,
		"bank", bank,
		"imported", len(transactions),
		"duplicates", duplicates,
		"categorized", updated,
		"considered", considered)

	return nil
}
