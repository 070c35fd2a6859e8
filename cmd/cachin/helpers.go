package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cachinapp/cachin/internal/paste"
	"github.com/cachinapp/cachin/internal/rules"
	"github.com/cachinapp/cachin/internal/storage"
)

// expandPath expands ~ and environment variables in a file path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}
	return os.ExpandEnv(path)
}

// initStorage opens the configured database and runs migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/cachin/cachin.db"
	}
	dbPath = expandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// engineConfig builds the engine configuration from viper, falling back
// to the built-in defaults for unset keys.
func engineConfig() rules.Config {
	cfg := rules.DefaultConfig()
	if viper.IsSet("rules.accuracy_threshold") {
		cfg.AccuracyThreshold = viper.GetFloat64("rules.accuracy_threshold")
	}
	if viper.IsSet("rules.min_apply_score") {
		cfg.MinApplyScore = viper.GetFloat64("rules.min_apply_score")
	}
	if viper.IsSet("rules.usage_bonus_rate") {
		cfg.UsageBonusRate = viper.GetFloat64("rules.usage_bonus_rate")
	}
	if viper.IsSet("rules.usage_bonus_cap") {
		cfg.UsageBonusCap = viper.GetFloat64("rules.usage_bonus_cap")
	}
	if viper.IsSet("rules.stale_accuracy") {
		cfg.StaleAccuracy = viper.GetFloat64("rules.stale_accuracy")
	}
	if viper.IsSet("rules.reapply_limit") {
		cfg.ReapplyLimit = viper.GetInt("rules.reapply_limit")
	}
	return cfg
}

// newEngine wires a rule engine against the given storage.
func newEngine(store *storage.SQLiteStorage) *rules.Engine {
	return rules.NewWithConfig(store, store, engineConfig())
}

// bankConfig loads bank formats, merging an optional user config file
// over the built-in defaults.
func bankConfig() (paste.Config, error) {
	path := viper.GetString("import.banks_config")
	if path == "" {
		return paste.DefaultConfig(), nil
	}
	return paste.LoadConfig(expandPath(path))
}
