package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/singular/internal/adapt"
	"github.com/abhisek/singular/internal/config"
	"github.com/abhisek/singular/internal/logging"
	"github.com/abhisek/singular/internal/review"
	"github.com/abhisek/singular/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "singular",
	Short: "Adaptive spaced-repetition review for language lessons",
	Long: "Singular schedules when to re-encounter learned items and re-tunes\n" +
		"its schedule from observed error patterns.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SINGULAR_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then SINGULAR_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// buildService opens the store and wires the review service for a command.
// The caller closes the returned store.
func buildService(cmd *cobra.Command) (*review.Service, *store.Store, *config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	log, err := logging.New(verbose)
	if err != nil {
		return nil, nil, nil, err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	engine := adapt.NewEngine(st, adapt.Config{
		WindowSize:   cfg.Adapt.WindowSize,
		MinSample:    cfg.Adapt.MinSample,
		BaseNewLimit: cfg.Adapt.BaseNewLimit,
		MinNewLimit:  cfg.Adapt.MinNewLimit,
	})
	svc := review.NewService(st, engine, cfg.SRS.FastLatencyMs, log)
	return svc, st, cfg, nil
}
