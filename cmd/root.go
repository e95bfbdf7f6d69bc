package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/amcdrill/internal/auth"
	"github.com/abhisek/amcdrill/internal/config"
	"github.com/abhisek/amcdrill/internal/logging"
	"github.com/abhisek/amcdrill/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "amcdrill",
	Short: "Timed AMC practice in the terminal",
	Long:  "amcdrill serves AMC contest problems one at a time, times every answer and keeps your score history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, playFlags{})
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides AMCDRILL_DB env var)")
	rootCmd.PersistentFlags().String("api", "", "Base URL of the content service (overrides AMCDRILL_API_URL)")
	rootCmd.PersistentFlags().String("user", "", "Username for saved results (overrides the token's user)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig merges .env, AMCDRILL_* variables and the persistent flags,
// then resolves the learner identity.
func loadConfig(cmd *cobra.Command) (config.Config, auth.Identity, error) {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn("%v", err)
	}
	cfg := config.FromEnv()

	flags := cmd.Flags()
	if v, _ := flags.GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := flags.GetString("api"); v != "" {
		cfg.APIBaseURL = v
	}
	if v, _ := flags.GetString("user"); v != "" {
		cfg.User = v
	}
	if v, _ := flags.GetBool("verbose"); v {
		cfg.Verbose = true
	}
	logging.SetVerbose(cfg.Verbose)

	if err := cfg.Validate(); err != nil {
		return cfg, auth.Identity{}, err
	}

	id, err := auth.Resolve(cfg.User, cfg.Token, time.Now())
	if err != nil {
		return cfg, auth.Identity{}, fmt.Errorf("resolve user: %w", err)
	}
	cfg.User = id.Username
	return cfg, id, nil
}

// resolveDBPath returns the database path using --db flag or AMCDRILL_DB
// (highest priority), then the default XDG path.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore opens the local database.
func openStore(cfg config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
