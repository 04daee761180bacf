package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"think41-chat/db"
	"think41-chat/utils"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "think41-chat",
	Short: "Conversational product and order assistant backend",
	Long: `think41-chat answers questions about the product catalog and order log
through a hosted LLM and keeps every conversation in SQLite.

Examples:
  think41-chat serve
  think41-chat import --products products.csv --orders orders.csv
  think41-chat export --conversation 3 --format markdown`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "Path to JSON configuration file")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "think41-chat v%s\n", version)
	},
}

// runtime holds what every command needs
type runtime struct {
	cfg    *utils.Config
	logger *utils.Logger
	db     *db.DB
}

func (r *runtime) Close() {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Error("Failed to close database: %v", err)
		}
	}
	r.logger.Close()
}

// bootstrap loads configuration, builds the logger and opens the database
func bootstrap(cmd *cobra.Command) (*runtime, error) {
	bootLogger, err := utils.NewLogger(utils.LogOptions{})
	if err != nil {
		return nil, err
	}
	utils.LoadEnvFiles(bootLogger)

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := utils.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := utils.NewLogger(utils.LogOptions{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Path:   cfg.Log.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	database, err := db.New(cfg.Data.DBPath)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database initialized: %s", cfg.Data.DBPath)

	return &runtime{cfg: cfg, logger: logger, db: database}, nil
}
