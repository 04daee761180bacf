package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"think41-chat/db"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print table counts and completion token usage",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Int("days", 30, "Usage window in days, ending now")
}

type statsReport struct {
	Database *db.DBStats    `json:"database"`
	Usage    *db.UsageStats `json:"usage"`
}

func runStats(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = 30
	}

	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	dbStats, err := rt.db.GetStats(ctx)
	if err != nil {
		return err
	}
	end := time.Now().UTC()
	usage, err := rt.db.GetUsageStats(ctx, end.AddDate(0, 0, -days), end)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(statsReport{Database: dbStats, Usage: usage})
}
