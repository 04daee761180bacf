package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"think41-chat/db"
	"think41-chat/utils"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a conversation as JSON or Markdown",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().Int64("conversation", 0, "Conversation ID")
	exportCmd.Flags().String("format", "json", "Export format: json or markdown")
	exportCmd.Flags().String("out", "", "Output file (default: stdout)")
	_ = exportCmd.MarkFlagRequired("conversation")
}

func runExport(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetInt64("conversation")
	formatName, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	format, err := utils.ParseExportFormat(formatName)
	if err != nil {
		return err
	}

	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	conv, err := rt.db.GetConversation(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("conversation %d does not exist", id)
	}
	if err != nil {
		return err
	}
	messages, err := rt.db.ListMessages(ctx, conv.ID)
	if err != nil {
		return err
	}

	export := utils.NewConversationExport(conv, messages, time.Now().UTC())
	if out == "" {
		return utils.WriteExport(cmd.OutOrStdout(), export, format)
	}
	if err := utils.ExportToFile(out, export, format); err != nil {
		return err
	}
	rt.logger.Info("Exported conversation %d (%d messages) to %s", conv.ID, len(messages), out)
	return nil
}
