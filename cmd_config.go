package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"think41-chat/utils"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config PATH",
	Short: "Write a configuration file with default values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.WriteDefaultConfig(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
		return nil
	},
}
