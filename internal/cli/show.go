package cli

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context())
	},
}

var sendTestCmd = &cobra.Command{
	Use:   "send-test",
	Short: "Send a test notification through the configured channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SendTest(cmd.Context())
	},
}
