package cli

import (
	"github.com/spf13/cobra"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Fetch the table, stage the snapshot, and emit the change decision",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Decide(cmd.Context())
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the staged snapshot and commit it after successful delivery",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Notify(cmd.Context())
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run one full detect-notify-persist cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Once(cmd.Context())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run full cycles on the configured interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Watch(cmd.Context())
	},
}
