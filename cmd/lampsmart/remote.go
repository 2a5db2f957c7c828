package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/muurk/lampsmart/internal/remote"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Control devices from an interactive remote",
	Long: `Open a full-screen remote listing every device. Select a device and use
the keys shown at the bottom to switch, dim, change color temperature or
drive a fan. Press ? for all keys.

With --bridge the remote drives a bridge and shows its transmissions live.`,
	Example: `  lampsmart remote
  lampsmart remote --bridge auto`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			return remote.Run(ctx, s.op, s.source, s.Events(ctx))
		})
	},
}

func init() {
	rootCmd.AddCommand(remoteCmd)
}
