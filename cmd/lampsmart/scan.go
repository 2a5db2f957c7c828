package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/lampsmart/internal/discovery"
	"github.com/muurk/lampsmart/internal/ui"
)

var scanTimeout time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find lampsmart bridges on the local network",
	Long: `Browse mDNS for lampsmart bridges started with 'lampsmart serve' and list
them with their URL, version and device count.`,
	Example: `  lampsmart scan
  lampsmart scan --timeout 10s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := discovery.NewScanner()
		scanner.Timeout = scanTimeout
		bridges, err := scanner.ScanForBridges(cmd.Context())
		if err != nil {
			return withHints(err, []string{
				"mDNS needs multicast on UDP port 5353",
				"Check that no firewall blocks multicast on this interface",
			})
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintBridges(bridges)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for bridges")
}
