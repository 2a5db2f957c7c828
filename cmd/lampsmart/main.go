// Lampsmart controls LampSmart Pro ceiling lights and fans over Bluetooth LE.
//
// The fixtures never connect to anything. They listen for scrambled
// advertisement packets, and lampsmart builds and broadcasts those packets
// from a local Bluetooth controller, or asks a lampsmart bridge elsewhere on
// the network to do it.
//
// Usage:
//
//	lampsmart [command] [flags]
//
// Devices are configured in $XDG_CONFIG_HOME/lampsmart/config.yaml; run
// 'lampsmart config init' to create an example. See 'lampsmart --help' for
// available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/lampsmart/internal/config"
	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/ui"
	"github.com/muurk/lampsmart/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		printFailure(err)
		os.Exit(1)
	}
}

// Persistent flags
var (
	configPath string
	logLevel   string
	bridgeURL  string
	hciIndex   int
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "lampsmart",
	Short: "LampSmart Pro BLE remote control",
	Long: `Control LampSmart Pro lights and fans by broadcasting BLE advertisements.

Commands run against the local Bluetooth controller (hci0 by default), or
against a lampsmart bridge when --bridge is given. Use --dry-run to print
packets without touching a radio.

Before a fixture responds it must be paired: power-cycle it and run
'lampsmart pair <device>' within a few seconds.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}
		config.SetPath(configPath)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config file (default: per-OS config dir)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	flags.StringVar(&bridgeURL, "bridge", os.Getenv("LAMPSMART_BRIDGE"), "Send commands through a lampsmart bridge at this URL")
	flags.IntVar(&hciIndex, "hci", -1, "Bluetooth controller index (default: radio.hci_device from config)")
	flags.BoolVar(&dryRun, "dry-run", false, "Print packets instead of transmitting")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lampsmart %s\n", version.Full())
	},
}

// hintError attaches troubleshooting tips to an error.
type hintError struct {
	err  error
	tips []string
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }

func withHints(err error, tips []string) error {
	if err == nil {
		return nil
	}
	return &hintError{err: err, tips: tips}
}

func printFailure(err error) {
	var tips []string
	var h *hintError
	if errors.As(err, &h) {
		tips = h.tips
	}
	if !ui.IsTerminal() {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	ui.NewPrinter(os.Stderr).PrintError("lampsmart", err, tips)
}
