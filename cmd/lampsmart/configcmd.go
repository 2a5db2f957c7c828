package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/lampsmart/internal/config"
	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the device registry",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefaultConfig()
		if errors.Is(err, config.ErrConfigExists) {
			return withHints(err, []string{
				"Edit the existing file, or remove it first",
				"Use --config to write somewhere else",
			})
		}
		if err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Configuration created", []ui.Detail{
			{Key: "Path", Value: path},
		})
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration as loaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		data, err := reg.Marshal(path)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		if err != nil {
			return err
		}

		if err := reg.Validate(); err != nil {
			ui.NewPrinter(cmd.ErrOrStderr()).PrintWarning("Configuration is invalid", []ui.Detail{
				{Key: "Error", Value: err.Error()},
			})
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// Add command flags
var (
	addKind  string
	addName  string
	addGroup uint8
)

var configAddCmd = &cobra.Command{
	Use:   "add KEY",
	Short: "Add a device to the registry",
	Long: `Add a light or fan. Its host id is derived from --name, or from KEY when
--name is not given, so pick the name before pairing.`,
	Example: `  lampsmart config add kitchen --kind light --name "Kitchen Light"
  lampsmart config add bedroom_fan --kind fan --group 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if reg.GetDevice(key) != nil {
			return fmt.Errorf("device %q already exists", key)
		}

		d := reg.EnsureDevice(key, addKind)
		d.Name = addName
		d.GroupID = addGroup
		if err := reg.Validate(); err != nil {
			reg.RemoveDevice(key)
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}

		id := device.StableIDFor(key, d)
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Device added", []ui.Detail{
			{Key: "Device", Value: key},
			{Key: "Kind", Value: d.Kind},
			{Key: "Host ID", Value: protocol.DeriveHostID(id).String()},
			{Key: "Next", Value: "power-cycle the fixture, then: lampsmart pair " + key},
		})
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:               "remove KEY",
	Short:             "Remove a device from the registry",
	Long:              `Remove a device. The fixture stays paired; run 'lampsmart unpair' first to make it forget this controller.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if !reg.RemoveDevice(args[0]) {
			return fmt.Errorf("%w: %s", device.ErrUnknownDevice, args[0])
		}
		if err := reg.Save(); err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Device removed", []ui.Detail{
			{Key: "Device", Value: args[0]},
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configRemoveCmd)

	configAddCmd.Flags().StringVar(&addKind, "kind", config.KindLight, "Device kind (light or fan)")
	configAddCmd.Flags().StringVar(&addName, "name", "", "Entity name the host id is derived from")
	configAddCmd.Flags().Uint8Var(&addGroup, "group", 0, "Group id (0-15)")
}
