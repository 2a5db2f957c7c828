package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/ui"
)

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(unpairCmd)
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(lightCmd)
	rootCmd.AddCommand(fanCmd)
	rootCmd.AddCommand(sendCmd)
}

// withSession opens a session, runs fn and attaches troubleshooting tips to
// any failure.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return withHints(fn(ctx, s), s.tips)
}

// completeDevices offers configured device names.
func completeDevices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	reg, err := loadRegistry()
	if err != nil || len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return reg.Names(), cobra.ShellCompDirectiveNoFileComp
}

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "List configured devices",
	Long: `List every configured device with its host id, group and last known state.

State is what lampsmart last sent. The fixtures never report back, so a
device switched with its own remote shows stale state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			devices, err := s.op.Devices(ctx)
			if err != nil {
				return err
			}
			ui.NewPrinter(cmd.OutOrStdout()).PrintDevices(devices)
			return nil
		})
	},
}

var pairCmd = &cobra.Command{
	Use:   "pair DEVICE",
	Short: "Pair a fixture with this controller",
	Long: `Send PAIR to a fixture.

Fixtures only accept PAIR for a few seconds after power-on. Switch the
fixture off at the wall, switch it back on, then run this command. Most
fixtures blink to confirm.`,
	Example: `  lampsmart pair kitchen
  lampsmart pair kitchen --dry-run`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			if err := s.op.Pair(ctx, args[0]); err != nil {
				return err
			}
			printDone(cmd, s, "Sent PAIR", args[0])
			return nil
		})
	},
}

var unpairYes bool

var unpairCmd = &cobra.Command{
	Use:   "unpair DEVICE",
	Short: "Make a fixture forget this controller",
	Long: `Send UNPAIR to a fixture. Afterwards it ignores this controller until it
is paired again, which needs physical access to its power switch.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !unpairYes && !dryRun && !ui.ConfirmUnpair(cmd.InOrStdin(), cmd.OutOrStdout(), name) {
			return nil
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			if err := s.op.Unpair(ctx, name); err != nil {
				return err
			}
			printDone(cmd, s, "Sent UNPAIR", name)
			return nil
		})
	},
}

func init() {
	unpairCmd.Flags().BoolVarP(&unpairYes, "yes", "y", false, "Skip the confirmation prompt")
}

var onCmd = &cobra.Command{
	Use:               "on DEVICE",
	Short:             "Turn a light or fan on",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			if err := s.op.TurnOn(ctx, args[0]); err != nil {
				return err
			}
			printDone(cmd, s, "Turned on", args[0])
			return nil
		})
	},
}

var offCmd = &cobra.Command{
	Use:               "off DEVICE",
	Short:             "Turn a light or fan off",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			if err := s.op.TurnOff(ctx, args[0]); err != nil {
				return err
			}
			printDone(cmd, s, "Turned off", args[0])
			return nil
		})
	},
}

// Light command flags
var (
	lightState      string
	lightBrightness float64
	lightColorTemp  float64
)

var lightCmd = &cobra.Command{
	Use:   "light DEVICE",
	Short: "Set a light's power, brightness or color temperature",
	Long: `Set any combination of power, brightness and color temperature.

Brightness is 0-100 percent. Color temperature is in mireds, between the
device's cold_white_mireds and warm_white_mireds. Setting brightness alone
on a light that is off also turns it on.`,
	Example: `  lampsmart light kitchen --brightness 40
  lampsmart light kitchen --color-temp 300
  lampsmart light kitchen --state on --brightness 100 --color-temp 153`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		call, err := buildLightCall(cmd)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			if err := s.op.SetLight(ctx, args[0], call); err != nil {
				return err
			}
			printDone(cmd, s, "Updated light", args[0])
			return nil
		})
	},
}

func init() {
	addLightFlags(lightCmd)
}

func addLightFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&lightState, "state", "", "on or off")
	cmd.Flags().Float64Var(&lightBrightness, "brightness", 100, "Brightness in percent (0-100)")
	cmd.Flags().Float64Var(&lightColorTemp, "color-temp", 0, "Color temperature in mireds")
}

func buildLightCall(cmd *cobra.Command) (device.LightCall, error) {
	var call device.LightCall
	flags := cmd.Flags()

	if flags.Changed("state") {
		on, err := parseState(lightState)
		if err != nil {
			return call, err
		}
		call.State = &on
	}
	if flags.Changed("brightness") {
		if lightBrightness < 0 || lightBrightness > 100 {
			return call, fmt.Errorf("brightness must be 0-100, got %g", lightBrightness)
		}
		b := lightBrightness / 100
		call.Brightness = &b
		if call.State == nil {
			on := b > 0
			call.State = &on
		}
	}
	if flags.Changed("color-temp") {
		if lightColorTemp <= 0 {
			return call, fmt.Errorf("color temperature must be positive, got %g", lightColorTemp)
		}
		ct := lightColorTemp
		call.ColorTemperature = &ct
	}
	if call.State == nil && call.Brightness == nil && call.ColorTemperature == nil {
		return call, fmt.Errorf("nothing to set: use --state, --brightness or --color-temp")
	}
	return call, nil
}

// Fan command flags
var (
	fanState     string
	fanSpeed     int
	fanDirection string
	fanOscillate bool
)

var fanCmd = &cobra.Command{
	Use:   "fan DEVICE",
	Short: "Set a fan's power, speed or direction",
	Long: fmt.Sprintf(`Set any combination of power, speed and direction.

Speed is 0-%d; 0 turns the fan off. Turning a fan on without a speed
restores the last speed used. Oscillation is tracked but these fans have no
command for it.`, device.FanSpeedCount),
	Example: `  lampsmart fan ceiling_fan --speed 3
  lampsmart fan ceiling_fan --direction reverse
  lampsmart fan ceiling_fan --state off`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		call, err := buildFanCall(cmd)
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			if err := s.op.SetFan(ctx, args[0], call); err != nil {
				return err
			}
			printDone(cmd, s, "Updated fan", args[0])
			return nil
		})
	},
}

func init() {
	addFanFlags(fanCmd)
}

func addFanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&fanState, "state", "", "on or off")
	cmd.Flags().IntVar(&fanSpeed, "speed", 0, fmt.Sprintf("Speed 0-%d", device.FanSpeedCount))
	cmd.Flags().StringVar(&fanDirection, "direction", "", "forward or reverse")
	cmd.Flags().BoolVar(&fanOscillate, "oscillate", false, "Oscillation (tracked only)")
}

func buildFanCall(cmd *cobra.Command) (device.FanCall, error) {
	var call device.FanCall
	flags := cmd.Flags()

	if flags.Changed("state") {
		on, err := parseState(fanState)
		if err != nil {
			return call, err
		}
		call.State = &on
	}
	if flags.Changed("speed") {
		speed := fanSpeed
		call.Speed = &speed
	}
	if flags.Changed("direction") {
		dir, err := device.ParseDirection(fanDirection)
		if err != nil {
			return call, err
		}
		call.Direction = &dir
	}
	if flags.Changed("oscillate") {
		osc := fanOscillate
		call.Oscillating = &osc
	}
	if call == (device.FanCall{}) {
		return call, fmt.Errorf("nothing to set: use --state, --speed, --direction or --oscillate")
	}
	return call, nil
}

var sendCmd = &cobra.Command{
	Use:   "send DEVICE OPCODE [ARG1 [ARG2]]",
	Short: "Send a raw command",
	Long: `Send one raw command to a device without changing its tracked state.

OPCODE is a name (turn_on, turn_off, dim, pair, gear, unpair) or a number
such as 0x21. Arguments are bytes in decimal or 0x hex.`,
	Example: `  lampsmart send kitchen dim 0x80 0x20
  lampsmart send ceiling_fan 0x31 3`,
	Args:              cobra.RangeArgs(2, 4),
	ValidArgsFunction: completeDevices,
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := protocol.ParseOpcode(args[1])
		if err != nil {
			return err
		}
		var argv [2]uint8
		for i, s := range args[2:] {
			if argv[i], err = parseByte(s); err != nil {
				return fmt.Errorf("arg%d: %w", i+1, err)
			}
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			if err := s.op.Send(ctx, args[0], op, argv[0], argv[1]); err != nil {
				return err
			}
			printDone(cmd, s, "Sent "+op.String(), args[0])
			return nil
		})
	},
}

func parseState(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid state %q: want on or off", s)
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return uint8(v), nil
}

// printDone reports a successful command. Dry runs already printed the
// packets.
func printDone(cmd *cobra.Command, s *session, what, name string) {
	if s.source == "dry-run" {
		return
	}
	details := []ui.Detail{{Key: "Device", Value: name}, {Key: "Via", Value: s.source}}
	if s.fleet != nil {
		if info, err := s.fleet.Info(name); err == nil {
			details = append(details, ui.Detail{Key: "Host ID", Value: info.HostID})
			power, state := ui.DeviceState(info)
			details = append(details, ui.Detail{Key: "State", Value: strings.TrimSpace(power + "  " + state)})
		}
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess(what, details)
}
