package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/ui"
)

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(hostIDCmd)
}

// Encode command flags
var (
	encodeHostID   string
	encodeStableID string
	encodeName     string
	encodeGroup    uint8
	encodeArg1     string
	encodeArg2     string
	encodeNonce    int
)

var encodeCmd = &cobra.Command{
	Use:   "encode OPCODE",
	Short: "Encode a command packet without transmitting it",
	Long: `Encode one command and print the packet and the 31-byte radio payload.

The host id comes from --host-id, from --stable-id, or from an entity --name
(hashed the same way as configured devices). With none of them the fallback
identity is used.`,
	Example: `  lampsmart encode pair --name "Kitchen Light"
  lampsmart encode dim --host-id 8c:df --arg1 0xff --arg2 0 --nonce 0
  lampsmart encode 0x31 --stable-id 0xCAFEBABE --arg1 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkt, err := encodePacket(cmd, args[0])
		if err != nil {
			return err
		}
		payload := pkt.Payload()

		p := ui.NewPrinter(cmd.OutOrStdout())
		if !ui.IsTerminal() {
			p.Println(strings.ToUpper(fmt.Sprintf("%x", payload[:])))
			return nil
		}
		d, err := protocol.ParsePacket(pkt[:])
		p.PrintPacket(pkt[:], d, err)
		p.Println(ui.OffStyle.Render("  Payload:"))
		p.Println("  " + ui.HexStyle.Render(strings.ToUpper(fmt.Sprintf("% x", payload[:]))))
		return nil
	},
}

func init() {
	addEncodeFlags(encodeCmd)
}

func addEncodeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&encodeHostID, "host-id", "", "Host id as xx:xx")
	f.StringVar(&encodeStableID, "stable-id", "", "32-bit stable id to derive the host id from")
	f.StringVar(&encodeName, "name", "", "Entity name to derive the host id from")
	f.Uint8Var(&encodeGroup, "group", 0, "Group id (0-15)")
	f.StringVar(&encodeArg1, "arg1", "0", "First argument byte")
	f.StringVar(&encodeArg2, "arg2", "0", "Second argument byte")
	f.IntVar(&encodeNonce, "nonce", 0, "Fixed nonce (random when unset)")
	cmd.MarkFlagsMutuallyExclusive("host-id", "stable-id", "name")
}

// encodePacket builds the packet described by the encode flags.
func encodePacket(cmd *cobra.Command, opcode string) (protocol.Packet, error) {
	op, err := protocol.ParseOpcode(opcode)
	if err != nil {
		return protocol.Packet{}, err
	}
	if encodeGroup > protocol.MaxGroupID {
		return protocol.Packet{}, fmt.Errorf("group must be 0-%d, got %d", protocol.MaxGroupID, encodeGroup)
	}
	host, err := encodeHost(cmd)
	if err != nil {
		return protocol.Packet{}, err
	}
	arg1, err := parseByte(encodeArg1)
	if err != nil {
		return protocol.Packet{}, fmt.Errorf("arg1: %w", err)
	}
	arg2, err := parseByte(encodeArg2)
	if err != nil {
		return protocol.Packet{}, fmt.Errorf("arg2: %w", err)
	}

	var b protocol.Builder
	if cmd.Flags().Changed("nonce") {
		if encodeNonce < 0 || encodeNonce > 0xFF {
			return protocol.Packet{}, fmt.Errorf("nonce must be 0-255, got %d", encodeNonce)
		}
		b.Nonce = protocol.FixedNonce(byte(encodeNonce))
	}
	return b.Build(protocol.NewCommand(op, host, encodeGroup, arg1, arg2)), nil
}

func encodeHost(cmd *cobra.Command) (protocol.HostID, error) {
	switch {
	case encodeHostID != "":
		return parseHostID(encodeHostID)
	case encodeStableID != "":
		id, err := strconv.ParseUint(encodeStableID, 0, 32)
		if err != nil {
			return protocol.HostID{}, fmt.Errorf("invalid stable id %q", encodeStableID)
		}
		return protocol.DeriveHostID(uint32(id)), nil
	default:
		return protocol.DeriveHostID(protocol.StableIDFromObjectID(encodeName)), nil
	}
}

// parseHostID accepts "8c:df" or "8cdf".
func parseHostID(s string) (protocol.HostID, error) {
	raw, err := protocol.DecodeHex(s)
	if err != nil || len(raw) != 2 {
		return protocol.HostID{}, fmt.Errorf("invalid host id %q: want two hex bytes such as 8c:df", s)
	}
	return protocol.HostID{raw[0], raw[1]}, nil
}

var decodeCmd = &cobra.Command{
	Use:   "decode HEX...",
	Short: "Decode a captured packet",
	Long: `Decode a 32-byte packet or a 31-byte radio payload.

Hex may contain spaces, colons and 0x prefixes; all arguments are joined, so
a capture can be pasted unquoted. Packets with a bad CRC are still shown.`,
	Example: `  lampsmart decode 1f02010...
  lampsmart decode 02 01 01 1b 03 ...`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := protocol.DecodeHex(strings.Join(args, ""))
		if err != nil {
			return err
		}
		d, err := protocol.ParsePacket(raw)
		ui.NewPrinter(cmd.OutOrStdout()).PrintPacket(raw, d, err)
		if d == nil {
			return err
		}
		return nil
	},
}

var hostIDCmd = &cobra.Command{
	Use:   "hostid [NAME]",
	Short: "Show the host id derived from an entity name",
	Long: `Show the stable id and host id for an entity name. With no name, list
the identities of every configured device and flag shared host ids.`,
	Example: `  lampsmart hostid "Kitchen Light"
  lampsmart hostid`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(cmd.OutOrStdout())
		if len(args) == 1 {
			id := protocol.StableIDFromObjectID(args[0])
			p.PrintSuccess(args[0], []ui.Detail{
				{Key: "Object ID", Value: protocol.ObjectID(args[0])},
				{Key: "Stable ID", Value: fmt.Sprintf("0x%08X", id)},
				{Key: "Host ID", Value: protocol.DeriveHostID(id).String()},
			})
			return nil
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		seen := make(map[protocol.HostID][]string)
		var details []ui.Detail
		for _, name := range reg.Names() {
			id := device.StableIDFor(name, reg.Devices[name])
			host := protocol.DeriveHostID(id)
			seen[host] = append(seen[host], name)
			details = append(details, ui.Detail{
				Key:   name,
				Value: fmt.Sprintf("%s  (stable id 0x%08X)", host, id),
			})
		}
		p.PrintSuccess("Configured identities", details)

		for _, name := range reg.Names() {
			host := protocol.DeriveHostID(device.StableIDFor(name, reg.Devices[name]))
			names := seen[host]
			if len(names) > 1 && names[0] == name {
				p.PrintWarning("Shared host id "+host.String(), []ui.Detail{
					{Key: "Devices", Value: strings.Join(names, ", ")},
				})
			}
		}
		return nil
	},
}
