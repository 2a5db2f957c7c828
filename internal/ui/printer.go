package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/discovery"
	"github.com/muurk/lampsmart/internal/protocol"
)

// Printer writes UI components to an output stream.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Width returns the width used for boxes
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width.
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params []Detail) {
	p.Println(NewHeader(title, command, params).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details []Detail) {
	p.Println(NewSuccessResult(title, details).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details []Detail) {
	p.Println(NewWarningResult(title, details).SetWidth(p.width).Render())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle.Padding(0, 1)
			}
			return TableCellStyle.Padding(0, 1)
		})
}

// PrintDevices prints one row per device.
func (p *Printer) PrintDevices(devices []device.Info) {
	if len(devices) == 0 {
		p.Println(OffStyle.Render("  No devices configured. Add some with: lampsmart config init"))
		return
	}

	t := newTable("NAME", "KIND", "HOST ID", "GROUP", "POWER", "STATE")
	for _, d := range devices {
		power, state := DeviceState(d)
		t.Row(d.Name, d.Kind, d.HostID, strconv.Itoa(int(d.GroupID)), power, state)
	}
	p.Println(t.Render())
}

// DeviceState summarises a device's power and level for tables.
func DeviceState(d device.Info) (power, state string) {
	switch {
	case d.Light != nil:
		return PowerMarker(d.Light.On), fmt.Sprintf("%3.0f%%  %.0f mireds", d.Light.Brightness*100, d.Light.ColorTemperature)
	case d.Fan != nil:
		s := fmt.Sprintf("speed %d/%d  %s", d.Fan.Speed, device.FanSpeedCount, d.Fan.Direction)
		if d.Fan.Oscillating {
			s += "  oscillating"
		}
		return PowerMarker(d.Fan.On), s
	}
	return "", ""
}

// PrintPacket prints a decoded packet field by field, followed by the raw
// bytes. err is the decode error, if any; fields are still shown when the
// packet decoded far enough.
func (p *Printer) PrintPacket(raw []byte, d *protocol.DecodedPacket, err error) {
	if d != nil {
		t := newTable("FIELD", "VALUE")
		t.Row("opcode", fmt.Sprintf("%s (0x%02X)", d.Opcode, uint16(d.Opcode)))
		t.Row("host id", fmt.Sprintf("%02x:%x_", d.HostID[0], d.HostID[1]>>4))
		t.Row("group", strconv.Itoa(int(d.GroupID)))
		t.Row("arg1", fmt.Sprintf("%d (0x%02X)", d.Arg1, d.Arg1))
		t.Row("arg2", fmt.Sprintf("%d (0x%02X)", d.Arg2, d.Arg2))
		t.Row("nonce", fmt.Sprintf("0x%02X", d.Nonce))
		t.Row("crc", fmt.Sprintf("0x%04X", d.CRC))
		p.Println(t.Render())
		p.Println(OffStyle.Render("  Message:"))
		p.Println(strings.TrimRight(protocol.AnnotateMessage(d.Message), "\n"))
	}
	if len(raw) > 0 {
		p.Println(OffStyle.Render("  Packet:"))
		p.Println("  " + HexStyle.Render(strings.ToUpper(fmt.Sprintf("% x", raw))))
	}
	if err != nil {
		p.Println(ErrorMessageStyle.Render("  " + FailureMarker + " " + err.Error()))
	}
}

// PrintBridges prints bridges found by an mDNS scan.
func (p *Printer) PrintBridges(bridges []*discovery.Bridge) {
	if len(bridges) == 0 {
		p.Println(OffStyle.Render("  No lampsmart bridges found."))
		return
	}

	t := newTable("INSTANCE", "URL", "VERSION", "DEVICES")
	for _, b := range bridges {
		count := "?"
		if n := b.DeviceCount(); n >= 0 {
			count = strconv.Itoa(n)
		}
		t.Row(b.Instance, b.BaseURL(), b.Version(), count)
	}
	p.Println(t.Render())
}
