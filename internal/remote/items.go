package remote

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/ui"
)

// deviceItem wraps a device.Info for use with bubbles/list
type deviceItem struct {
	info device.Info
}

// FilterValue filters by name, kind and host id
func (d deviceItem) FilterValue() string {
	return d.info.Name + " " + d.info.Kind + " " + d.info.HostID
}

// deviceDelegate renders one line per device
type deviceDelegate struct{}

func (d deviceDelegate) Height() int                               { return 1 }
func (d deviceDelegate) Spacing() int                              { return 0 }
func (d deviceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(deviceItem)
	if !ok {
		return
	}

	power, state := ui.DeviceState(it.info)
	name := fmt.Sprintf("%-20s", it.info.Name)
	if index == m.Index() {
		name = SelectedStyle.Render("→ " + name)
	} else {
		name = "  " + NameStyle.Render(name)
	}

	line := strings.Join([]string{
		name,
		SubtleStyle.Render(fmt.Sprintf("%-6s", it.info.Kind)),
		power,
		SubtleStyle.Render(state),
	}, "  ")
	fmt.Fprint(w, line)
}
