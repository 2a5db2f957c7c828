package remote

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/lampsmart/internal/config"
	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/server"
	"github.com/muurk/lampsmart/internal/version"
)

// Step sizes for the +/- and w/c keys
const (
	BrightnessStep = 0.1
	MiredsStep     = 25.0
)

// Messages
type devicesMsg struct {
	devices []device.Info
	err     error
}

type actionDoneMsg struct {
	label string
	err   error
}

type eventMsg struct {
	event server.Event
	ok    bool
}

// action is one command against the operator.
type action struct {
	label string
	run   func(ctx context.Context, op device.Operator) error
}

// Model is the remote's bubbletea model.
type Model struct {
	ctx    context.Context
	op     device.Operator
	events <-chan server.Event
	source string

	list    list.Model
	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	keys    keyMap

	busy       string // Label of the command in flight
	status     string
	err        error
	lastEvent  *server.Event
	confirming string // Device awaiting a second unpair press

	Width  int
	Height int
}

// New creates the remote for op. source names where commands go ("hci0",
// a bridge URL) for the title bar. events may be nil.
func New(ctx context.Context, op device.Operator, source string, events <-chan server.Event) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	l := list.New(nil, deviceDelegate{}, 0, 0)
	l.Title = "LampSmart " + source
	l.Styles.Title = TitleStyle
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.KeyMap.Quit.SetEnabled(false)

	return Model{
		ctx:     ctx,
		op:      op,
		events:  events,
		source:  source,
		list:    l,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init loads the device list and starts listening for events
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadDevices()}
	if m.events != nil {
		cmds = append(cmds, waitForEvent(m.events))
	}
	return tea.Batch(cmds...)
}

func (m Model) loadDevices() tea.Cmd {
	ctx, op := m.ctx, m.op
	return func() tea.Msg {
		devices, err := op.Devices(ctx)
		return devicesMsg{devices: devices, err: err}
	}
}

func waitForEvent(ch <-chan server.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		return eventMsg{event: ev, ok: ok}
	}
}

func (m Model) run(a action) tea.Cmd {
	ctx, op := m.ctx, m.op
	return func() tea.Msg {
		return actionDoneMsg{label: a.label, err: a.run(ctx, op)}
	}
}

// Selected returns the highlighted device.
func (m Model) Selected() (device.Info, bool) {
	it, ok := m.list.SelectedItem().(deviceItem)
	if !ok {
		return device.Info{}, false
	}
	return it.info, true
}

// Busy reports whether a command is in flight.
func (m Model) Busy() bool { return m.busy != "" }

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(max(msg.Height-12, 3)) // Leave room for panel and footer
		return m, nil

	case devicesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.devices))
		for i, d := range msg.devices {
			items[i] = deviceItem{info: d}
		}
		return m, m.list.SetItems(items)

	case actionDoneMsg:
		m.busy = ""
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.label
		}
		return m, m.loadDevices()

	case eventMsg:
		if !msg.ok {
			m.events = nil
			return m, nil
		}
		ev := msg.event
		m.lastEvent = &ev
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		if !m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		var cmd tea.Cmd
		var handled bool
		if m, cmd, handled = m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKey maps a key to a command for the selected device. handled is
// false for keys the list should see.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	pending := m.confirming
	m.confirming = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil, true
	}

	if m.Busy() {
		// One command on the air at a time
		return m, nil, true
	}

	if key.Matches(msg, m.keys.Refresh) {
		m.err = nil
		return m, m.loadDevices(), true
	}

	info, ok := m.Selected()
	if !ok {
		return m, nil, false
	}

	if key.Matches(msg, m.keys.Unpair) && pending != info.Name {
		m.confirming = info.Name
		return m, nil, true
	}

	a, ok := planAction(info, msg, m.keys)
	if !ok {
		return m, nil, false
	}

	m.busy = a.label
	m.status = ""
	m.err = nil
	return m, tea.Batch(m.run(a), m.spinner.Tick), true
}

// planAction decides what a key does to d.
func planAction(d device.Info, msg tea.KeyMsg, keys keyMap) (action, bool) {
	name := d.Name

	switch {
	case key.Matches(msg, keys.Pair):
		return action{"pair " + name, func(ctx context.Context, op device.Operator) error {
			return op.Pair(ctx, name)
		}}, true

	case key.Matches(msg, keys.Unpair):
		return action{"unpair " + name, func(ctx context.Context, op device.Operator) error {
			return op.Unpair(ctx, name)
		}}, true

	case key.Matches(msg, keys.Toggle):
		if isOn(d) {
			return action{"turn off " + name, func(ctx context.Context, op device.Operator) error {
				return op.TurnOff(ctx, name)
			}}, true
		}
		return action{"turn on " + name, func(ctx context.Context, op device.Operator) error {
			return op.TurnOn(ctx, name)
		}}, true
	}

	switch d.Kind {
	case config.KindLight:
		if d.Light == nil {
			return action{}, false
		}
		return planLight(name, *d.Light, msg, keys)
	case config.KindFan:
		if d.Fan == nil {
			return action{}, false
		}
		return planFan(name, *d.Fan, msg, keys)
	}
	return action{}, false
}

func planLight(name string, s device.LightState, msg tea.KeyMsg, keys keyMap) (action, bool) {
	var call device.LightCall
	var label string

	switch {
	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		step := BrightnessStep
		if key.Matches(msg, keys.Down) {
			step = -step
		}
		b := stepBrightness(s.Brightness, step)
		on := b > 0
		call = device.LightCall{State: &on, Brightness: &b}
		label = fmt.Sprintf("%s brightness %.0f%%", name, b*100)

	case key.Matches(msg, keys.Warmer), key.Matches(msg, keys.Cooler):
		step := MiredsStep
		if key.Matches(msg, keys.Cooler) {
			step = -step
		}
		// Bounds are applied by the light itself
		ct := s.ColorTemperature + step
		call = device.LightCall{ColorTemperature: &ct}
		label = fmt.Sprintf("%s color temperature %.0f mireds", name, ct)

	default:
		return action{}, false
	}

	return action{label, func(ctx context.Context, op device.Operator) error {
		return op.SetLight(ctx, name, call)
	}}, true
}

func planFan(name string, s device.FanState, msg tea.KeyMsg, keys keyMap) (action, bool) {
	var call device.FanCall
	var label string

	switch {
	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		speed := s.Speed + 1
		if key.Matches(msg, keys.Down) {
			speed = s.Speed - 1
		}
		speed = min(max(speed, 0), device.FanSpeedCount)
		call = device.FanCall{Speed: &speed}
		label = fmt.Sprintf("%s speed %d", name, speed)

	case key.Matches(msg, keys.Reverse):
		dir := device.Reverse
		if s.Direction == device.Reverse {
			dir = device.Forward
		}
		call = device.FanCall{Direction: &dir}
		label = fmt.Sprintf("%s direction %s", name, dir)

	case key.Matches(msg, keys.Osc):
		osc := !s.Oscillating
		call = device.FanCall{Oscillating: &osc}
		label = fmt.Sprintf("%s oscillation %t", name, osc)

	default:
		return action{}, false
	}

	return action{label, func(ctx context.Context, op device.Operator) error {
		return op.SetFan(ctx, name, call)
	}}, true
}

// stepBrightness moves b by step on a 0.1 grid, clamped to [0, 1].
func stepBrightness(b, step float64) float64 {
	v := math.Round((b+step)*10) / 10
	return math.Min(math.Max(v, 0), 1)
}

func isOn(d device.Info) bool {
	switch {
	case d.Light != nil:
		return d.Light.On
	case d.Fan != nil:
		return d.Fan.On
	}
	return false
}

// View renders the remote
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.list.View())
	b.WriteString("\n\n")

	if info, ok := m.Selected(); ok {
		b.WriteString(m.renderPanel(info))
		b.WriteString("\n")
	}

	switch {
	case m.Busy():
		b.WriteString(StatusStyle.Render(m.spinner.View() + " " + m.busy))
	case m.confirming != "":
		b.WriteString(ConfirmStyle.Render(fmt.Sprintf("Press u again to unpair %s", m.confirming)))
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("✗ " + m.err.Error()))
	case m.status != "":
		b.WriteString(StatusStyle.Render("✓ " + m.status))
	}
	b.WriteString("\n")

	if m.lastEvent != nil {
		b.WriteString(EventStyle.Render(formatEvent(*m.lastEvent)))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render("  lampsmart " + version.Version))
	return b.String()
}

func (m Model) renderPanel(d device.Info) string {
	lines := []string{
		NameStyle.Bold(true).Render(d.Name),
		SubtleStyle.Render(fmt.Sprintf("%s  host %s  group %d", d.Kind, d.HostID, d.GroupID)),
		"",
	}
	switch {
	case d.Light != nil:
		lines = append(lines,
			"Brightness   "+m.bar.ViewAs(d.Light.Brightness),
			fmt.Sprintf("White        %.0f mireds", d.Light.ColorTemperature),
		)
	case d.Fan != nil:
		lines = append(lines,
			"Speed        "+m.bar.ViewAs(float64(d.Fan.Speed)/device.FanSpeedCount),
			fmt.Sprintf("Direction    %s", d.Fan.Direction),
		)
	}
	return PanelStyle.Render(strings.Join(lines, "\n"))
}

func formatEvent(ev server.Event) string {
	if ev.Opcode == "" {
		return "⇢ " + ev.Payload
	}
	s := fmt.Sprintf("⇢ %s host %s group %d args %02x %02x", ev.Opcode, ev.HostID, ev.GroupID, ev.Arg1, ev.Arg2)
	if ev.Error != "" {
		s += " (" + ev.Error + ")"
	}
	return s
}

// Run starts the remote full-screen and blocks until the user quits.
func Run(ctx context.Context, op device.Operator, source string, events <-chan server.Event) error {
	p := tea.NewProgram(New(ctx, op, source, events), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
