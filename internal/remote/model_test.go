package remote

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/lampsmart/internal/config"
	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOperator records calls and serves a fixed device list.
type fakeOperator struct {
	mu      sync.Mutex
	devices []device.Info
	calls   []string
	lights  []device.LightCall
	fans    []device.FanCall
	err     error
}

func (f *fakeOperator) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeOperator) Devices(ctx context.Context) ([]device.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]device.Info(nil), f.devices...), nil
}

func (f *fakeOperator) Pair(ctx context.Context, name string) error {
	return f.record("pair " + name)
}

func (f *fakeOperator) Unpair(ctx context.Context, name string) error {
	return f.record("unpair " + name)
}

func (f *fakeOperator) TurnOn(ctx context.Context, name string) error {
	return f.record("on " + name)
}

func (f *fakeOperator) TurnOff(ctx context.Context, name string) error {
	return f.record("off " + name)
}

func (f *fakeOperator) SetLight(ctx context.Context, name string, call device.LightCall) error {
	f.mu.Lock()
	f.lights = append(f.lights, call)
	f.mu.Unlock()
	return f.record("light " + name)
}

func (f *fakeOperator) SetFan(ctx context.Context, name string, call device.FanCall) error {
	f.mu.Lock()
	f.fans = append(f.fans, call)
	f.mu.Unlock()
	return f.record("fan " + name)
}

func (f *fakeOperator) Send(ctx context.Context, name string, op protocol.Opcode, arg1, arg2 uint8) error {
	return f.record("send " + name)
}

func lightInfo(on bool, brightness float64) device.Info {
	return device.Info{
		Name: "kitchen", Kind: config.KindLight, HostID: "8c:df",
		Light: &device.LightState{On: on, Brightness: brightness, ColorTemperature: 261.5},
	}
}

func fanInfo(speed int) device.Info {
	return device.Info{
		Name: "ceiling_fan", Kind: config.KindFan, HostID: "a6:bd",
		Fan: &device.FanState{On: speed > 0, Speed: speed},
	}
}

// drain runs cmd and everything it batches, returning the messages
// produced. Spinner ticks are dropped.
func drain(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("command did not finish")
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, drain(t, c)...)
		}
		return out
	case spinner.TickMsg, nil:
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func newModel(t *testing.T, op *fakeOperator) Model {
	t.Helper()
	m := New(context.Background(), op, "test", nil)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	for _, msg := range drain(t, m.Init()) {
		m = update(t, m, msg)
	}
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and runs the resulting command to completion.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	for _, msg := range drain(t, cmd) {
		next, follow := m.Update(msg)
		m = next.(Model)
		for _, msg := range drain(t, follow) {
			m = update(t, m, msg)
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLoadsDevices(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{fanInfo(0), lightInfo(false, 1)}}
	m := newModel(t, op)

	info, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "ceiling_fan", info.Name)
	assert.Contains(t, m.View(), "kitchen")
}

func TestToggle(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{lightInfo(false, 1)}}
	m := newModel(t, op)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"on kitchen"}, op.calls)
	assert.False(t, m.Busy())
	assert.Contains(t, m.View(), "turn on kitchen")

	op.devices = []device.Info{lightInfo(true, 1)}
	m = press(t, m, runes("r"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"on kitchen", "off kitchen"}, op.calls)
}

func TestBrightnessSteps(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{lightInfo(true, 0.5)}}
	m := newModel(t, op)

	press(t, m, runes("-"))
	require.Len(t, op.lights, 1)
	require.NotNil(t, op.lights[0].Brightness)
	assert.InDelta(t, 0.4, *op.lights[0].Brightness, 1e-9)
	assert.True(t, *op.lights[0].State)
}

func TestDimToZeroTurnsOff(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{lightInfo(true, 0.1)}}
	m := newModel(t, op)

	press(t, m, runes("-"))
	require.Len(t, op.lights, 1)
	assert.Equal(t, 0.0, *op.lights[0].Brightness)
	assert.False(t, *op.lights[0].State)
}

func TestColorTemperature(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{lightInfo(true, 1)}}
	m := newModel(t, op)

	press(t, m, runes("w"))
	require.Len(t, op.lights, 1)
	assert.InDelta(t, 286.5, *op.lights[0].ColorTemperature, 1e-9)
	assert.Nil(t, op.lights[0].State)
}

func TestFanKeys(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{fanInfo(6)}}
	m := newModel(t, op)

	m = press(t, m, runes("+"))
	m = press(t, m, runes("d"))
	press(t, m, runes("o"))

	require.Len(t, op.fans, 3)
	assert.Equal(t, device.FanSpeedCount, *op.fans[0].Speed)
	assert.Equal(t, device.Reverse, *op.fans[1].Direction)
	assert.True(t, *op.fans[2].Oscillating)
}

func TestUnpairNeedsTwoPresses(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{lightInfo(false, 1)}}
	m := newModel(t, op)

	m = press(t, m, runes("u"))
	assert.Empty(t, op.calls)
	assert.Contains(t, m.View(), "Press u again")

	m = press(t, m, runes("x"))
	m = press(t, m, runes("u"))
	assert.Empty(t, op.calls, "another key cancels the confirmation")

	press(t, m, runes("u"))
	assert.Equal(t, []string{"unpair kitchen"}, op.calls)
}

func TestPair(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{fanInfo(0)}}
	m := newModel(t, op)

	press(t, m, runes("p"))
	assert.Equal(t, []string{"pair ceiling_fan"}, op.calls)
}

func TestErrorIsShown(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{lightInfo(false, 1)}, err: errors.New("radio unplugged")}
	m := newModel(t, op)

	m = press(t, m, runes("p"))
	assert.Contains(t, m.View(), "radio unplugged")
}

func TestBusyIgnoresKeys(t *testing.T) {
	op := &fakeOperator{devices: []device.Info{lightInfo(false, 1)}}
	m := newModel(t, op)

	next, _ := m.Update(runes("p"))
	m = next.(Model)
	require.True(t, m.Busy())

	next, cmd := m.Update(runes("p"))
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.True(t, m.Busy())
}

func TestQuit(t *testing.T) {
	m := newModel(t, &fakeOperator{})
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestEventsAreShown(t *testing.T) {
	events := make(chan server.Event, 1)
	events <- server.Event{Opcode: "dim", HostID: "8c:df", GroupID: 1, Arg1: 0x40, Arg2: 0x80}

	op := &fakeOperator{devices: []device.Info{lightInfo(false, 1)}}
	m := New(context.Background(), op, "test", events)
	for _, msg := range drain(t, m.Init()) {
		m = update(t, m, msg)
	}

	assert.Contains(t, m.View(), "dim host 8c:df group 1 args 40 80")

	close(events)
}

func TestStepBrightness(t *testing.T) {
	tests := []struct {
		b, step, want float64
	}{
		{0.5, 0.1, 0.6},
		{0.95, 0.1, 1},
		{1, 0.1, 1},
		{0.05, -0.1, 0},
		{0.33, -0.1, 0.2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, stepBrightness(tt.b, tt.step), 1e-9, "stepBrightness(%v, %v)", tt.b, tt.step)
	}
}

func TestFormatEvent(t *testing.T) {
	assert.Equal(t, "⇢ 1f02", formatEvent(server.Event{Payload: "1f02"}))
	s := formatEvent(server.Event{Opcode: "gear", HostID: "a6:bd", Arg1: 3, Error: "start: busy"})
	assert.True(t, strings.HasPrefix(s, "⇢ gear host a6:bd"))
	assert.Contains(t, s, "(start: busy)")
}
