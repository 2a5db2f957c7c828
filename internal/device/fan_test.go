package device

import (
	"encoding/json"
	"testing"

	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/radio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFan(t *testing.T) (*radio.Recorder, *Fan) {
	t.Helper()
	rec, tx := newRig(t)
	ctrl := newTestController(t, tx, ControllerConfig{Name: "fan"})
	return rec, NewFan(ctrl)
}

func TestFanControl(t *testing.T) {
	tests := []struct {
		name  string
		calls []FanCall
		want  []sent
		state FanState
	}{
		{
			name:  "set speed",
			calls: []FanCall{{Speed: ptr(3)}},
			want:  []sent{{protocol.OpcodeGear, 3, 0}},
			state: FanState{On: true, Speed: 3},
		},
		{
			name:  "reverse direction",
			calls: []FanCall{{Direction: ptr(Reverse)}},
			want:  []sent{{protocol.OpcodeGear, 1, 0}},
			state: FanState{Direction: Reverse},
		},
		{
			name:  "speed and direction",
			calls: []FanCall{{Speed: ptr(6), Direction: ptr(Forward)}},
			want:  []sent{{protocol.OpcodeGear, 6, 0}, {protocol.OpcodeGear, 0, 0}},
			state: FanState{On: true, Speed: 6},
		},
		{
			name:  "oscillation is tracked only",
			calls: []FanCall{{Oscillating: ptr(true)}},
			want:  nil,
			state: FanState{Oscillating: true},
		},
		{
			name:  "off then on restores speed",
			calls: []FanCall{{Speed: ptr(4)}, {State: ptr(false)}, {State: ptr(true)}},
			want: []sent{
				{protocol.OpcodeGear, 4, 0},
				{protocol.OpcodeGear, 0, 0},
				{protocol.OpcodeGear, 4, 0},
			},
			state: FanState{On: true, Speed: 4},
		},
		{
			name:  "first turn on uses speed one",
			calls: []FanCall{{State: ptr(true)}},
			want:  []sent{{protocol.OpcodeGear, 1, 0}},
			state: FanState{On: true, Speed: 1},
		},
		{
			name:  "speed zero turns off",
			calls: []FanCall{{Speed: ptr(2)}, {Speed: ptr(0)}, {State: ptr(true)}},
			want: []sent{
				{protocol.OpcodeGear, 2, 0},
				{protocol.OpcodeGear, 0, 0},
				{protocol.OpcodeGear, 2, 0},
			},
			state: FanState{On: true, Speed: 2},
		},
		{
			name:  "off with speed remembers it",
			calls: []FanCall{{State: ptr(false), Speed: ptr(5)}, {State: ptr(true)}},
			want: []sent{
				{protocol.OpcodeGear, 0, 0},
				{protocol.OpcodeGear, 5, 0},
			},
			state: FanState{On: true, Speed: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, fan := newTestFan(t)
			for _, call := range tt.calls {
				require.NoError(t, fan.Control(call))
			}
			assert.Equal(t, tt.want, commands(t, rec))
			assert.Equal(t, tt.state, fan.State())
		})
	}
}

func TestFanInvalidSpeed(t *testing.T) {
	for _, speed := range []int{-1, 7, 100} {
		rec, fan := newTestFan(t)
		err := fan.Control(FanCall{Speed: ptr(speed), State: ptr(true)})
		assert.ErrorIs(t, err, ErrInvalidSpeed)
		assert.Empty(t, rec.Calls())
		assert.Equal(t, FanState{}, fan.State())
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"forward", Forward, false},
		{"FWD", Forward, false},
		{"reverse", Reverse, false},
		{"rev", Reverse, false},
		{"sideways", Forward, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFanCallJSON(t *testing.T) {
	var call FanCall
	require.NoError(t, json.Unmarshal([]byte(`{"speed":2,"direction":"reverse"}`), &call))
	require.NotNil(t, call.Speed)
	require.NotNil(t, call.Direction)
	assert.Equal(t, 2, *call.Speed)
	assert.Equal(t, Reverse, *call.Direction)
	assert.Nil(t, call.State)

	out, err := json.Marshal(FanState{On: true, Speed: 3, Direction: Reverse})
	require.NoError(t, err)
	assert.JSONEq(t, `{"on":true,"speed":3,"direction":"reverse","oscillating":false}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"direction":"up"}`), &call))
}
