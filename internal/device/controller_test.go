package device

import (
	"errors"
	"testing"
	"time"

	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/radio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerSend(t *testing.T) {
	rec, tx := newRig(t)
	ctrl := newTestController(t, tx, ControllerConfig{
		StableID:   0x12345678,
		GroupID:    3,
		TxDuration: 500 * time.Millisecond,
	})

	require.NoError(t, ctrl.Send(protocol.OpcodeDim, 128, 0))

	pkts := decodeAll(t, rec)
	require.Len(t, pkts, 1)
	d := pkts[0]
	assert.Equal(t, protocol.OpcodeDim, d.Opcode)
	assert.Equal(t, uint8(128), d.Arg1)
	assert.Equal(t, uint8(0), d.Arg2)
	assert.Equal(t, uint8(3), d.GroupID)

	host := protocol.DeriveHostID(0x12345678)
	assert.Equal(t, host[0], d.HostID[0])
	assert.Equal(t, host[1]&0xF0, d.HostID[1])
}

func TestControllerSendMatchesBuilder(t *testing.T) {
	rec, tx := newRig(t)
	ctrl := newTestController(t, tx, ControllerConfig{StableID: protocol.FallbackStableID})

	require.NoError(t, ctrl.Send(protocol.OpcodeTurnOn, 0, 0))

	want := protocol.Builder{Nonce: protocol.FixedNonce(0)}.Build(
		protocol.NewCommand(protocol.OpcodeTurnOn, protocol.HostID{0xA6, 0xBD}, 0, 0, 0))
	assert.Equal(t, []radio.Payload{want.Payload()}, rec.Payloads())
}

func TestControllerHold(t *testing.T) {
	rec := radio.NewRecorder()
	var holds []time.Duration
	tx := radio.NewTransmitter(rec, radio.WithSleep(func(d time.Duration) { holds = append(holds, d) }))
	ctrl := newTestController(t, tx, ControllerConfig{TxDuration: 1200 * time.Millisecond})

	require.NoError(t, ctrl.Send(protocol.OpcodeTurnOff, 0, 0))
	assert.Equal(t, []time.Duration{1200 * time.Millisecond}, holds)
}

func TestControllerPairUnpair(t *testing.T) {
	rec, tx := newRig(t)
	ctrl := newTestController(t, tx, ControllerConfig{StableID: protocol.FallbackStableID})

	require.NoError(t, ctrl.Pair())
	require.NoError(t, ctrl.Unpair())

	assert.Equal(t, []sent{
		{protocol.OpcodePair, 0xA6, 0xBD},
		{protocol.OpcodeUnpair, 0xA6, 0xBD},
	}, commands(t, rec))
}

func TestControllerSendError(t *testing.T) {
	rec, tx := newRig(t)
	boom := errors.New("no controller")
	rec.FailOn(radio.OpStart, boom)
	ctrl := newTestController(t, tx, ControllerConfig{Name: "porch"})

	err := ctrl.Send(protocol.OpcodeTurnOn, 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "porch: send turn_on")
}

func TestNewControllerRejectsGroup(t *testing.T) {
	_, err := NewController(ControllerConfig{Name: "x", GroupID: 16}, nil)
	assert.ErrorIs(t, err, ErrInvalidGroup)
}

func TestControllerHostIDStable(t *testing.T) {
	_, tx := newRig(t)
	ctrl := newTestController(t, tx, ControllerConfig{StableID: 0})
	assert.Equal(t, protocol.HostID{0x84, 0xC0}, ctrl.HostID())
	assert.Equal(t, ctrl.HostID(), ctrl.HostID())
}

func TestClampChannel(t *testing.T) {
	tests := []struct {
		name      string
		value     uint8
		min       uint8
		requested float64
		want      uint8
	}{
		{"zero stays zero", 0, 7, 0, 0},
		{"rounds to zero but requested", 0, 7, 0.001, 7},
		{"below minimum", 3, 7, 0.012, 7},
		{"at minimum", 7, 7, 0.03, 7},
		{"above minimum", 100, 7, 0.4, 100},
		{"minimum zero", 0, 0, 0.001, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampChannel(tt.value, tt.min, tt.requested))
		})
	}
}

func TestClampChannels(t *testing.T) {
	tests := []struct {
		name       string
		cold, warm float64
		min        uint8
		wantCW     uint8
		wantWW     uint8
	}{
		{"full", 1, 1, 7, 255, 255},
		{"half", 0.5, 0.5, 7, 127, 127},
		{"both tiny", 0.01, 0.01, 7, 7, 7},
		{"cold only tiny", 0.01, 0, 7, 7, 0},
		{"one channel above min", 0.1, 0.01, 7, 25, 2},
		{"out of range", 1.5, -0.2, 7, 255, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cw, ww := ClampChannels(tt.cold, tt.warm, tt.min)
			assert.Equal(t, tt.wantCW, cw, "cw")
			assert.Equal(t, tt.wantWW, ww, "ww")
		})
	}
}
