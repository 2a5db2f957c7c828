package device

import (
	"testing"
	"time"

	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/radio"
	"github.com/stretchr/testify/require"
)

// sent is the logical content of one transmitted packet.
type sent struct {
	Op   protocol.Opcode
	Arg1 uint8
	Arg2 uint8
}

func newRig(t *testing.T) (*radio.Recorder, *radio.Transmitter) {
	t.Helper()
	rec := radio.NewRecorder()
	tx := radio.NewTransmitter(rec, radio.WithSleep(func(time.Duration) {}))
	return rec, tx
}

// decodeAll parses every payload the recorder saw.
func decodeAll(t *testing.T, rec *radio.Recorder) []*protocol.DecodedPacket {
	t.Helper()
	var out []*protocol.DecodedPacket
	for _, p := range rec.Payloads() {
		d, err := protocol.ParsePacket(p[:])
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func commands(t *testing.T, rec *radio.Recorder) []sent {
	t.Helper()
	var out []sent
	for _, d := range decodeAll(t, rec) {
		out = append(out, sent{d.Opcode, d.Arg1, d.Arg2})
	}
	return out
}

func newTestController(t *testing.T, tx Sender, cfg ControllerConfig) *Controller {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "test"
	}
	if cfg.Nonce == nil {
		cfg.Nonce = protocol.FixedNonce(0)
	}
	ctrl, err := NewController(cfg, tx)
	require.NoError(t, err)
	return ctrl
}
