package device

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/protocol"
	"go.uber.org/zap"
)

// FanSpeedCount is the number of discrete speeds the fixtures support.
const FanSpeedCount = 6

// Direction is the fan rotation direction.
type Direction uint8

// Fan directions, as carried in GEAR's first argument
const (
	Forward Direction = Direction(protocol.DirectionForward)
	Reverse Direction = Direction(protocol.DirectionReverse)
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// ParseDirection accepts "forward" or "reverse".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "forward", "fwd":
		return Forward, nil
	case "reverse", "rev":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("unknown direction %q (expected forward or reverse)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// FanState is the entity-level state of a fan.
type FanState struct {
	On          bool      `json:"on"`
	Speed       int       `json:"speed"`
	Direction   Direction `json:"direction"`
	Oscillating bool      `json:"oscillating"`
}

// FanCall is a partial state change. Nil fields are left unchanged.
type FanCall struct {
	State       *bool      `json:"state,omitempty"`
	Speed       *int       `json:"speed,omitempty"`
	Direction   *Direction `json:"direction,omitempty"`
	Oscillating *bool      `json:"oscillating,omitempty"`
}

// Fan drives a ceiling fan fixture.
type Fan struct {
	*Controller

	mu        sync.Mutex
	state     FanState
	lastSpeed int
}

// NewFan wraps ctrl. The fan starts off, forward.
func NewFan(ctrl *Controller) *Fan {
	return &Fan{Controller: ctrl, lastSpeed: 1}
}

// State returns the current entity state.
func (f *Fan) State() FanState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Control applies call and sends GEAR commands for what changed.
//
// Turning off sends GEAR(0). Turning on without a speed resends the last
// non-zero speed. Oscillation has no opcode and is only tracked.
func (f *Fan) Control(call FanCall) error {
	if call.Speed != nil && (*call.Speed < 0 || *call.Speed > FanSpeedCount) {
		return fmt.Errorf("%s: %w: %d (0-%d)", f.name, ErrInvalidSpeed, *call.Speed, FanSpeedCount)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	gear := func(arg uint8) {
		if err := f.Send(protocol.OpcodeGear, arg, 0); err != nil {
			logging.Warn("Gear command failed, continuing", zap.String("device", f.name), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if call.Oscillating != nil {
		f.state.Oscillating = *call.Oscillating
	}

	switch {
	case call.State != nil && !*call.State:
		if call.Speed != nil && *call.Speed > 0 {
			f.lastSpeed = *call.Speed
		}
		f.state.On = false
		f.state.Speed = 0
		gear(0)

	case call.Speed != nil:
		f.state.Speed = *call.Speed
		f.state.On = *call.Speed > 0
		if *call.Speed > 0 {
			f.lastSpeed = *call.Speed
		}
		gear(uint8(*call.Speed))

	case call.State != nil && *call.State:
		f.state.On = true
		f.state.Speed = f.lastSpeed
		gear(uint8(f.lastSpeed))
	}

	if call.Direction != nil {
		f.state.Direction = *call.Direction
		gear(uint8(*call.Direction))
	}

	return errors.Join(errs...)
}

// DumpConfig logs the fan's configuration.
func (f *Fan) DumpConfig() {
	logging.Info("LampSmart fan",
		zap.String("name", f.name),
		zap.String("host_id", f.HostID().String()),
		zap.Uint8("group_id", f.groupID),
		zap.Int("speed_count", FanSpeedCount),
		zap.Duration("tx_duration", f.txDuration))
}
