package device

import (
	"errors"
	"math"
	"sync"

	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/protocol"
	"go.uber.org/zap"
)

// LightTraits describe a cold/warm white fixture.
type LightTraits struct {
	ColdWhiteMireds    float64 // Color temperature of the cold channel alone
	WarmWhiteMireds    float64 // Color temperature of the warm channel alone
	ConstantBrightness bool    // Keep total output constant across temperatures
	Gamma              float64 // Exponent applied to levels; 0 is linear
}

// LightState is the entity-level state of a light.
type LightState struct {
	On               bool    `json:"on"`
	Brightness       float64 `json:"brightness"`        // 0..1
	ColorTemperature float64 `json:"color_temperature"` // Mireds
}

// LightCall is a partial state change. Nil fields are left unchanged.
type LightCall struct {
	State            *bool    `json:"state,omitempty"`
	Brightness       *float64 `json:"brightness,omitempty"`
	ColorTemperature *float64 `json:"color_temperature,omitempty"`
}

// Light drives a dual-channel white fixture.
type Light struct {
	*Controller

	mu     sync.Mutex
	traits LightTraits
	state  LightState
	isOff  bool
}

// NewLight wraps ctrl. The light starts off at full brightness with both
// channels balanced. The fixture's real state is unknown, so the first
// non-zero write always sends TURN_ON.
func NewLight(ctrl *Controller, traits LightTraits) *Light {
	return &Light{
		Controller: ctrl,
		traits:     traits,
		state: LightState{
			Brightness:       1,
			ColorTemperature: (traits.ColdWhiteMireds + traits.WarmWhiteMireds) / 2,
		},
		isOff: true,
	}
}

// Traits returns the light's traits.
func (l *Light) Traits() LightTraits { return l.traits }

// State returns the current entity state.
func (l *Light) State() LightState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Apply merges call into the state and writes the result to the fixture.
func (l *Light) Apply(call LightCall) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if call.State != nil {
		l.state.On = *call.State
	}
	if call.Brightness != nil {
		l.state.Brightness = clamp(*call.Brightness, 0, 1)
	}
	if call.ColorTemperature != nil {
		l.state.ColorTemperature = clamp(*call.ColorTemperature, l.traits.ColdWhiteMireds, l.traits.WarmWhiteMireds)
	}
	return l.writeState()
}

// ChannelValues returns the cold and warm channel levels (0..1) for the
// current state.
func (l *Light) ChannelValues() (cold, warm float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return channelValues(l.state, l.traits)
}

// channelValues splits brightness across the two channels by color
// temperature. Without constant brightness the dominant channel runs at full
// brightness and the other is scaled down.
func channelValues(s LightState, t LightTraits) (cold, warm float64) {
	if !s.On {
		return 0, 0
	}

	span := t.WarmWhiteMireds - t.ColdWhiteMireds
	wwFraction := 0.5
	if span > 0 {
		ct := clamp(s.ColorTemperature, t.ColdWhiteMireds, t.WarmWhiteMireds)
		wwFraction = (ct - t.ColdWhiteMireds) / span
	}
	cwFraction := 1 - wwFraction
	peak := math.Max(cwFraction, wwFraction)
	cwLevel := cwFraction / peak
	wwLevel := wwFraction / peak

	cwLevel = gammaCorrect(cwLevel, t.Gamma)
	wwLevel = gammaCorrect(wwLevel, t.Gamma)
	white := gammaCorrect(s.Brightness, t.Gamma)
	if !t.ConstantBrightness {
		return white * cwLevel, white * wwLevel
	}

	sum := cwLevel + wwLevel
	if sum <= 0 {
		sum = 1
	}
	return white * cwLevel / sum, white * wwLevel / sum
}

// gammaCorrect raises v to gamma. A gamma of 0 or less leaves v unchanged.
func gammaCorrect(v, gamma float64) float64 {
	if gamma <= 0 {
		return v
	}
	return math.Pow(v, gamma)
}

// writeState sends the commands for the current state. Radio failures do not
// stop the sequence.
func (l *Light) writeState() error {
	cold, warm := channelValues(l.state, l.traits)

	if cold == 0 && warm == 0 {
		l.isOff = true
		return l.Send(protocol.OpcodeTurnOff, 0, 0)
	}

	cw, ww := ClampChannels(cold, warm, l.minBrightness)
	logging.Debug("Writing light state",
		zap.String("device", l.name),
		zap.Uint8("cw", cw),
		zap.Uint8("ww", ww))

	var errs []error
	if l.isOff {
		if err := l.Send(protocol.OpcodeTurnOn, 0, 0); err != nil {
			logging.Warn("Turn on failed, continuing", zap.String("device", l.name), zap.Error(err))
			errs = append(errs, err)
		}
		l.isOff = false
	}
	if err := l.Send(protocol.OpcodeDim, cw, ww); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DumpConfig logs the light's configuration.
func (l *Light) DumpConfig() {
	logging.Info("LampSmart light",
		zap.String("name", l.name),
		zap.String("host_id", l.HostID().String()),
		zap.Uint8("group_id", l.groupID),
		zap.Float64("cold_white_mireds", l.traits.ColdWhiteMireds),
		zap.Float64("warm_white_mireds", l.traits.WarmWhiteMireds),
		zap.Bool("constant_brightness", l.traits.ConstantBrightness),
		zap.Float64("gamma_correct", l.traits.Gamma),
		zap.Uint8("min_brightness", l.minBrightness),
		zap.Duration("tx_duration", l.txDuration))
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return v
	}
	return math.Min(math.Max(v, lo), hi)
}
