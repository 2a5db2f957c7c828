package device

import (
	"context"
	"fmt"
	"sort"

	"github.com/muurk/lampsmart/internal/config"
	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/metrics"
	"github.com/muurk/lampsmart/internal/protocol"
	"go.uber.org/zap"
)

// Info describes one device for listings.
type Info struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	HostID   string      `json:"host_id"`
	StableID uint32      `json:"stable_id"`
	GroupID  uint8       `json:"group_id"`
	Light    *LightState `json:"light,omitempty"`
	Fan      *FanState   `json:"fan,omitempty"`
}

// Operator is the set of actions a front end can perform on devices. Fleet
// implements it against a local radio; the bridge client implements it over
// HTTP.
type Operator interface {
	Devices(ctx context.Context) ([]Info, error)
	Pair(ctx context.Context, name string) error
	Unpair(ctx context.Context, name string) error
	TurnOn(ctx context.Context, name string) error
	TurnOff(ctx context.Context, name string) error
	SetLight(ctx context.Context, name string, call LightCall) error
	SetFan(ctx context.Context, name string, call FanCall) error
	Send(ctx context.Context, name string, op protocol.Opcode, arg1, arg2 uint8) error
}

// Fleet holds every configured device.
type Fleet struct {
	lights map[string]*Light
	fans   map[string]*Fan
	names  []string
}

var _ Operator = (*Fleet)(nil)

// FleetOption configures NewFleet.
type FleetOption func(*fleetOptions)

type fleetOptions struct {
	nonce protocol.NonceSource
}

// WithNonce fixes the nonce source for every device.
func WithNonce(n protocol.NonceSource) FleetOption {
	return func(o *fleetOptions) { o.nonce = n }
}

// StableIDFor resolves the stable id of a registry entry: the explicit
// stable_id, else the hash of the entity name.
func StableIDFor(key string, d *config.Device) uint32 {
	if d.StableID != nil {
		return *d.StableID
	}
	return protocol.StableIDFromObjectID(d.EntityName(key))
}

// NewFleet builds devices from reg. reg should already be validated.
func NewFleet(reg *config.Registry, sender Sender, opts ...FleetOption) (*Fleet, error) {
	var o fleetOptions
	for _, opt := range opts {
		opt(&o)
	}

	f := &Fleet{
		lights: make(map[string]*Light),
		fans:   make(map[string]*Fan),
	}

	for _, name := range reg.Names() {
		d := reg.Devices[name]
		if d == nil {
			continue
		}
		ctrl, err := NewController(ControllerConfig{
			Name:          name,
			StableID:      StableIDFor(name, d),
			GroupID:       d.GroupID,
			TxDuration:    d.EffectiveTxDuration(),
			MinBrightness: d.EffectiveMinBrightness(),
			Nonce:         o.nonce,
		}, sender)
		if err != nil {
			return nil, err
		}

		switch d.Kind {
		case config.KindLight:
			cold, warm := d.EffectiveMireds()
			f.lights[name] = NewLight(ctrl, LightTraits{
				ColdWhiteMireds:    cold,
				WarmWhiteMireds:    warm,
				ConstantBrightness: d.ConstantBrightness,
				Gamma:              d.EffectiveGammaCorrect(),
			})
		case config.KindFan:
			f.fans[name] = NewFan(ctrl)
		default:
			return nil, fmt.Errorf("%s: unknown kind %q", name, d.Kind)
		}
		f.names = append(f.names, name)
	}
	sort.Strings(f.names)

	for id, names := range reg.SharedStableIDs() {
		logging.Warn("Devices share a stable id and will answer the same commands",
			zap.String("stable_id", fmt.Sprintf("0x%08X", id)),
			zap.Strings("devices", names))
	}

	return f, nil
}

// Names returns device names in sorted order.
func (f *Fleet) Names() []string {
	return append([]string(nil), f.names...)
}

// Light returns the named light.
func (f *Fleet) Light(name string) (*Light, error) {
	if l, ok := f.lights[name]; ok {
		return l, nil
	}
	if _, ok := f.fans[name]; ok {
		return nil, fmt.Errorf("%s is a fan: %w", name, ErrWrongKind)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
}

// Fan returns the named fan.
func (f *Fleet) Fan(name string) (*Fan, error) {
	if fan, ok := f.fans[name]; ok {
		return fan, nil
	}
	if _, ok := f.lights[name]; ok {
		return nil, fmt.Errorf("%s is a light: %w", name, ErrWrongKind)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
}

// Controller returns the named device's controller.
func (f *Fleet) Controller(name string) (*Controller, error) {
	if l, ok := f.lights[name]; ok {
		return l.Controller, nil
	}
	if fan, ok := f.fans[name]; ok {
		return fan.Controller, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, name)
}

func (f *Fleet) kind(name string) string {
	if _, ok := f.fans[name]; ok {
		return config.KindFan
	}
	return config.KindLight
}

func (f *Fleet) count(name, action string) {
	metrics.CommandsTotal.WithLabelValues(f.kind(name), action).Inc()
}

// Info describes the named device.
func (f *Fleet) Info(name string) (Info, error) {
	ctrl, err := f.Controller(name)
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Name:     name,
		Kind:     f.kind(name),
		HostID:   ctrl.HostID().String(),
		StableID: ctrl.StableID(),
		GroupID:  ctrl.GroupID(),
	}
	if l, ok := f.lights[name]; ok {
		s := l.State()
		info.Light = &s
	}
	if fan, ok := f.fans[name]; ok {
		s := fan.State()
		info.Fan = &s
	}
	return info, nil
}

// Devices lists every device.
func (f *Fleet) Devices(ctx context.Context) ([]Info, error) {
	out := make([]Info, 0, len(f.names))
	for _, name := range f.names {
		info, err := f.Info(name)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Pair sends PAIR to the named device.
func (f *Fleet) Pair(ctx context.Context, name string) error {
	ctrl, err := f.Controller(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.count(name, "pair")
	return ctrl.Pair()
}

// Unpair sends UNPAIR to the named device.
func (f *Fleet) Unpair(ctx context.Context, name string) error {
	ctrl, err := f.Controller(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.count(name, "unpair")
	return ctrl.Unpair()
}

// TurnOn switches a light or fan on.
func (f *Fleet) TurnOn(ctx context.Context, name string) error {
	return f.setPower(ctx, name, true)
}

// TurnOff switches a light or fan off.
func (f *Fleet) TurnOff(ctx context.Context, name string) error {
	return f.setPower(ctx, name, false)
}

func (f *Fleet) setPower(ctx context.Context, name string, on bool) error {
	if _, err := f.Controller(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	action := "off"
	if on {
		action = "on"
	}
	f.count(name, action)

	if l, ok := f.lights[name]; ok {
		return l.Apply(LightCall{State: &on})
	}
	return f.fans[name].Control(FanCall{State: &on})
}

// SetLight applies call to the named light.
func (f *Fleet) SetLight(ctx context.Context, name string, call LightCall) error {
	l, err := f.Light(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.count(name, "light")
	return l.Apply(call)
}

// SetFan applies call to the named fan.
func (f *Fleet) SetFan(ctx context.Context, name string, call FanCall) error {
	fan, err := f.Fan(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.count(name, "fan")
	return fan.Control(call)
}

// Send transmits a raw opcode to the named device without touching entity
// state.
func (f *Fleet) Send(ctx context.Context, name string, op protocol.Opcode, arg1, arg2 uint8) error {
	ctrl, err := f.Controller(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.count(name, "raw")
	return ctrl.Send(op, arg1, arg2)
}

// DumpConfig logs every device's configuration.
func (f *Fleet) DumpConfig() {
	for _, name := range f.names {
		if l, ok := f.lights[name]; ok {
			l.DumpConfig()
		}
		if fan, ok := f.fans[name]; ok {
			fan.DumpConfig()
		}
	}
}
