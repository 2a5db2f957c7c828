package config

import (
	"sort"
	"time"
)

// Device kinds
const (
	KindLight = "light"
	KindFan   = "fan"
)

// Defaults applied when a device entry leaves a field unset
const (
	DefaultTxDuration      = time.Second
	DefaultMinBrightness   = 7
	DefaultColdWhiteMireds = 153.0
	DefaultWarmWhiteMireds = 370.0
	DefaultGammaCorrect    = 2.8
	MaxGroupID             = 0x0F

	// MaxTxDuration keeps a light's TURN_ON + DIM pair well inside the
	// bridge client's request timeout.
	MaxTxDuration = 5 * time.Second
)

// Registry represents the entire configuration file.
type Registry struct {
	Version int                `yaml:"version"`
	Radio   *Radio             `yaml:"radio,omitempty"`
	Devices map[string]*Device `yaml:"devices,omitempty"` // Keyed by device name
}

// Radio selects and tunes the local Bluetooth controller.
type Radio struct {
	HCIDevice int    `yaml:"hci_device"`         // Controller index, hciN
	Interval  uint16 `yaml:"interval,omitempty"` // Advertising interval in 0.625 ms units
}

// Device describes one paired fixture.
type Device struct {
	Kind string `yaml:"kind"`

	// Name is the entity name the stable id is hashed from when StableID is
	// absent. Defaults to the registry key.
	Name     string  `yaml:"name,omitempty"`
	StableID *uint32 `yaml:"stable_id,omitempty"`
	GroupID  uint8   `yaml:"group_id"`

	TxDuration    time.Duration `yaml:"tx_duration,omitempty"`
	MinBrightness *uint8        `yaml:"min_brightness,omitempty"`

	// Light only
	ColdWhiteMireds    float64 `yaml:"cold_white_mireds,omitempty"`
	WarmWhiteMireds    float64 `yaml:"warm_white_mireds,omitempty"`
	ConstantBrightness bool    `yaml:"constant_brightness,omitempty"`

	// GammaCorrect is applied to brightness and channel levels before they
	// are sent. 0 sends levels linearly.
	GammaCorrect *float64 `yaml:"gamma_correct,omitempty"`
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Radio:   &Radio{},
		Devices: make(map[string]*Device),
	}
}

// GetDevice retrieves a device by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice returns the named device, creating it with kind if missing.
func (r *Registry) EnsureDevice(name, kind string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	device := &Device{Kind: kind}
	r.Devices[name] = device
	return device
}

// RemoveDevice deletes a device. Returns false if it was not present.
func (r *Registry) RemoveDevice(name string) bool {
	if _, ok := r.Devices[name]; !ok {
		return false
	}
	delete(r.Devices, name)
	return true
}

// Names returns device names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntityName returns the name the stable id is derived from.
func (d *Device) EntityName(key string) string {
	if d.Name != "" {
		return d.Name
	}
	return key
}

// EffectiveTxDuration returns TxDuration or the default.
func (d *Device) EffectiveTxDuration() time.Duration {
	if d.TxDuration > 0 {
		return d.TxDuration
	}
	return DefaultTxDuration
}

// EffectiveMinBrightness returns MinBrightness or the default.
func (d *Device) EffectiveMinBrightness() uint8 {
	if d.MinBrightness != nil {
		return *d.MinBrightness
	}
	return DefaultMinBrightness
}

// EffectiveMireds returns the cold and warm white temperatures, defaulted.
func (d *Device) EffectiveMireds() (cold, warm float64) {
	cold, warm = d.ColdWhiteMireds, d.WarmWhiteMireds
	if cold == 0 {
		cold = DefaultColdWhiteMireds
	}
	if warm == 0 {
		warm = DefaultWarmWhiteMireds
	}
	return cold, warm
}

// EffectiveGammaCorrect returns GammaCorrect or the default.
func (d *Device) EffectiveGammaCorrect() float64 {
	if d.GammaCorrect != nil {
		return *d.GammaCorrect
	}
	return DefaultGammaCorrect
}

// KindDescriptions maps device kinds to human-readable names.
var KindDescriptions = map[string]string{
	KindLight: "Cold/warm white light",
	KindFan:   "Ceiling fan",
}
