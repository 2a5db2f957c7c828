package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/metrics"
	"github.com/muurk/lampsmart/internal/protocol"
	"github.com/muurk/lampsmart/internal/radio"
	"go.uber.org/zap"
)

// Errors returned by device operations
var (
	ErrUnknownDevice = errors.New("unknown device")
	ErrWrongKind     = errors.New("operation not supported by device kind")
	ErrInvalidSpeed  = errors.New("fan speed out of range")
	ErrInvalidGroup  = errors.New("group id out of range")
)

// Sender advertises a payload for a fixed duration. *radio.Transmitter
// implements it.
type Sender interface {
	Send(payload radio.Payload, hold time.Duration) error
}

// ControllerConfig holds one fixture's addressing and timing.
type ControllerConfig struct {
	Name          string
	StableID      uint32
	GroupID       uint8
	TxDuration    time.Duration
	MinBrightness uint8
	Nonce         protocol.NonceSource // nil means random
}

// Controller sends commands to one fixture.
type Controller struct {
	name          string
	stableID      uint32
	groupID       uint8
	txDuration    time.Duration
	minBrightness uint8

	builder protocol.Builder
	sender  Sender
}

// NewController validates cfg and binds it to sender.
func NewController(cfg ControllerConfig, sender Sender) (*Controller, error) {
	if cfg.GroupID > protocol.MaxGroupID {
		return nil, fmt.Errorf("%s: %w: %d", cfg.Name, ErrInvalidGroup, cfg.GroupID)
	}
	return &Controller{
		name:          cfg.Name,
		stableID:      cfg.StableID,
		groupID:       cfg.GroupID,
		txDuration:    cfg.TxDuration,
		minBrightness: cfg.MinBrightness,
		builder:       protocol.Builder{Nonce: cfg.Nonce},
		sender:        sender,
	}, nil
}

// Name returns the device name.
func (c *Controller) Name() string { return c.name }

// StableID returns the identifier the host id is derived from.
func (c *Controller) StableID() uint32 { return c.stableID }

// GroupID returns the 4-bit group.
func (c *Controller) GroupID() uint8 { return c.groupID }

// TxDuration returns how long each command is advertised.
func (c *Controller) TxDuration() time.Duration { return c.txDuration }

// MinBrightness returns the channel floor for non-zero output.
func (c *Controller) MinBrightness() uint8 { return c.minBrightness }

// HostID derives the host id. It is recomputed on every call.
func (c *Controller) HostID() protocol.HostID {
	return protocol.DeriveHostID(c.stableID)
}

// Send builds op for this fixture and advertises it for the transmission
// duration. It blocks until the radio is released.
func (c *Controller) Send(op protocol.Opcode, arg1, arg2 uint8) error {
	cmd := protocol.NewCommand(op, c.HostID(), c.groupID, arg1, arg2)
	pkt := c.builder.Build(cmd)

	metrics.PacketsBuiltTotal.WithLabelValues(op.String()).Inc()
	logging.LogPacket(c.name, op.String(), pkt[:])

	if err := c.sender.Send(pkt.Payload(), c.txDuration); err != nil {
		return fmt.Errorf("%s: send %s: %w", c.name, op, err)
	}
	return nil
}

// Pair sends PAIR with the host id as arguments. The fixture must be in
// pairing mode, usually within a few seconds of power-on.
func (c *Controller) Pair() error {
	host := c.HostID()
	logging.Info("Pairing", zap.String("device", c.name), zap.String("host_id", host.String()))
	return c.Send(protocol.OpcodePair, host[0], host[1])
}

// Unpair sends UNPAIR with the host id as arguments.
func (c *Controller) Unpair() error {
	host := c.HostID()
	logging.Info("Unpairing", zap.String("device", c.name), zap.String("host_id", host.String()))
	return c.Send(protocol.OpcodeUnpair, host[0], host[1])
}

// channelEpsilon separates "requested but rounds to zero" from "off".
const channelEpsilon = 0.000001

// ClampChannel raises value to min when the requested fraction is non-zero.
func ClampChannel(value, min uint8, requested float64) uint8 {
	if value < min && requested > channelEpsilon {
		return min
	}
	return value
}

// ClampChannels converts cold/warm fractions to channel bytes. When both
// bytes fall below min, every non-zero channel is raised to min. If either
// channel reaches min the other is left as is.
func ClampChannels(cold, warm float64, min uint8) (cw, ww uint8) {
	cw = channelByte(cold)
	ww = channelByte(warm)
	if cw < min && ww < min {
		cw = ClampChannel(cw, min, cold)
		ww = ClampChannel(ww, min, warm)
	}
	return cw, ww
}

func channelByte(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return 0xFF
	}
	return uint8(0xFF * f)
}
