package radio

import (
	"errors"
	"fmt"
)

// MaxAdvertisingDataLength is the legacy advertising data limit.
const MaxAdvertisingDataLength = 31

// Payload is one legacy advertising data block.
type Payload [MaxAdvertisingDataLength]byte

// Advertising PDU types (LE Set Advertising Parameters, Advertising_Type)
const (
	AdvInd        uint8 = 0x00 // Connectable undirected
	AdvDirectInd  uint8 = 0x01 // Connectable directed
	AdvScanInd    uint8 = 0x02 // Scannable undirected
	AdvNonConnInd uint8 = 0x03 // Non-connectable undirected
)

// Own address types
const (
	AddressPublic uint8 = 0x00
	AddressRandom uint8 = 0x01
)

// Channel map bits
const (
	Channel37   uint8 = 0x01
	Channel38   uint8 = 0x02
	Channel39   uint8 = 0x04
	ChannelsAll uint8 = Channel37 | Channel38 | Channel39
)

// Filter policies
const (
	FilterAllowAll uint8 = 0x00 // Scan and connect requests from any device
)

// Params are the advertising parameters applied before each send.
// Intervals are in 0.625 ms units.
type Params struct {
	IntervalMin    uint16
	IntervalMax    uint16
	Type           uint8
	OwnAddressType uint8
	PeerAddrType   uint8
	PeerAddr       [6]byte
	ChannelMap     uint8
	FilterPolicy   uint8
}

// DefaultParams returns the fixed parameters fixtures expect: 20 ms
// interval, non-connectable undirected, public address, all channels.
func DefaultParams() Params {
	return Params{
		IntervalMin:    0x20,
		IntervalMax:    0x20,
		Type:           AdvNonConnInd,
		OwnAddressType: AddressPublic,
		PeerAddrType:   AddressPublic,
		ChannelMap:     ChannelsAll,
		FilterPolicy:   FilterAllowAll,
	}
}

// Validate checks the parameters against the controller's accepted ranges.
func (p Params) Validate() error {
	if p.IntervalMin < 0x20 || p.IntervalMax > 0x4000 || p.IntervalMin > p.IntervalMax {
		return fmt.Errorf("advertising interval [0x%04x, 0x%04x] out of range", p.IntervalMin, p.IntervalMax)
	}
	if p.ChannelMap&ChannelsAll == 0 || p.ChannelMap&^ChannelsAll != 0 {
		return fmt.Errorf("invalid channel map 0x%02x", p.ChannelMap)
	}
	if p.Type > AdvNonConnInd {
		return fmt.Errorf("invalid advertising type 0x%02x", p.Type)
	}
	return nil
}

// Advertiser is a BLE controller capable of legacy advertising.
type Advertiser interface {
	// Configure loads parameters and payload. Advertising must be stopped.
	Configure(payload Payload, params Params) error
	// Start enables advertising.
	Start() error
	// Stop disables advertising.
	Stop() error
	// Close releases the controller.
	Close() error
}

// Radio operation names used in errors, logs and metrics
const (
	OpConfigure = "configure"
	OpStart     = "start"
	OpStop      = "stop"
)

// OpError reports a failed radio step.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("radio %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *OpError) Unwrap() error { return e.Err }

// ErrUnsupported is returned by OpenHCI on platforms without raw HCI sockets.
var ErrUnsupported = errors.New("raw HCI advertising is only supported on linux")

// ErrClosed is returned when using a closed advertiser.
var ErrClosed = errors.New("advertiser closed")
