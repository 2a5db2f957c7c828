package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

// Opcode is the command byte at message offset 11.
type Opcode uint16

// Command opcodes
const (
	OpcodeTurnOn  Opcode = 0x10
	OpcodeTurnOff Opcode = 0x11
	OpcodeDim     Opcode = 0x21 // arg1 = cold channel, arg2 = warm channel
	OpcodePair    Opcode = 0x28 // args = host id bytes
	OpcodeGear    Opcode = 0x31 // arg1 = fan speed 0-6 or direction flag
	OpcodeUnpair  Opcode = 0x45 // args = host id bytes
)

// Fan direction flags carried in arg1 of OpcodeGear
const (
	DirectionForward byte = 0
	DirectionReverse byte = 1
)

// MaxGroupID is the largest group id that fits the 4-bit group field.
const MaxGroupID = 0x0F

// String returns a human-readable opcode name
func (o Opcode) String() string {
	switch o {
	case OpcodeTurnOn:
		return "turn_on"
	case OpcodeTurnOff:
		return "turn_off"
	case OpcodeDim:
		return "dim"
	case OpcodePair:
		return "pair"
	case OpcodeGear:
		return "gear"
	case OpcodeUnpair:
		return "unpair"
	default:
		return fmt.Sprintf("unknown(0x%02X)", uint16(o))
	}
}

// ParseOpcode accepts an opcode name or a numeric literal ("0x21", "33").
func ParseOpcode(s string) (Opcode, error) {
	for _, op := range KnownOpcodes() {
		if op.String() == s {
			return op, nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("opcode %q does not fit in one byte", s)
	}
	if err != nil {
		return 0, fmt.Errorf("unknown opcode %q", s)
	}
	return Opcode(v), nil
}

// KnownOpcodes lists every named opcode.
func KnownOpcodes() []Opcode {
	return []Opcode{OpcodeTurnOn, OpcodeTurnOff, OpcodeDim, OpcodePair, OpcodeGear, OpcodeUnpair}
}
