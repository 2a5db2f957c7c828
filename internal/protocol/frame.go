package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Frame sizes
const (
	PacketSize   = 32 // Full advertising structure including length indicator
	PayloadSize  = 31 // Bytes handed to the radio (PacketSize minus length indicator)
	MessageSize  = 25 // Logical message carried inside the packet
	HeaderSize   = 6  // Template bytes preceding the message
	MessageStart = HeaderSize
	TrailerIndex = PacketSize - 1
)

// template is the fixed packet layout. The header and trailer go on the air
// verbatim; the body provides the preamble and default field values.
var template = [PacketSize]byte{
	0x1F, 0x02, 0x01, 0x01, 0x1B, 0x03, 0x71, 0x0F,
	0x55, 0xAA, 0x98, 0x43, 0xAF, 0x0B, 0x46, 0x46,
	0x46, 0x00, 0x00, 0x00, 0x00, 0x00, 0x83, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Template returns a copy of the 32-byte packet template.
func Template() [PacketSize]byte {
	return template
}

// Packet is a fully encoded advertising structure.
type Packet [PacketSize]byte

// Message is the 25-byte logical message before bit reversal and whitening.
type Message [MessageSize]byte

// Payload returns the 31 bytes that go on the air. The leading length
// indicator is a BLE structure artifact and is never transmitted.
func (p Packet) Payload() [PayloadSize]byte {
	var out [PayloadSize]byte
	copy(out[:], p[1:])
	return out
}

// Body returns the whitened message region of the packet.
func (p Packet) Body() Message {
	var m Message
	copy(m[:], p[MessageStart:MessageStart+MessageSize])
	return m
}

// String returns the packet as space-separated uppercase hex
func (p Packet) String() string {
	return strings.ToUpper(hexSpaced(p[:]))
}

// defaultMessage returns the template body as a Message.
func defaultMessage() Message {
	var m Message
	copy(m[:], template[MessageStart:MessageStart+MessageSize])
	return m
}

// Field describes one named region of the message.
type Field struct {
	Name   string
	Offset int
	Width  int
}

// End returns the offset one past the last byte of the field.
func (f Field) End() int { return f.Offset + f.Width }

// Get returns the field's bytes from m.
func (f Field) Get(m *Message) []byte {
	return m[f.Offset:f.End()]
}

// Put copies b into the field. b must be exactly Width bytes.
func (f Field) Put(m *Message, b ...byte) {
	if len(b) != f.Width {
		panic(fmt.Sprintf("protocol: field %s is %d bytes, got %d", f.Name, f.Width, len(b)))
	}
	copy(m[f.Offset:f.End()], b)
}

// Message fields (offsets into Message)
var (
	FieldPreamble = Field{Name: "preamble", Offset: 0, Width: 11}
	FieldOpcode   = Field{Name: "opcode", Offset: 11, Width: 1}
	FieldHost0    = Field{Name: "host0", Offset: 12, Width: 1}
	FieldHostTail = Field{Name: "host1|group", Offset: 13, Width: 1}
	FieldArg1     = Field{Name: "arg1", Offset: 14, Width: 1}
	FieldArg2     = Field{Name: "arg2", Offset: 15, Width: 1}
	FieldFixed    = Field{Name: "fixed", Offset: 16, Width: 1}
	FieldNonce    = Field{Name: "nonce", Offset: 17, Width: 1}
	FieldReserved = Field{Name: "reserved", Offset: 18, Width: 5}
	FieldCRC      = Field{Name: "crc", Offset: 23, Width: 2}
)

// CRC coverage: opcode through reserved, excluding the CRC itself
const (
	CRCOffset = 11
	CRCLength = 12
)

// Layout lists every message field in offset order.
var Layout = []Field{
	FieldPreamble,
	FieldOpcode,
	FieldHost0,
	FieldHostTail,
	FieldArg1,
	FieldArg2,
	FieldFixed,
	FieldNonce,
	FieldReserved,
	FieldCRC,
}

func init() {
	if err := validateLayout(Layout); err != nil {
		panic(err)
	}
}

// validateLayout checks that fields tile the message exactly and that the
// CRC range covers everything between the preamble and the CRC field.
func validateLayout(fields []Field) error {
	next := 0
	for _, f := range fields {
		if f.Width <= 0 {
			return fmt.Errorf("protocol: field %s has width %d", f.Name, f.Width)
		}
		if f.Offset != next {
			return fmt.Errorf("protocol: field %s at offset %d, expected %d", f.Name, f.Offset, next)
		}
		next = f.End()
	}
	if next != MessageSize {
		return fmt.Errorf("protocol: layout covers %d bytes, message is %d", next, MessageSize)
	}
	if CRCOffset != FieldOpcode.Offset || CRCOffset+CRCLength != FieldCRC.Offset {
		return fmt.Errorf("protocol: crc range [%d,%d) does not end at crc field %d",
			CRCOffset, CRCOffset+CRCLength, FieldCRC.Offset)
	}
	return nil
}

// hexSpaced formats b as "aa bb cc"
func hexSpaced(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(hex.EncodeToString([]byte{v}))
	}
	return sb.String()
}
