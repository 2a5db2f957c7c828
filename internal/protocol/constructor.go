package protocol

import (
	"math/rand/v2"
)

// NonceSource supplies the per-packet random byte at message offset 17.
type NonceSource interface {
	Nonce() byte
}

// NonceFunc adapts a function to NonceSource.
type NonceFunc func() byte

// Nonce calls f.
func (f NonceFunc) Nonce() byte { return f() }

// RandomNonce draws a uniform byte from the runtime's random source.
var RandomNonce NonceSource = NonceFunc(func() byte { return byte(rand.UintN(256)) })

// FixedNonce always returns n. Useful for golden tests and encoding tools.
func FixedNonce(n byte) NonceSource {
	return NonceFunc(func() byte { return n })
}

// Builder encodes command packets. The zero value uses RandomNonce.
type Builder struct {
	Nonce NonceSource
}

// Command holds the logical fields of one packet.
type Command struct {
	Opcode   Opcode
	Control0 uint8 // Host id byte 0
	Control1 uint8 // Host id byte 1, only its high nibble is transmitted
	Arg1     uint8
	Arg2     uint8
	GroupID  uint8 // Only the low nibble is transmitted
}

// NewCommand fills in host id and group for op.
func NewCommand(op Opcode, host HostID, groupID, arg1, arg2 uint8) Command {
	return Command{
		Opcode:   op,
		Control0: host[0],
		Control1: host[1],
		Arg1:     arg1,
		Arg2:     arg2,
		GroupID:  groupID,
	}
}

// Message assembles the untransformed message for c with the given nonce,
// CRC included.
//
//	[11]     opcode (low byte)
//	[12]     control0
//	[13]     (control1 & 0xF0) | (group & 0x0F)
//	[14]     arg1
//	[15]     arg2
//	[17]     nonce
//	[23-24]  CRC16(message[11:23]) big-endian
func (c Command) Message(nonce byte) Message {
	m := defaultMessage()

	FieldOpcode.Put(&m, byte(c.Opcode))
	FieldHost0.Put(&m, c.Control0)
	FieldHostTail.Put(&m, (c.Control1&0xF0)|(c.GroupID&0x0F))
	FieldArg1.Put(&m, c.Arg1)
	FieldArg2.Put(&m, c.Arg2)
	FieldNonce.Put(&m, nonce)

	crc := CRC16(m[:], CRCLength, CRCOffset)
	FieldCRC.Put(&m, byte(crc>>8), byte(crc))

	return m
}

// Build encodes c into a complete packet.
func (b Builder) Build(c Command) Packet {
	src := b.Nonce
	if src == nil {
		src = RandomNonce
	}
	return EncodeMessage(c.Message(src.Nonce()))
}

// EncodeMessage applies bit reversal and whitening to m and wraps it with the
// template header and trailer.
func EncodeMessage(m Message) Packet {
	body := WhitenForPacket(ReverseBits(m))

	var p Packet
	copy(p[:MessageStart], template[:MessageStart])
	copy(p[MessageStart:], body[:])
	p[TrailerIndex] = template[TrailerIndex]
	return p
}

// BuildPacket encodes one command with a random nonce.
//
// control0 and control1 are the two host id bytes; only the high nibble of
// control1 survives, the low nibble carries groupID.
func BuildPacket(command Opcode, control0, control1, arg1, arg2, groupID uint8) Packet {
	return Builder{}.Build(Command{
		Opcode:   command,
		Control0: control0,
		Control1: control1,
		Arg1:     arg1,
		Arg2:     arg2,
		GroupID:  groupID,
	})
}
