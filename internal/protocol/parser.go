package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Decode errors
var (
	ErrFrameLength      = errors.New("invalid frame length")
	ErrTemplateMismatch = errors.New("header or trailer does not match template")
	ErrPreambleMismatch = errors.New("message preamble does not match template")
	ErrCRCMismatch      = errors.New("crc mismatch")
)

// DecodeError describes why a frame could not be decoded.
type DecodeError struct {
	Kind   error  // One of the Err* sentinels above
	Detail string // Human-readable context
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
}

// Unwrap returns the sentinel so callers can use errors.Is.
func (e *DecodeError) Unwrap() error { return e.Kind }

// DecodedPacket is a packet taken back apart into its logical fields.
type DecodedPacket struct {
	Opcode    Opcode
	HostID    HostID // Second byte carries only its high nibble
	GroupID   uint8
	Arg1      uint8
	Arg2      uint8
	Nonce     uint8
	CRC       uint16
	Message   Message // Plain message (after de-whitening and reversal)
	Malformed bool    // Set when CRC did not verify but decoding continued
}

func (d *DecodedPacket) String() string {
	return fmt.Sprintf("Packet{opcode=%s, host=%02x:%xx, group=%d, arg1=%d, arg2=%d, nonce=0x%02x, crc=0x%04x}",
		d.Opcode, d.HostID[0], d.HostID[1]>>4, d.GroupID, d.Arg1, d.Arg2, d.Nonce, d.CRC)
}

// Command returns the decoded fields as a Command. Control1's low nibble
// is lost in transmission and comes back as zero.
func (d *DecodedPacket) Command() Command {
	return Command{
		Opcode:   d.Opcode,
		Control0: d.HostID[0],
		Control1: d.HostID[1],
		Arg1:     d.Arg1,
		Arg2:     d.Arg2,
		GroupID:  d.GroupID,
	}
}

// ParsePacket decodes a 32-byte packet, or the 31-byte over-the-air payload
// with the length indicator already stripped.
func ParsePacket(data []byte) (*DecodedPacket, error) {
	var p Packet
	switch len(data) {
	case PacketSize:
		copy(p[:], data)
	case PayloadSize:
		p[0] = template[0]
		copy(p[1:], data)
	default:
		return nil, &DecodeError{
			Kind:   ErrFrameLength,
			Detail: fmt.Sprintf("got %d bytes, want %d or %d", len(data), PacketSize, PayloadSize),
		}
	}

	for i := 0; i < MessageStart; i++ {
		if p[i] != template[i] {
			return nil, &DecodeError{
				Kind:   ErrTemplateMismatch,
				Detail: fmt.Sprintf("byte %d is 0x%02x, want 0x%02x", i, p[i], template[i]),
			}
		}
	}
	if p[TrailerIndex] != template[TrailerIndex] {
		return nil, &DecodeError{
			Kind:   ErrTemplateMismatch,
			Detail: fmt.Sprintf("trailer is 0x%02x, want 0x%02x", p[TrailerIndex], template[TrailerIndex]),
		}
	}

	m := DecodeBody(p.Body())
	return ParseMessage(m)
}

// DecodeBody reverses the packet transforms: de-whiten, then undo the bit
// reversal.
func DecodeBody(body Message) Message {
	return ReverseBits(WhitenForPacket(body))
}

// ParseMessage extracts fields from a plain message and verifies its CRC
// and preamble.
func ParseMessage(m Message) (*DecodedPacket, error) {
	def := defaultMessage()
	if string(FieldPreamble.Get(&m)) != string(FieldPreamble.Get(&def)) {
		return nil, &DecodeError{
			Kind:   ErrPreambleMismatch,
			Detail: hexSpaced(FieldPreamble.Get(&m)),
		}
	}

	tail := FieldHostTail.Get(&m)[0]
	crcBytes := FieldCRC.Get(&m)
	d := &DecodedPacket{
		Opcode:  Opcode(FieldOpcode.Get(&m)[0]),
		HostID:  HostID{FieldHost0.Get(&m)[0], tail & 0xF0},
		GroupID: tail & 0x0F,
		Arg1:    FieldArg1.Get(&m)[0],
		Arg2:    FieldArg2.Get(&m)[0],
		Nonce:   FieldNonce.Get(&m)[0],
		CRC:     uint16(crcBytes[0])<<8 | uint16(crcBytes[1]),
		Message: m,
	}

	if want := CRC16(m[:], CRCLength, CRCOffset); want != d.CRC {
		d.Malformed = true
		return d, &DecodeError{
			Kind:   ErrCRCMismatch,
			Detail: fmt.Sprintf("got 0x%04x, computed 0x%04x", d.CRC, want),
		}
	}
	return d, nil
}

// ParseHex decodes a hex string (spaces, colons and 0x prefixes allowed)
// and parses it as a packet.
func ParseHex(s string) (*DecodedPacket, error) {
	raw, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	return ParsePacket(raw)
}

// DecodeHex turns a loosely formatted hex string into bytes.
func DecodeHex(s string) ([]byte, error) {
	clean := strings.NewReplacer("0x", "", "0X", "", " ", "", ":", "", ",", "", "\n", "", "\t", "").Replace(s)
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex string has odd length %d", len(clean))
	}
	out, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return out, nil
}

// AnnotateMessage renders a field-by-field dump of m for debugging.
func AnnotateMessage(m Message) string {
	var sb strings.Builder
	for _, f := range Layout {
		fmt.Fprintf(&sb, "  [%2d-%2d] %-12s %s\n", f.Offset, f.End()-1, f.Name, hexSpaced(f.Get(&m)))
	}
	return sb.String()
}
