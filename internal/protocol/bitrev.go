package protocol

import "math/bits"

// ReverseByte mirrors the bit order of b (bit 7 becomes bit 0).
func ReverseByte(b byte) byte {
	return bits.Reverse8(b)
}

// ReverseBits returns a copy of m with every byte bit-reversed.
// Applying it twice yields the original message.
func ReverseBits(m Message) Message {
	var out Message
	for i, b := range m {
		out[i] = bits.Reverse8(b)
	}
	return out
}
