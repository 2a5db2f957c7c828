package protocol

// Whitening alignment for the advertising channel the fixtures listen on.
// These values were recovered from working hardware and must not change:
// already-paired fixtures depend on them.
const (
	WhiteningSeed       = 83 // Initial LFSR state
	WhiteningBufferSize = 38 // Padded buffer length
	WhiteningOffset     = 13 // Dummy bytes standing in for preamble/access address
)

const lfsrMask = 0x7F

// Whitener produces the BLE whitening keystream from a 7-bit LFSR.
type Whitener struct {
	state byte
}

// NewWhitener returns a whitener whose register starts at seed (low 7 bits).
func NewWhitener(seed byte) *Whitener {
	return &Whitener{state: seed & lfsrMask}
}

// nextBit returns the current keystream bit and advances the register.
func (w *Whitener) nextBit() byte {
	bit := (w.state >> 6) & 1
	w.state = ((w.state << 1) & lfsrMask) | bit
	w.state ^= bit << 4
	return bit
}

// XORKeyStream whitens src into dst, least-significant bit first.
// dst and src may overlap entirely.
func (w *Whitener) XORKeyStream(dst, src []byte) {
	for i, b := range src {
		var out byte
		for j := 0; j < 8; j++ {
			out |= (((b >> j) & 1) ^ w.nextBit()) << j
		}
		dst[i] = out
	}
}

// Whiten returns buf xor the keystream seeded with seed. The transform is
// its own inverse for a given seed and alignment.
func Whiten(buf []byte, seed byte) []byte {
	out := make([]byte, len(buf))
	NewWhitener(seed).XORKeyStream(out, buf)
	return out
}

// WhitenForPacket whitens a message as the radio sees it at the start of the
// advertising payload: the LFSR is first run across WhiteningOffset bytes of
// padding so its state matches the hardware at the payload boundary.
func WhitenForPacket(m Message) Message {
	var buf [WhiteningBufferSize]byte
	copy(buf[WhiteningOffset:], m[:])
	w := Whiten(buf[:], WhiteningSeed)

	var out Message
	copy(out[:], w[WhiteningOffset:WhiteningOffset+MessageSize])
	return out
}
