package protocol

import (
	"bytes"
	"math/rand/v2"
	"testing"
)

func TestReverseByte(t *testing.T) {
	tests := []struct {
		in, want byte
	}{
		{0x00, 0x00},
		{0x01, 0x80},
		{0x80, 0x01},
		{0x0F, 0xF0},
		{0x21, 0x84},
		{0xA5, 0xA5},
		{0xFF, 0xFF},
	}
	for _, tt := range tests {
		if got := ReverseByte(tt.in); got != tt.want {
			t.Errorf("ReverseByte(0x%02x) = 0x%02x, want 0x%02x", tt.in, got, tt.want)
		}
	}
}

func TestReverseBitsSelfInverse(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		var m Message
		for j := range m {
			m[j] = byte(r.UintN(256))
		}
		if got := ReverseBits(ReverseBits(m)); got != m {
			t.Fatalf("ReverseBits(ReverseBits(%x)) = %x", m, got)
		}
	}
}

func TestReverseBitsDoesNotAlias(t *testing.T) {
	m := defaultMessage()
	orig := m
	_ = ReverseBits(m)
	if m != orig {
		t.Error("ReverseBits modified its input")
	}
}

func TestWhitenKeystream(t *testing.T) {
	// Keystream for seed 83 is whitening of all-zero input
	want := []byte{0x8D, 0xD2, 0x57, 0xA1, 0x3D, 0xA7, 0x66, 0xB0, 0x75, 0x31, 0x11, 0x48, 0x96, 0x77, 0xF8, 0xE3}
	got := Whiten(make([]byte, len(want)), WhiteningSeed)
	if !bytes.Equal(got, want) {
		t.Errorf("Whiten(zeros, 83) = % X, want % X", got, want)
	}
}

func TestWhitenSelfInverse(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for seed := 0; seed < 256; seed++ {
		n := int(r.UintN(64))
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte(r.UintN(256))
		}
		once := Whiten(buf, byte(seed))
		twice := Whiten(once, byte(seed))
		if !bytes.Equal(twice, buf) {
			t.Fatalf("seed %d len %d: Whiten(Whiten(x)) != x", seed, n)
		}
	}
}

func TestWhitenSeedUsesLowSevenBits(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56}
	if !bytes.Equal(Whiten(buf, 0x53), Whiten(buf, 0xD3)) {
		t.Error("seeds differing only in bit 7 should produce the same keystream")
	}
}

func TestWhitenEmpty(t *testing.T) {
	if got := Whiten(nil, WhiteningSeed); len(got) != 0 {
		t.Errorf("Whiten(nil) length = %d, want 0", len(got))
	}
}

func TestWhitenForPacketConstants(t *testing.T) {
	if WhiteningSeed != 83 || WhiteningBufferSize != 38 || WhiteningOffset != 13 {
		t.Fatalf("whitening constants changed: seed=%d size=%d offset=%d",
			WhiteningSeed, WhiteningBufferSize, WhiteningOffset)
	}
	if WhiteningOffset+MessageSize != WhiteningBufferSize {
		t.Errorf("offset %d + message %d != buffer %d", WhiteningOffset, MessageSize, WhiteningBufferSize)
	}
}

func TestWhitenForPacketZeroMessage(t *testing.T) {
	// All-zero message exposes the keystream from byte 13 onward
	want := Message{
		0x77, 0xF8, 0xE3, 0x46, 0xE9, 0xAB, 0xD0, 0x9E, 0x53, 0x33, 0xD8, 0xBA, 0x98,
		0x08, 0x24, 0xCB, 0x3B, 0xFC, 0x71, 0xA3, 0xF4, 0x55, 0x68, 0xCF, 0xA9,
	}
	if got := WhitenForPacket(Message{}); got != want {
		t.Errorf("WhitenForPacket(zero) = % X\nwant % X", got, want)
	}
}

func TestWhitenForPacketSelfInverse(t *testing.T) {
	m := Command{Opcode: OpcodeDim, Control0: 0xAB, Control1: 0xCD, Arg1: 10, Arg2: 20, GroupID: 7}.Message(0x42)
	if got := WhitenForPacket(WhitenForPacket(m)); got != m {
		t.Errorf("WhitenForPacket is not self-inverse: % X", got)
	}
}

func TestWhitenerStreamingMatchesWhiten(t *testing.T) {
	buf := []byte("streaming whitening across calls")
	want := Whiten(buf, 0x25)

	w := NewWhitener(0x25)
	got := make([]byte, len(buf))
	w.XORKeyStream(got[:10], buf[:10])
	w.XORKeyStream(got[10:], buf[10:])

	if !bytes.Equal(got, want) {
		t.Errorf("split XORKeyStream = % X, want % X", got, want)
	}
}
