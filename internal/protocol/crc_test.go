package protocol

import "testing"

func TestCRCTableKnownEntries(t *testing.T) {
	// Spot checks against the published CRC-16/CCITT table
	tests := []struct {
		index int
		want  uint16
	}{
		{0x00, 0x0000},
		{0x01, 0x1021},
		{0x02, 0x2042},
		{0x0F, 0xF1EF},
		{0x10, 0x1231},
		{0x80, 0x9188},
		{0xFE, 0x0ED1},
		{0xFF, 0x1EF0},
	}

	for _, tt := range tests {
		if got := crcTable[tt.index]; got != tt.want {
			t.Errorf("crcTable[0x%02x] = 0x%04x, want 0x%04x", tt.index, got, tt.want)
		}
	}
}

func TestCRC16(t *testing.T) {
	tests := []struct {
		name   string
		buf    []byte
		length int
		offset int
		want   uint16
	}{
		{
			name: "empty input returns initial value",
			buf:  []byte{},
			want: 0xFFFF,
		},
		{
			name:   "CCITT-FALSE check string",
			buf:    []byte("123456789"),
			length: 9,
			want:   0x29B1,
		},
		{
			name:   "offset skips leading bytes",
			buf:    append([]byte{0xAA, 0xBB}, []byte("123456789")...),
			length: 9,
			offset: 2,
			want:   0x29B1,
		},
		{
			name:   "length limits trailing bytes",
			buf:    append([]byte("123456789"), 0xFF, 0xFF),
			length: 9,
			want:   0x29B1,
		},
		{
			name:   "fallback stable id bytes",
			buf:    []byte{0xBE, 0xBA, 0xFE, 0xCA},
			length: 4,
			want:   0xA6BD,
		},
		{
			name:   "golden message crc range",
			buf:    []byte{0x21, 0x12, 0x33, 0x80, 0x00, 0x83, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			length: 12,
			want:   0xCC3F,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CRC16(tt.buf, tt.length, tt.offset); got != tt.want {
				t.Errorf("CRC16() = 0x%04x, want 0x%04x", got, tt.want)
			}
		})
	}
}

func TestCRC16OutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("CRC16() with length past end of buffer should panic")
		}
	}()
	CRC16([]byte{1, 2, 3}, 4, 0)
}
