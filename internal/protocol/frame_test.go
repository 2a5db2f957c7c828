package protocol

import (
	"strings"
	"testing"
)

func TestTemplateLayout(t *testing.T) {
	tmpl := Template()

	wantHeader := []byte{0x1F, 0x02, 0x01, 0x01, 0x1B, 0x03}
	for i, b := range wantHeader {
		if tmpl[i] != b {
			t.Errorf("template[%d] = 0x%02x, want 0x%02x", i, tmpl[i], b)
		}
	}
	if tmpl[0] != PayloadSize {
		t.Errorf("length indicator = %d, want %d", tmpl[0], PayloadSize)
	}
	if tmpl[TrailerIndex] != 0x00 {
		t.Errorf("trailer = 0x%02x, want 0x00", tmpl[TrailerIndex])
	}
}

func TestTemplateReturnsCopy(t *testing.T) {
	a := Template()
	a[0] = 0xEE
	if Template()[0] != 0x1F {
		t.Error("mutating Template() result changed the template")
	}
}

func TestDefaultMessageFromTemplate(t *testing.T) {
	m := defaultMessage()
	tmpl := Template()
	for i := range m {
		if m[i] != tmpl[MessageStart+i] {
			t.Errorf("message[%d] = 0x%02x, want template[%d] = 0x%02x", i, m[i], MessageStart+i, tmpl[MessageStart+i])
		}
	}
	if m[FieldFixed.Offset] != 0x83 {
		t.Errorf("fixed byte = 0x%02x, want 0x83", m[FieldFixed.Offset])
	}
}

func TestValidateLayout(t *testing.T) {
	if err := validateLayout(Layout); err != nil {
		t.Fatalf("validateLayout(Layout) error = %v", err)
	}

	tests := []struct {
		name   string
		fields []Field
		errSub string
	}{
		{
			name:   "gap",
			fields: []Field{{"a", 0, 10}, {"b", 11, 14}},
			errSub: "expected 10",
		},
		{
			name:   "short",
			fields: []Field{{"a", 0, 10}},
			errSub: "covers 10 bytes",
		},
		{
			name:   "zero width",
			fields: []Field{{"a", 0, 0}},
			errSub: "width 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLayout(tt.fields)
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("validateLayout() error = %v, want containing %q", err, tt.errSub)
			}
		})
	}
}

func TestFieldPutWrongWidthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Put with wrong width should panic")
		}
	}()
	var m Message
	FieldCRC.Put(&m, 0x01)
}

func TestPacketString(t *testing.T) {
	s := goldenDim.String()
	if !strings.HasPrefix(s, "1F 02 01 01 1B 03") {
		t.Errorf("String() = %q", s)
	}
	if len(strings.Fields(s)) != PacketSize {
		t.Errorf("String() has %d bytes, want %d", len(strings.Fields(s)), PacketSize)
	}
}

func TestOpcodeParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Opcode
		wantErr bool
	}{
		{"dim", OpcodeDim, false},
		{"pair", OpcodePair, false},
		{"0x31", OpcodeGear, false},
		{"16", OpcodeTurnOn, false},
		{"0x100", 0, true},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOpcode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOpcode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOpcode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
