package protocol

import "testing"

func TestDeriveHostID(t *testing.T) {
	tests := []struct {
		name     string
		stableID uint32
		want     HostID
	}{
		{"fallback constant", FallbackStableID, HostID{0xA6, 0xBD}},
		{"sequential bytes", 0x12345678, HostID{0x54, 0x3A}},
		{"zero", 0, HostID{0x84, 0xC0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveHostID(tt.stableID); got != tt.want {
				t.Errorf("DeriveHostID(0x%08x) = %v, want %v", tt.stableID, got, tt.want)
			}
		})
	}
}

func TestDeriveHostIDStable(t *testing.T) {
	first := DeriveHostID(0xDEADBEEF)
	for i := 0; i < 100; i++ {
		if got := DeriveHostID(0xDEADBEEF); got != first {
			t.Fatalf("DeriveHostID not deterministic: %v then %v", first, got)
		}
	}
}

func TestObjectID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Kitchen Light", "kitchen_light"},
		{"ceiling_fan", "ceiling_fan"},
		{"Bed-Room #2", "bed-room__2"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ObjectID(tt.in); got != tt.want {
			t.Errorf("ObjectID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStableIDFromObjectID(t *testing.T) {
	tests := []struct {
		name     string
		wantID   uint32
		wantHost HostID
	}{
		{"Kitchen Light", 0x8AA0B7C2, HostID{0x8C, 0xDF}},
		{"kitchen_light", 0x8AA0B7C2, HostID{0x8C, 0xDF}},
		{"Ceiling Fan", 0x640DEF00, HostID{0x52, 0xBE}},
		{"", FallbackStableID, HostID{0xA6, 0xBD}},
	}
	for _, tt := range tests {
		id := StableIDFromObjectID(tt.name)
		if id != tt.wantID {
			t.Errorf("StableIDFromObjectID(%q) = 0x%08x, want 0x%08x", tt.name, id, tt.wantID)
		}
		if host := DeriveHostID(id); host != tt.wantHost {
			t.Errorf("host id for %q = %v, want %v", tt.name, host, tt.wantHost)
		}
	}
}

func TestHostIDString(t *testing.T) {
	if got := (HostID{0xA6, 0xBD}).String(); got != "a6:bd" {
		t.Errorf("String() = %q, want a6:bd", got)
	}
}
