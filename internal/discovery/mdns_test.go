package discovery

import (
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func serviceEntry(instance, host string, port int, v4, v6 []net.IP, text []string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	entry.HostName = host
	entry.Port = port
	entry.AddrIPv4 = v4
	entry.AddrIPv6 = v6
	entry.Text = text
	return entry
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
		wantMeta     map[string]string
	}{
		{
			name: "bridge with IPv4",
			entry: serviceEntry("hallway", "hallway.local.", 8750,
				[]net.IP{net.ParseIP("192.168.4.16")}, nil,
				[]string{"version=1.2.0", "devices=3"}),
			wantInstance: "hallway",
			wantIP:       "192.168.4.16",
			wantPort:     8750,
			wantMeta:     map[string]string{"version": "1.2.0", "devices": "3"},
		},
		{
			name: "no port specified defaults",
			entry: serviceEntry("attic", "attic.local.", 0,
				[]net.IP{net.ParseIP("10.0.0.5")}, nil, nil),
			wantInstance: "attic",
			wantIP:       "10.0.0.5",
			wantPort:     DefaultPort,
			wantMeta:     map[string]string{},
		},
		{
			name: "IPv6 only bridge",
			entry: serviceEntry("garage", "garage.local.", 9000,
				nil, []net.IP{net.ParseIP("fe80::1")}, []string{"scheme=https"}),
			wantInstance: "garage",
			wantIP:       "fe80::1",
			wantPort:     9000,
			wantMeta:     map[string]string{"scheme": "https"},
		},
		{
			name: "both families prefers IPv4",
			entry: serviceEntry("den", "den.local.", 8750,
				[]net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}, nil),
			wantInstance: "den",
			wantIP:       "192.168.1.50",
			wantPort:     8750,
			wantMeta:     map[string]string{},
		},
		{
			name:    "no IP address",
			entry:   serviceEntry("den", "den.local.", 8750, nil, nil, nil),
			wantNil: true,
		},
		{
			name: "empty instance",
			entry: serviceEntry("", "den.local.", 8750,
				[]net.IP{net.ParseIP("192.168.1.50")}, nil, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if bridge != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", bridge)
				}
				return
			}

			if bridge == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil bridge")
			}
			if bridge.Instance != tt.wantInstance {
				t.Errorf("bridge.Instance = %v, want %v", bridge.Instance, tt.wantInstance)
			}
			if bridge.IP != tt.wantIP {
				t.Errorf("bridge.IP = %v, want %v", bridge.IP, tt.wantIP)
			}
			if bridge.Port != tt.wantPort {
				t.Errorf("bridge.Port = %v, want %v", bridge.Port, tt.wantPort)
			}
			if !reflect.DeepEqual(bridge.Metadata, tt.wantMeta) {
				t.Errorf("bridge.Metadata = %v, want %v", bridge.Metadata, tt.wantMeta)
			}
			if bridge.DiscoveredAt.IsZero() {
				t.Error("bridge.DiscoveredAt should be set")
			}
		})
	}
}

func TestParseTXT(t *testing.T) {
	got := parseTXT([]string{"version=1.0", "flag", "url=http://x/?a=b"})
	want := map[string]string{
		"version": "1.0",
		"flag":    "",
		"url":     "http://x/?a=b",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseTXT() = %v, want %v", got, want)
	}
}

func TestFormatTXT(t *testing.T) {
	got := formatTXT(map[string]string{"version": "1.0", "devices": "2"})
	want := []string{"devices=2", "version=1.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("formatTXT() = %v, want %v", got, want)
	}

	round := parseTXT(formatTXT(map[string]string{"scheme": "https"}))
	if round["scheme"] != "https" {
		t.Errorf("round trip lost scheme: %v", round)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("NewScanner().Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestServiceConstants(t *testing.T) {
	if ServiceType != "_lampsmart._tcp" {
		t.Errorf("ServiceType = %v", ServiceType)
	}
	if ServiceDomain != "local." {
		t.Errorf("ServiceDomain = %v", ServiceDomain)
	}
	if DefaultScanTimeout != 5*time.Second {
		t.Errorf("DefaultScanTimeout = %v", DefaultScanTimeout)
	}
}

func TestAnnounceRequiresInstance(t *testing.T) {
	if _, err := Announce("", DefaultPort, nil); err == nil {
		t.Error("Announce(\"\") should fail")
	}
}
