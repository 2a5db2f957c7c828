package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Bridge represents a discovered lampsmart bridge on the network
type Bridge struct {
	// Instance is the mDNS instance name (usually the bridge's hostname)
	Instance string

	// Hostname is the mDNS hostname (e.g., "hallway.local.")
	Hostname string

	// IP is the bridge address, IPv4 preferred
	IP string

	// Port is the HTTP API port
	Port int

	// Metadata contains the TXT record data (version, devices, scheme)
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge
func (b *Bridge) String() string {
	return fmt.Sprintf("LampSmart bridge %s (%s) at %s", b.Instance, b.Hostname, net.JoinHostPort(b.IP, strconv.Itoa(b.Port)))
}

// BaseURL returns the API base URL for the bridge
func (b *Bridge) BaseURL() string {
	scheme := b.GetMetadata("scheme")
	if scheme == "" {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(b.IP, strconv.Itoa(b.Port)))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}

// Version returns the advertised bridge version.
func (b *Bridge) Version() string {
	return b.GetMetadata("version")
}

// DeviceCount returns the advertised number of devices, or -1 if absent.
func (b *Bridge) DeviceCount() int {
	n, err := strconv.Atoi(b.GetMetadata("devices"))
	if err != nil {
		return -1
	}
	return n
}
