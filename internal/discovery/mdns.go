package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type bridges register
	ServiceType = "_lampsmart._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for bridge discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the bridge's default HTTP port
	DefaultPort = 8750
)

// Scanner handles mDNS bridge discovery
type Scanner struct {
	// Timeout is the maximum time to wait for bridge discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// browse runs one mDNS browse until ctx ends, passing each bridge to found.
// found returning false stops the browse early.
func (s *Scanner) browse(ctx context.Context, found func(*Bridge) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if b := s.parseServiceEntry(entry); b != nil && !found(b) {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done
	return nil
}

// ScanForBridges discovers all bridges on the local network
func (s *Scanner) ScanForBridges(ctx context.Context) ([]*Bridge, error) {
	seen := make(map[string]*Bridge)
	err := s.browse(ctx, func(b *Bridge) bool {
		seen[b.Instance] = b
		return true
	})
	if err != nil {
		return nil, err
	}

	bridges := make([]*Bridge, 0, len(seen))
	for _, b := range seen {
		bridges = append(bridges, b)
	}
	sort.Slice(bridges, func(i, j int) bool { return bridges[i].Instance < bridges[j].Instance })
	return bridges, nil
}

// WaitForBridge returns the first bridge whose instance name matches, or any
// bridge when instance is empty.
func (s *Scanner) WaitForBridge(ctx context.Context, instance string) (*Bridge, error) {
	var match *Bridge
	err := s.browse(ctx, func(b *Bridge) bool {
		if instance == "" || strings.EqualFold(b.Instance, instance) {
			match = b
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if match == nil {
		if instance == "" {
			return nil, fmt.Errorf("no lampsmart bridge found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("bridge %q not found within %s", instance, s.Timeout)
	}
	return match, nil
}

// parseServiceEntry converts a zeroconf service entry to a Bridge
// Returns nil if the entry has no usable address
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Bridge {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Bridge{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" TXT records. Keys without '=' map to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// formatTXT renders metadata as sorted "key=value" TXT records.
func formatTXT(metadata map[string]string) []string {
	records := make([]string, 0, len(metadata))
	for k, v := range metadata {
		records = append(records, k+"="+v)
	}
	sort.Strings(records)
	return records
}

// ScanForBridges is a convenience function to scan with a custom timeout
func ScanForBridges(timeout time.Duration) ([]*Bridge, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForBridges(context.Background())
}

// FindBridge searches for a bridge by instance name with default timeout
func FindBridge(instance string) (*Bridge, error) {
	return NewScanner().WaitForBridge(context.Background(), instance)
}
