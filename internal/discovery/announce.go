package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
)

// Announcer keeps a bridge registered over mDNS.
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers instance on port with metadata as TXT records.
func Announce(instance string, port int, metadata map[string]string) (*Announcer, error) {
	if instance == "" {
		return nil, fmt.Errorf("mDNS instance name is required")
	}
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, formatTXT(metadata), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Announcer{server: server}, nil
}

// Update replaces the announced TXT records.
func (a *Announcer) Update(metadata map[string]string) {
	a.server.SetText(formatTXT(metadata))
}

// Shutdown withdraws the announcement.
func (a *Announcer) Shutdown() {
	a.server.Shutdown()
}
