// Package discovery finds and announces lampsmart bridges over mDNS.
//
// A bridge (lampsmart serve) registers the "_lampsmart._tcp" service in the
// "local." domain. Clients browse for that service type to find bridges
// without knowing their addresses.
//
// # TXT Records
//
//	version=<bridge version>
//	devices=<number of configured devices>
//	scheme=https            Only when the bridge serves TLS
//
// # Usage Example - Browsing
//
//	bridges, err := discovery.ScanForBridges(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range bridges {
//	    fmt.Printf("Found: %s at %s\n", b.Instance, b.BaseURL())
//	}
//
// # Usage Example - Announcing
//
//	a, err := discovery.Announce("hallway", 8750, map[string]string{"version": "1.0"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Shutdown()
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridge and client must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
