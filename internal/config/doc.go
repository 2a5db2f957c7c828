// Package config manages the lampsmart device registry.
//
// The registry is a YAML file listing every fixture this host controls. A
// fixture only answers the host id it was paired with, and that id is derived
// from the device's stable identifier, so the registry is the one piece of
// state that must survive reinstalls. Back it up.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/lampsmart/config.yaml or $HOME/.config/lampsmart/config.yaml
//   - macOS: $HOME/.config/lampsmart/config.yaml
//   - Windows: %LOCALAPPDATA%\lampsmart\config.yaml
//
// SetPath overrides the location (the CLI's --config flag).
//
// # File Format
//
//	version: 1
//	radio:
//	  hci_device: 0
//	devices:
//	  kitchen:
//	    kind: light
//	    name: Kitchen Light     # hashed into the stable id when stable_id is absent
//	    group_id: 0
//	    tx_duration: 1s         # at most 5s
//	    min_brightness: 7
//	    cold_white_mireds: 153
//	    warm_white_mireds: 370
//	    gamma_correct: 2.8      # 0 sends levels linearly
//	  bedroom_fan:
//	    kind: fan
//	    stable_id: 0xCAFEBABE
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := registry.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.EnsureDevice("hallway", config.KindLight).GroupID = 2
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
