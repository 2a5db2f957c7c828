package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "lampsmart"
	configFile = "config.yaml"
)

var (
	// Global registry instance (loaded lazily)
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// Explicit config file location, set by --config
	pathOverride string

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/lampsmart or $HOME/.config/lampsmart
//   - macOS: $HOME/.config/lampsmart
//   - Windows: %LOCALAPPDATA%\lampsmart
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// SetPath points the registry at an explicit file and drops any cached
// global registry. An empty path restores the platform default.
func SetPath(path string) {
	fileMutex.Lock()
	defer fileMutex.Unlock()
	pathOverride = path
	globalRegistryOnce = sync.Once{}
	globalRegistry, globalRegistryErr = nil, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// LoadRegistry loads the configuration registry from disk.
// If the file doesn't exist, returns a new default registry.
// Thread-safe - multiple calls will return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			globalRegistryErr = fmt.Errorf("failed to get config path: %w", err)
			return
		}
		globalRegistry, globalRegistryErr = LoadFile(path)
	})
	return globalRegistry, globalRegistryErr
}

// LoadFile reads a registry from path. A missing file yields a new default
// registry.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes registry YAML.
func Parse(data []byte) (*Registry, error) {
	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// An empty file is a fresh registry
	if registry.Version == 0 && len(registry.Devices) == 0 {
		registry.Version = 1
	}
	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	if registry.Devices == nil {
		registry.Devices = make(map[string]*Device)
	}
	if registry.Radio == nil {
		registry.Radio = &Radio{}
	}

	return &registry, nil
}

// Marshal encodes the registry as YAML with a descriptive header.
func (r *Registry) Marshal(location string) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# LampSmart Configuration File
# Each device's host id is derived from its stable_id (or its name when
# stable_id is absent). Changing either unpairs the fixture.
#
# Location: ` + location + `

`)
	return append(header, data...), nil
}

// Save saves the registry to the configured path.
// Performs an atomic write to prevent corruption on crash.
func (r *Registry) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return r.SaveFile(configPath)
}

// SaveFile atomically writes the registry to path.
func (r *Registry) SaveFile(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	// Create directory with user-only permissions (0700)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := r.Marshal(path)
	if err != nil {
		return err
	}

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// ReloadRegistry reloads the registry from disk, discarding any in-memory changes.
// This is useful for reading changes made by another process.
func ReloadRegistry() (*Registry, error) {
	fileMutex.Lock()
	globalRegistryOnce = sync.Once{}
	fileMutex.Unlock()
	return LoadRegistry()
}

// ErrConfigExists is returned by CreateDefaultConfig when a file is present.
var ErrConfigExists = errors.New("config file already exists")

// CreateDefaultConfig writes an example registry to the configured path.
// It refuses to overwrite an existing file.
func CreateDefaultConfig() (string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("%s: %w", path, ErrConfigExists)
	}

	registry := NewRegistry()
	minBrightness := uint8(DefaultMinBrightness)
	registry.Devices["living_room"] = &Device{
		Kind:            KindLight,
		Name:            "Living Room Light",
		GroupID:         0,
		TxDuration:      DefaultTxDuration,
		MinBrightness:   &minBrightness,
		ColdWhiteMireds: DefaultColdWhiteMireds,
		WarmWhiteMireds: DefaultWarmWhiteMireds,
	}
	registry.Devices["living_room_fan"] = &Device{
		Kind:    KindFan,
		Name:    "Living Room Fan",
		GroupID: 0,
	}

	return path, registry.SaveFile(path)
}
