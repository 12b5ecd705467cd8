// Package config loads hillshading engine configuration: sane defaults,
// optionally overlaid by a JSON file, with an OS-specific default directory
// lookup for locating a DEM root when the caller doesn't supply one.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	goruntime "runtime"
)

// Config is the tunable surface of a HgtCache.
type Config struct {
	// MaxMemoryMB bounds the per-cache byte budget: MaxMemoryMB * 125000
	// bytes (~ MaxMemoryMB/8 of real memory for one cache).
	MaxMemoryMB int `json:"maxMemoryMB"`
	// MaxCount is the LRU's max_count budget.
	MaxCount int `json:"maxCount"`
	// MinCount is the LRU's min_count floor.
	MinCount int `json:"minCount"`
	// PaddingEnabled toggles the default padding of 1 used for
	// interpolation overlap (padding 0 otherwise).
	PaddingEnabled bool `json:"paddingEnabled"`
	// ReaderThreads is the number of extra reader tasks beyond the caller.
	ReaderThreads int `json:"readerThreads"`
	// ComputeThreads sizes the per-caller thread-local pool; 0 forces a
	// single inline compute task.
	ComputeThreads int `json:"computeThreads"`
	// HQEnabled toggles the adaptive selector's high-quality branch.
	HQEnabled bool `json:"hqEnabled"`
}

// DefaultConfig mirrors the defaults used by the reference renderer.
func DefaultConfig() *Config {
	return &Config{
		MaxMemoryMB:    64,
		MaxCount:       64,
		MinCount:       8,
		PaddingEnabled: true,
		ReaderThreads:  1,
		ComputeThreads: 2,
		HQEnabled:      true,
	}
}

// MaxBytes returns the derived per-cache byte budget.
func (c *Config) MaxBytes() int64 {
	return int64(c.MaxMemoryMB) * 125000
}

// Padding returns the configured padding in output pixels.
func (c *Config) Padding() int {
	if c.PaddingEnabled {
		return 1
	}
	return 0
}

// Load reads configPath if present and overlays it onto DefaultConfig.
// A missing file is not an error; unreadable or unparsable files fall back
// to defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	var fileConfig struct {
		Hillshade *Config `json:"hillshade"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return cfg, err
	}

	if fileConfig.Hillshade != nil {
		overlay(cfg, fileConfig.Hillshade)
	}

	return cfg, nil
}

func overlay(dst, src *Config) {
	if src.MaxMemoryMB > 0 {
		dst.MaxMemoryMB = src.MaxMemoryMB
	}
	if src.MaxCount > 0 {
		dst.MaxCount = src.MaxCount
	}
	if src.MinCount > 0 {
		dst.MinCount = src.MinCount
	}
	if src.ReaderThreads > 0 {
		dst.ReaderThreads = src.ReaderThreads
	}
	if src.ComputeThreads > 0 {
		dst.ComputeThreads = src.ComputeThreads
	}
	dst.PaddingEnabled = src.PaddingEnabled
	dst.HQEnabled = src.HQEnabled
}

// DefaultCacheDir returns an OS-specific directory hint for locating DEM
// data.
func DefaultCacheDir() string {
	homeDir, _ := os.UserHomeDir()

	switch goruntime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "hillshade", "dem")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "hillshade", "dem")
	default:
		cacheHome := os.Getenv("XDG_CACHE_HOME")
		if cacheHome == "" {
			cacheHome = filepath.Join(homeDir, ".cache")
		}
		return filepath.Join(cacheHome, "hillshade", "dem")
	}
}
