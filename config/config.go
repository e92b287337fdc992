package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/embedfs/internal/util"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// CLI style verbosity values accepted by ConfigOverride.LogLvl
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultSentinelFD selects a private /dev/null descriptor as the
	// source of synthetic descriptors
	DefaultSentinelFD = -1

	// DefaultDeviceMajor and DefaultDeviceMinor form the synthetic device id
	// reported for every embedded entry
	DefaultDeviceMajor = 2222
	DefaultDeviceMinor = 0

	// DefaultBlockSize is the preferred I/O size reported by stat
	DefaultBlockSize = 4096

	DefaultMetaCache = true

	// The embedded tree never changes so FUSE caches can be long lived
	DefaultAttrTimeout  = 3600.0
	DefaultEntryTimeout = 3600.0

	DefaultFsName = "embedfs"
	DefaultName   = "embedfs"
)

// Config contains runtime configuration values for the embedded filesystem.
type Config struct {
	MountOptions
	LogLvl      util.LogLevel
	SentinelFD  int    // Descriptor duplicated for every virtual open; <0 opens /dev/null (Default -1)
	DeviceMajor uint32 // Synthetic device major number (Default 2222)
	DeviceMinor uint32 // Synthetic device minor number (Default 0)
	BlockSize   int    // st_blksize of embedded entries, a multiple of 512 (Default 4096)
	MetaCache   bool   // Memoize stat results per canonical path (Default true)
	// FUSE export only:

	AttrTimeout  float64 // Attribute cache timeout in seconds (Default 3600)
	EntryTimeout float64 // Directory entry cache timeout in seconds (Default 3600)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a verbosity between 1 (error) and 5 (trace)
	LogLvl       *int     `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	SentinelFD   *int     `yaml:"sentinel_fd,omitempty" json:"sentinel_fd,omitempty"`
	DeviceMajor  *uint32  `yaml:"device_major,omitempty" json:"device_major,omitempty"`
	DeviceMinor  *uint32  `yaml:"device_minor,omitempty" json:"device_minor,omitempty"`
	BlockSize    *int     `yaml:"block_size,omitempty" json:"block_size,omitempty"`
	MetaCache    *bool    `yaml:"meta_cache,omitempty" json:"meta_cache,omitempty"`
	AttrTimeout  *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
	Debug        *bool    `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName       *string  `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name         *string  `yaml:"name,omitempty" json:"name,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:       DefaultLogLvl,
		SentinelFD:   DefaultSentinelFD,
		DeviceMajor:  DefaultDeviceMajor,
		DeviceMinor:  DefaultDeviceMinor,
		BlockSize:    DefaultBlockSize,
		MetaCache:    DefaultMetaCache,
		AttrTimeout:  DefaultAttrTimeout,
		EntryTimeout: DefaultEntryTimeout,
	}
}

// NewConfig returns the defaults with override applied. A nil override is allowed.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = util.VerbosityLevel(*override.LogLvl)
	}
	if override.SentinelFD != nil {
		c.SentinelFD = *override.SentinelFD
	}
	if override.DeviceMajor != nil {
		c.DeviceMajor = *override.DeviceMajor
	}
	if override.DeviceMinor != nil {
		c.DeviceMinor = *override.DeviceMinor
	}
	if override.BlockSize != nil {
		c.BlockSize = *override.BlockSize
	}
	if override.MetaCache != nil {
		c.MetaCache = *override.MetaCache
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
}

// Validate reports values the filesystem cannot work with.
func (c *Config) Validate() error {
	if c.BlockSize <= 0 || c.BlockSize%512 != 0 {
		return fmt.Errorf("block size %d is not a positive multiple of 512", c.BlockSize)
	}
	return nil
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports YAML (.yaml, .yml), JSON (.json) and JSON with comments (.jsonc).
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewConfig(override)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
