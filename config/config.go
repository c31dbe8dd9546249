// Package config holds translator settings loaded from JSON or YAML files
// and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/xyproto/env/v2"
	"golang.org/x/sys/cpu"
	"gopkg.in/yaml.v3"
)

// ErrUnknownPolicy is returned by Validate for a policy name other than
// "direct" or "table".
var ErrUnknownPolicy = errors.New("config: unknown address translation policy")

// Environment variables read by ApplyEnv.
const (
	EnvPolicy    = "ARMXLATE_POLICY"
	EnvFusion    = "ARMXLATE_FUSION"
	EnvPageShift = "ARMXLATE_PAGE_SHIFT"
)

// Config holds translator settings.
type Config struct {
	// Policy is the address translation policy, "direct" or "table".
	// Default: "direct".
	Policy string `json:"policy" yaml:"policy"`

	// PageShift is log2 of the guest page size for the table policy.
	// Default: 12 (4 KiB pages).
	PageShift uint8 `json:"page_shift" yaml:"page_shift"`

	// MaxBlockInsts bounds the guest instructions of one block.
	// Default: 64.
	MaxBlockInsts int `json:"max_block_insts" yaml:"max_block_insts"`

	// Fusion folds complementary predicated moves into one CSEL.
	// Default: true.
	Fusion bool `json:"fusion" yaml:"fusion"`

	// CacheSets and CacheWays size the translated block cache.
	// Default: 64 sets of 8 ways.
	CacheSets int `json:"cache_sets" yaml:"cache_sets"`
	CacheWays int `json:"cache_ways" yaml:"cache_ways"`

	// LogLevel is one of debug, info, warn or error. Default: info.
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Default returns the default settings.
func Default() *Config {
	return &Config{
		Policy:        "direct",
		PageShift:     12,
		MaxBlockInsts: 64,
		Fusion:        true,
		CacheSets:     64,
		CacheWays:     8,
		LogLevel:      "info",
	}
}

// Load reads settings from a file over the defaults. Files ending in .yaml
// or .yml are YAML; anything else is JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return c, nil
}

// Save writes the settings as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from ARMXLATE_* environment variables. The
// environment is re-read on every call.
func (c *Config) ApplyEnv() error {
	env.Load()
	if env.Has(EnvPolicy) {
		c.Policy = env.Str(EnvPolicy)
	}
	if env.Has(EnvFusion) {
		c.Fusion = env.Bool(EnvFusion)
	}
	if env.Has(EnvPageShift) {
		n := env.Int(EnvPageShift, -1)
		if n < 0 || n > math.MaxUint8 {
			return fmt.Errorf("%s: invalid page shift %q", EnvPageShift, env.Str(EnvPageShift))
		}
		c.PageShift = uint8(n)
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch c.Policy {
	case "direct", "table":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, c.Policy)
	}
	if c.PageShift < 10 || c.PageShift > 30 {
		return fmt.Errorf("page_shift must be in [10, 30], got %d", c.PageShift)
	}
	if c.MaxBlockInsts <= 0 {
		return fmt.Errorf("max_block_insts must be > 0")
	}
	if c.CacheSets <= 0 || c.CacheWays <= 0 {
		return fmt.Errorf("cache_sets and cache_ways must be > 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// Clone returns a copy of the settings.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Host describes the machine the translator runs on.
type Host struct {
	Arch    string
	ARM64   bool
	Atomics bool // LSE atomics
	ASIMD   bool
}

// DetectHost reports features of the running CPU.
func DetectHost() Host {
	h := Host{Arch: runtime.GOARCH, ARM64: runtime.GOARCH == "arm64"}
	if h.ARM64 {
		h.Atomics = cpu.ARM64.HasATOMICS
		h.ASIMD = cpu.ARM64.HasASIMD
	}
	return h
}
