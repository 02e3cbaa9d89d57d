// Package config loads analyzer configuration from environment variables
// via viper, and exposes the functional-options surface used by
// programmatic callers (tests, embedders). Command-line flags are not
// read here; cmd/ applies its own flags on top of the loaded Config.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MonitorBackend selects the GC/Memory monitor implementation.
type MonitorBackend string

const (
	MonitorRuntime  MonitorBackend = "runtime"
	MonitorHostStat MonitorBackend = "hoststat"
)

// Config holds every runtime-mutable option enumerated by the analyzer's
// external interface.
type Config struct {
	SamplingInterval     uint32
	MaxTrackedObjects    uint32
	CleanupInterval      time.Duration
	AgeThreshold         time.Duration
	GrowthThreshold      uint32
	WindowSize           uint16
	RecentAllocationsCap uint32
	SnapshotHistoryCap   uint16
	ReportHistoryCap     uint16
	MonitorBackend       MonitorBackend
	APIPort              int
	ShardCount           int
}

// Option mutates a Config during construction.
type Option func(*Config)

// Default returns a Config populated with the analyzer's documented
// defaults.
func Default() Config {
	return Config{
		SamplingInterval:     10,
		MaxTrackedObjects:    100_000,
		CleanupInterval:      5 * time.Second,
		AgeThreshold:         60 * time.Second,
		GrowthThreshold:      100,
		WindowSize:           10,
		RecentAllocationsCap: 10_000,
		SnapshotHistoryCap:   100,
		ReportHistoryCap:     50,
		MonitorBackend:       MonitorRuntime,
		APIPort:              8089,
		ShardCount:           32,
	}
}

func WithSamplingInterval(n uint32) Option {
	return func(c *Config) { c.SamplingInterval = n }
}

func WithMaxTrackedObjects(n uint32) Option {
	return func(c *Config) { c.MaxTrackedObjects = n }
}

func WithCleanupInterval(d time.Duration) Option {
	return func(c *Config) { c.CleanupInterval = d }
}

func WithAgeThreshold(d time.Duration) Option {
	return func(c *Config) { c.AgeThreshold = d }
}

func WithGrowthThreshold(n uint32) Option {
	return func(c *Config) { c.GrowthThreshold = n }
}

func WithWindowSize(n uint16) Option {
	return func(c *Config) { c.WindowSize = n }
}

func WithRecentAllocationsCap(n uint32) Option {
	return func(c *Config) { c.RecentAllocationsCap = n }
}

func WithSnapshotHistoryCap(n uint16) Option {
	return func(c *Config) { c.SnapshotHistoryCap = n }
}

func WithReportHistoryCap(n uint16) Option {
	return func(c *Config) { c.ReportHistoryCap = n }
}

func WithMonitorBackend(b MonitorBackend) Option {
	return func(c *Config) { c.MonitorBackend = b }
}

func WithAPIPort(p int) Option {
	return func(c *Config) { c.APIPort = p }
}

func WithShardCount(n int) Option {
	return func(c *Config) { c.ShardCount = n }
}

// New builds a Config from defaults, then Options, in order.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Load populates a Config from environment variables (prefixed HEAPGUARD_)
// and falls back to defaults for anything unset, using viper for the
// environment binding.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("heapguard")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	cfg := Default()

	if v.IsSet("sampling_interval") {
		cfg.SamplingInterval = v.GetUint32("sampling_interval")
	}
	if v.IsSet("max_tracked_objects") {
		cfg.MaxTrackedObjects = v.GetUint32("max_tracked_objects")
	}
	if v.IsSet("cleanup_interval_ms") {
		cfg.CleanupInterval = time.Duration(v.GetInt64("cleanup_interval_ms")) * time.Millisecond
	}
	if v.IsSet("age_threshold_ms") {
		cfg.AgeThreshold = time.Duration(v.GetInt64("age_threshold_ms")) * time.Millisecond
	}
	if v.IsSet("growth_threshold") {
		cfg.GrowthThreshold = v.GetUint32("growth_threshold")
	}
	if v.IsSet("window_size") {
		cfg.WindowSize = uint16(v.GetUint32("window_size"))
	}
	if v.IsSet("recent_allocations_cap") {
		cfg.RecentAllocationsCap = v.GetUint32("recent_allocations_cap")
	}
	if v.IsSet("snapshot_history_cap") {
		cfg.SnapshotHistoryCap = uint16(v.GetUint32("snapshot_history_cap"))
	}
	if v.IsSet("report_history_cap") {
		cfg.ReportHistoryCap = uint16(v.GetUint32("report_history_cap"))
	}
	if v.IsSet("monitor_backend") {
		cfg.MonitorBackend = MonitorBackend(v.GetString("monitor_backend"))
	}
	if v.IsSet("api_port") {
		cfg.APIPort = v.GetInt("api_port")
	}
	return cfg
}
