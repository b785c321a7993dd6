package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is logagentctl's configuration. Precedence (highest to lowest):
// environment variables (LOGAGENT_*), the config file, then defaults.
// Environment variables only override keys the config file sets; with no
// config file they are not read at all.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Store    StoreConfig    `mapstructure:"store"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LoggingConfig controls internal/logger output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// StoreConfig selects and sizes the logstore.Store backing.
type StoreConfig struct {
	// Backend is "sqlite" or "memory".
	Backend          string `mapstructure:"backend"`
	Path             string `mapstructure:"path"`
	MaxBucketBytes   int    `mapstructure:"max_bucket_bytes"`
	MaxBucketRecords int    `mapstructure:"max_bucket_records"`

	RelaxedDurability    bool `mapstructure:"relaxed_durability"`
	InMemoryJournal      bool `mapstructure:"in_memory_journal"`
	InMemoryScratch      bool `mapstructure:"in_memory_scratch"`
	SuppressChangeCounts bool `mapstructure:"suppress_change_counts"`
}

// StrategyConfig selects and tunes the uploadstrategy.Strategy.
type StrategyConfig struct {
	// Kind is one of "volume", "recordcount", "periodic", "composite".
	Kind string `mapstructure:"kind"`

	VolumeThreshold      uint64        `mapstructure:"volume_threshold"`
	RecordCountThreshold uint64        `mapstructure:"record_count_threshold"`
	Period               time.Duration `mapstructure:"period"`
	MaxOldestRecordAge   time.Duration `mapstructure:"max_oldest_record_age"`
	HardCapVolume        uint64        `mapstructure:"hard_cap_volume"`
	SoftTargetVolume     uint64        `mapstructure:"soft_target_volume"`

	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// UploadConfig tunes the uploadcontroller.Controller.
type UploadConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		Store: StoreConfig{
			Backend:          "sqlite",
			Path:             "logagent.db",
			MaxBucketBytes:   1 << 20,
			MaxBucketRecords: 256,
		},
		Strategy: StrategyConfig{
			Kind:                 "composite",
			VolumeThreshold:      1 << 22, // 4 MiB
			RecordCountThreshold: 1024,
			Period:               5 * time.Minute,
			MaxOldestRecordAge:   30 * time.Minute,
			HardCapVolume:        1 << 24, // 16 MiB
			SoftTargetVolume:     1 << 22,
			InitialBackoff:       time.Second,
			MaxBackoff:           5 * time.Minute,
		},
		Upload: UploadConfig{
			Timeout:       30 * time.Second,
			SweepInterval: 5 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: false},
	}
}

// loadConfig starts from defaultConfig and, if configPath is non-empty,
// overlays the file's values, with LOGAGENT_* environment variables
// overriding the keys present in the file. With an empty configPath it
// returns the defaults unchanged.
func loadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LOGAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaultConfig()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	return &cfg, nil
}
