package main

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default values for every configuration key.
const (
	DefaultInput       = "-"
	DefaultOutput      = "-"
	DefaultChunkSize   = 1024
	DefaultCacheSize   = 64
	DefaultBatchSize   = 4096
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultNgramWidth  = 3
	DefaultBandCount   = 16
	DefaultBandSize    = 4
	DefaultBits        = 64
	DefaultBucketWidth = 1.0
)

// envPrefix scopes environment overrides, e.g. LSHSIG_BAND_COUNT.
const envPrefix = "LSHSIG"

// Config is the resolved CLI configuration. Precedence is
// flag > environment > config file > default.
type Config struct {
	Input       string `mapstructure:"input"`
	Output      string `mapstructure:"output"`
	Workers     int    `mapstructure:"workers"`
	ChunkSize   int    `mapstructure:"chunk_size"`
	CacheSize   int    `mapstructure:"cache_size"`
	BatchSize   int    `mapstructure:"batch_size"`
	Progress    bool   `mapstructure:"progress"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	MetricsFile string `mapstructure:"metrics_file"`

	NgramWidth  int     `mapstructure:"ngram_width"`
	BandCount   int     `mapstructure:"band_count"`
	BandSize    int     `mapstructure:"band_size"`
	Seed        uint64  `mapstructure:"seed"`
	Bits        int     `mapstructure:"bits"`
	BucketWidth float64 `mapstructure:"bucket_width"`
	Tokens      bool    `mapstructure:"tokens"`
	Table       string  `mapstructure:"table"`
}

// LoadConfig resolves configuration from defaults, an optional YAML file,
// LSHSIG_* environment variables and the command's flags.
//
// With an empty configPath, lshsig.yaml is looked up in the working
// directory and $HOME/.config/lshsig; a missing file is not an error.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("lshsig")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lshsig")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" || f.Name == "help" {
				return
			}
			bindErr = errors.Join(bindErr, v.BindPFlag(flagKey(f.Name), f))
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// flagKey maps a flag name to its config key: band-count → band_count.
func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", DefaultInput)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("cache_size", DefaultCacheSize)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("progress", false)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	v.SetDefault("metrics_file", "")

	v.SetDefault("ngram_width", DefaultNgramWidth)
	v.SetDefault("band_count", DefaultBandCount)
	v.SetDefault("band_size", DefaultBandSize)
	v.SetDefault("seed", 0)
	v.SetDefault("bits", DefaultBits)
	v.SetDefault("bucket_width", DefaultBucketWidth)
	v.SetDefault("tokens", false)
	v.SetDefault("table", "")
}

// validate checks CLI-level settings. Hashing parameters are validated by
// the library on first use so both share one set of rules.
func (c *Config) validate() error {
	if c.Bits != 32 && c.Bits != 64 {
		return fmt.Errorf("bits must be 32 or 64, got %d", c.Bits)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
