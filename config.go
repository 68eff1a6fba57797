package alchemist

import (
	"alchemist/ds"
	"alchemist/util"
	"os"
	"runtime"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultHasher   = "murmur3"
	defaultLogLevel = "warn"

	// shards per core before rounding up to a power of two
	shardsPerCPU         = 4
	maxDefaultShardCount = 4096

	EnvConfigPath = "ALCHEMIST_CONFIG"
	EnvShardCount = "ALCHEMIST_SHARDS"
	EnvHasher     = "ALCHEMIST_HASHER"
	EnvLogLevel   = "ALCHEMIST_LOG_LEVEL"
)

type Config struct {
	ShardCount    int    `yaml:"shard_count"`    // rounded up to a power of two, at least ds.DefaultShardCount
	ShardCapacity int    `yaml:"shard_capacity"` // initial entries per shard, a hint only
	Hasher        string `yaml:"hasher"`         // "murmur3" or "memhash"
	LogLevel      string `yaml:"log_level"`      // zap level name, e.g. "debug", "warn"
}

// DefaultConfig sizes the shard set relative to the number of cores.
func DefaultConfig() Config {
	shards := ds.NormalizeShardCount(runtime.NumCPU() * shardsPerCPU)
	if shards > maxDefaultShardCount {
		shards = maxDefaultShardCount
	}
	return Config{
		ShardCount: shards,
		Hasher:     defaultHasher,
		LogLevel:   defaultLogLevel,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), errors.WithMessagef(err, "config %s", path)
	}
	return cfg, nil
}

// ConfigFromEnv loads $ALCHEMIST_CONFIG when it is set, then applies the
// single-field overrides. On error the returned Config is still usable.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv(EnvConfigPath); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	next := cfg
	if v := os.Getenv(EnvShardCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Wrapf(ErrInvalidShardCount, "%s=%q", EnvShardCount, v)
		}
		next.ShardCount = n
	}
	if v := os.Getenv(EnvHasher); v != "" {
		next.Hasher = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		next.LogLevel = v
	}
	if err := next.Validate(); err != nil {
		return cfg, errors.WithMessage(err, "environment")
	}
	return next, nil
}

// Validate normalizes the shard count and rejects unknown names.
func (cfg *Config) Validate() error {
	if cfg.ShardCount < 0 || cfg.ShardCount > ds.MaxShardCount {
		return errors.Wrapf(ErrInvalidShardCount, "%d", cfg.ShardCount)
	}
	cfg.ShardCount = ds.NormalizeShardCount(cfg.ShardCount)
	if cfg.ShardCapacity < 0 {
		cfg.ShardCapacity = 0
	}

	if cfg.Hasher == "" {
		cfg.Hasher = defaultHasher
	}
	if _, ok := util.ShardingFunc(cfg.Hasher); !ok {
		return errors.Wrapf(ErrUnknownHasher, "%q", cfg.Hasher)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrapf(ErrUnknownLogLevel, "%q", cfg.LogLevel)
	}
	return nil
}

func (cfg Config) shardingFunc() func(uintptr) uint32 {
	if fn, ok := util.ShardingFunc(cfg.Hasher); ok {
		return fn
	}
	return util.Murmur3Uintptr
}
