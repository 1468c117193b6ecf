// Package config loads the pool's ambient configuration from flags, a
// config file and the environment, grounded on the teacher's dependency set
// (spf13/viper, spf13/pflag, spf13/cast are all direct teacher dependencies
// whose own config lives in hand-rolled eth/config.go-style structs) —
// cmd/mempoolctl is this module's concrete place for a flag/file/env merge.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"golang.org/x/time/rate"

	"github.com/luxfi/mempool/gossip"
	"github.com/luxfi/mempool/pool"
)

// Config is the merged, validated configuration for one mempool instance.
type Config struct {
	MaxCount             int
	MaxBytes             int64
	MaxPerSender         int
	ImportsExternal      bool
	BroadcastTrackerSize int
	VerifyConcurrency    int
	ImportRateLimit      float64
	ImportRateBurst      int
}

// PoolConfig projects Config onto pool.Config.
func (c Config) PoolConfig() pool.Config {
	return pool.Config{
		MaxCount:          c.MaxCount,
		MaxBytes:          c.MaxBytes,
		MaxPerSender:      c.MaxPerSender,
		VerifyConcurrency: c.VerifyConcurrency,
	}
}

// GossipConfig projects Config onto gossip.Config.
func (c Config) GossipConfig() gossip.Config {
	limit := rate.Limit(c.ImportRateLimit)
	if c.ImportRateLimit <= 0 {
		limit = 0
	}
	return gossip.Config{
		ImportsExternal:      c.ImportsExternal,
		BroadcastTrackerSize: c.BroadcastTrackerSize,
		ImportRateLimit:      limit,
		ImportRateBurst:      c.ImportRateBurst,
	}
}

// defaults mirror the original Polkadot pool's unbounded-by-default stance
// (spec.md §6): a fresh Config admits anything until the operator sets a
// bound explicitly.
var defaults = map[string]any{
	"max_count":                     0,
	"max_bytes":                     int64(0),
	"max_per_sender":                0,
	"imports_external_transactions": true,
	"broadcast_tracker_size":        1024,
	"verify_concurrency":            8,
	"import_rate_limit":             0.0,
	"import_rate_burst":             0,
}

// BindFlags registers this package's flags on fs, so that Load can merge
// them, once fs has been parsed, with a config file and the environment
// through one viper instance (the teacher's own dependency set carries
// viper/pflag/cast for exactly this purpose, even though its own subsystems
// don't use them). cmd/mempoolctl registers these flags but does not parse
// fs; it applies its own --max-count/--max-bytes/--max-per-sender flags on
// top of Load's result.
func BindFlags(fs *pflag.FlagSet) {
	fs.Int("max-count", 0, "maximum resident transaction count (0 = unbounded)")
	fs.Int64("max-bytes", 0, "maximum resident byte total (0 = unbounded)")
	fs.Int("max-per-sender", 0, "optional per-sender soft cap (0 = unbounded)")
	fs.Bool("imports-external-transactions", true, "accept gossiped transactions from peers")
	fs.Int("broadcast-tracker-size", 1024, "LRU capacity for the gossip broadcast-ack tracker")
	fs.Int("verify-concurrency", 8, "maximum concurrent verifications per Submit batch")
	fs.Float64("import-rate-limit", 0, "gossip import rate limit in transactions/sec (0 = unbounded)")
	fs.Int("import-rate-burst", 0, "gossip import rate limit burst size")
}

// Load merges defaults, an optional config file at path, MEMPOOL_-prefixed
// environment variables and fs's bound flags, in ascending priority.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix("mempool")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	if fs != nil {
		// Flags are named with hyphens, config keys with underscores: bind
		// each flag under its underscored key so the lookups below see it.
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("config: binding flags: %w", bindErr)
		}
	}

	cfg := Config{
		MaxCount:             v.GetInt("max_count"),
		MaxBytes:             v.GetInt64("max_bytes"),
		MaxPerSender:         v.GetInt("max_per_sender"),
		ImportsExternal:      v.GetBool("imports_external_transactions"),
		BroadcastTrackerSize: v.GetInt("broadcast_tracker_size"),
		VerifyConcurrency:    v.GetInt("verify_concurrency"),
		ImportRateLimit:      cast.ToFloat64(v.Get("import_rate_limit")),
		ImportRateBurst:      v.GetInt("import_rate_burst"),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxCount < 0 || c.MaxBytes < 0 || c.MaxPerSender < 0 {
		return fmt.Errorf("config: bounds must not be negative")
	}
	if c.VerifyConcurrency < 0 {
		return fmt.Errorf("config: verify_concurrency must not be negative")
	}
	if c.ImportRateLimit < 0 || c.ImportRateBurst < 0 {
		return fmt.Errorf("config: import rate settings must not be negative")
	}
	return nil
}
