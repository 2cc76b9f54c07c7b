package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/danmuck/ledgerctl/internal/hashing"
	"github.com/danmuck/ledgerctl/internal/protocol"
	"github.com/danmuck/ledgerctl/internal/protocol/frame"
	"github.com/danmuck/ledgerctl/internal/protocol/schema"
	"github.com/pelletier/go-toml/v2"
)

const EnvPrefix = "LEDGERD_"

type ServerConfig struct {
	ID                string   `toml:"id" env:"ID"`
	Addr              string   `toml:"addr" env:"ADDR"`
	CorsOrigins       []string `toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	AuthToken         string   `toml:"auth_token" env:"AUTH_TOKEN"`
	MaxBatch          int      `toml:"max_batch" env:"MAX_BATCH"`
	RateLimit         float64  `toml:"rate_limit" env:"RATE_LIMIT"`
	RateBurst         int      `toml:"rate_burst" env:"RATE_BURST"`
	Hash              string   `toml:"hash" env:"HASH"`
	Runtime           string   `toml:"runtime" env:"RUNTIME"`
	MaxExtrinsicBytes int      `toml:"max_extrinsic_bytes" env:"MAX_EXTRINSIC_BYTES"`
	Versions          []int    `toml:"versions" env:"VERSIONS" envSeparator:","`
}

type DecodeConfig struct {
	Hash              string `toml:"hash"`
	WithHash          bool   `toml:"with_hash"`
	Runtime           string `toml:"runtime"`
	MaxExtrinsicBytes int    `toml:"max_extrinsic_bytes"`
	Versions          []int  `toml:"versions"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ID:        "ledgerd",
		Addr:      ":9200",
		MaxBatch:  1024,
		RateLimit: 50,
		RateBurst: 100,
		Hash:      hashing.DefaultName,
	}
}

func DefaultDecodeConfig() DecodeConfig {
	return DecodeConfig{Hash: hashing.DefaultName}
}

// LoadServerConfig reads path (skipped when empty), applies defaults and
// LEDGERD_* environment overrides, then validates.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if strings.TrimSpace(path) != "" {
		if err := loadToml(path, &cfg); err != nil {
			return ServerConfig{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return ServerConfig{}, err
	}
	applyServerDefaults(&cfg)
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func LoadDecodeConfig(path string) (DecodeConfig, error) {
	cfg := DefaultDecodeConfig()
	if strings.TrimSpace(path) != "" {
		if err := loadToml(path, &cfg); err != nil {
			return DecodeConfig{}, err
		}
	}
	if strings.TrimSpace(cfg.Hash) == "" {
		cfg.Hash = hashing.DefaultName
	}
	if err := ValidateDecodeConfig(cfg); err != nil {
		return DecodeConfig{}, err
	}
	return cfg, nil
}

func ApplyEnv(cfg *ServerConfig) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config env failed: %w", err)
	}
	return nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func applyServerDefaults(cfg *ServerConfig) {
	def := DefaultServerConfig()
	if strings.TrimSpace(cfg.ID) == "" {
		cfg.ID = def.ID
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxBatch == 0 {
		cfg.MaxBatch = def.MaxBatch
	}
	if strings.TrimSpace(cfg.Hash) == "" {
		cfg.Hash = def.Hash
	}
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("server config missing id")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if cfg.MaxBatch < 0 {
		return fmt.Errorf("server config max_batch must be >= 0")
	}
	if cfg.RateLimit < 0 || cfg.RateBurst < 0 {
		return fmt.Errorf("server config rate limits must be >= 0")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		return fmt.Errorf("server config rate_burst required when rate_limit is set")
	}
	if _, err := hashing.Lookup(cfg.Hash); err != nil {
		return fmt.Errorf("server config hash invalid: %w", err)
	}
	return validateCodec(cfg.MaxExtrinsicBytes, cfg.Versions)
}

func ValidateDecodeConfig(cfg DecodeConfig) error {
	if _, err := hashing.Lookup(cfg.Hash); err != nil {
		return fmt.Errorf("decode config hash invalid: %w", err)
	}
	return validateCodec(cfg.MaxExtrinsicBytes, cfg.Versions)
}

func validateCodec(maxBytes int, versions []int) error {
	if maxBytes < 0 {
		return fmt.Errorf("max_extrinsic_bytes must be >= 0")
	}
	for i, v := range versions {
		if v < 0 || v > 0x7f {
			return fmt.Errorf("versions[%d] out of range: %d", i, v)
		}
	}
	return nil
}

// BuildRuntime assembles the codec both hosts decode with. An empty
// runtimePath uses the built-in call registry; zero maxBytes keeps the
// default frame limit.
func BuildRuntime(runtimePath string, maxBytes int, versions []int) (*protocol.Runtime, error) {
	if err := validateCodec(maxBytes, versions); err != nil {
		return nil, err
	}
	var registry *schema.Registry
	if strings.TrimSpace(runtimePath) != "" {
		loaded, err := schema.LoadFile(runtimePath)
		if err != nil {
			return nil, err
		}
		registry = loaded
	}

	var opts []protocol.Option
	if maxBytes > 0 {
		opts = append(opts, protocol.WithLimits(frame.Limits{MaxExtrinsicBytes: uint64(maxBytes)}))
	}
	if len(versions) > 0 {
		vs := make([]uint8, len(versions))
		for i, v := range versions {
			vs[i] = uint8(v)
		}
		opts = append(opts, protocol.WithVersions(vs...))
	}
	return protocol.NewRuntime(registry, opts...), nil
}
