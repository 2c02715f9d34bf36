package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/pkg/logging"
)

// EnvPrefix 是环境变量前缀：ITEMCF_STORE_ADDR -> store.addr
const EnvPrefix = "ITEMCF_"

// AppConfig 是应用配置。
//
// 优先级：环境变量 > 配置文件 > 默认值
type AppConfig struct {
	Log      logging.Config `koanf:"log"`
	Store    StoreConfig    `koanf:"store"`
	Model    ModelConfig    `koanf:"model"`
	Scoring  ScoringConfig  `koanf:"scoring"`
	Pipeline PipelineConfig `koanf:"pipeline"`
}

// StoreConfig 评分存储配置
type StoreConfig struct {
	Backend   string `koanf:"backend"` // memory / redis
	Addr      string `koanf:"addr"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// ModelConfig 离线建模配置
type ModelConfig struct {
	Workers int `koanf:"workers"` // 0 = runtime.NumCPU()
}

// ScoringConfig 打分配置
type ScoringConfig struct {
	NeighborhoodSize int    `koanf:"neighborhood_size"`
	Fallback         string `koanf:"fallback"` // none / item_mean
}

// PipelineConfig Pipeline 配置文件路径（可选）
type PipelineConfig struct {
	Path string `koanf:"path"`
}

// Backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Backend:   BackendMemory,
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "ratings",
		},
		Scoring: ScoringConfig{
			NeighborhoodSize: core.Defaults.DefaultNeighborhoodSize(),
			Fallback:         "none",
		},
	}
}

// Load 加载应用配置：默认值 → YAML 文件（path 为空时跳过）→ ITEMCF_* 环境变量。
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultAppConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envKeys 是环境变量到配置路径的映射（去掉前缀、转小写之后）。
// 字段名本身含下划线，因此不能简单地把 '_' 替换为 '.'。
var envKeys = map[string]string{
	"log_level":                 "log.level",
	"log_format":                "log.format",
	"log_caller":                "log.caller",
	"store_backend":             "store.backend",
	"store_addr":                "store.addr",
	"store_db":                  "store.db",
	"store_key_prefix":          "store.key_prefix",
	"model_workers":             "model.workers",
	"scoring_neighborhood_size": "scoring.neighborhood_size",
	"scoring_fallback":          "scoring.fallback",
	"pipeline_path":             "pipeline.path",
}

// envTransformFunc: ITEMCF_SCORING_NEIGHBORHOOD_SIZE -> scoring.neighborhood_size
// 未知变量返回空串，被 koanf 忽略。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envKeys[key]
}

// Validate 校验配置。
func (c *AppConfig) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Addr == "" {
			return fmt.Errorf("%w: store.addr is required for redis", core.ErrConfigInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store.backend %q", core.ErrConfigInvalid, c.Store.Backend)
	}

	switch c.Scoring.Fallback {
	case "", "none", "item_mean":
	default:
		return fmt.Errorf("%w: unknown scoring.fallback %q", core.ErrConfigInvalid, c.Scoring.Fallback)
	}

	if c.Scoring.NeighborhoodSize < 0 {
		return fmt.Errorf("%w: scoring.neighborhood_size must be >= 0", core.ErrConfigInvalid)
	}
	if c.Model.Workers < 0 {
		return fmt.Errorf("%w: model.workers must be >= 0", core.ErrConfigInvalid)
	}
	return nil
}
