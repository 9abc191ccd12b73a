package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Bocha     BochaConfig     `yaml:"bocha" mapstructure:"bocha"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	BrainMap  BrainMapConfig  `yaml:"brain_map" mapstructure:"brain_map"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// RegistryConfig configures the local registry backend.
type RegistryConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BochaConfig holds Bocha web-search API settings.
type BochaConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Count       int    `yaml:"count" mapstructure:"count"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds LLM API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PipelineConfig configures resolution behavior.
type PipelineConfig struct {
	LocalBaseConfidence  float64 `yaml:"local_base_confidence" mapstructure:"local_base_confidence"`
	SearchBaseConfidence float64 `yaml:"search_base_confidence" mapstructure:"search_base_confidence"`
	SearchRetries        int     `yaml:"search_retries" mapstructure:"search_retries"`
	MinFuzzyBaseRunes    int     `yaml:"min_fuzzy_base_runes" mapstructure:"min_fuzzy_base_runes"`
}

// BrainMapConfig points at an optional YAML override of the static
// region/industry brain tables.
type BrainMapConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BatchConfig configures batch resolution.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Port            int `yaml:"port" mapstructure:"port"`
	RatePerMinute   int `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	RateBurst       int `yaml:"rate_burst" mapstructure:"rate_burst"`
	ShutdownTimeout int `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CITYBRAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("registry.driver", "sqlite")
	v.SetDefault("registry.database_url", "citybrain.db")
	v.SetDefault("bocha.base_url", "https://api.bochaai.com/v1/web-search")
	v.SetDefault("bocha.count", 10)
	v.SetDefault("bocha.timeout_secs", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("pipeline.local_base_confidence", 0.95)
	v.SetDefault("pipeline.search_base_confidence", 0.5)
	v.SetDefault("pipeline.search_retries", 2)
	v.SetDefault("pipeline.min_fuzzy_base_runes", 2)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_minute", 60)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
