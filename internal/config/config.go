package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConnection `mapstructure:"database"`
	Sync      SyncConfig         `mapstructure:"sync"`
	Breaker   BreakerConfig      `mapstructure:"breaker"`
	Platforms PlatformsConfig    `mapstructure:"platforms"`
	Scheduler SchedulerConfig    `mapstructure:"scheduler"`
	Server    ServerConfig       `mapstructure:"server"`
	Logging   LoggingConfig      `mapstructure:"logging"`
}

type DatabaseConnection struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type SyncConfig struct {
	Workers        int              `mapstructure:"workers"`
	Strategy       string           `mapstructure:"strategy"` // skip | truncate | use_fallback
	IncludeDeleted bool             `mapstructure:"include_deleted"`
	IgnoreFields   []string         `mapstructure:"ignore_fields"`
	MaxRetries     int              `mapstructure:"max_retries"`
	RetryBase      string           `mapstructure:"retry_base"`
	RetryMaxDelay  string           `mapstructure:"retry_max_delay"`
	Truncation     TruncationConfig `mapstructure:"truncation"`
	FallbackAd     FallbackAdConfig `mapstructure:"fallback_ad"`
}

func (s SyncConfig) GetRetryBase() time.Duration {
	d, err := time.ParseDuration(s.RetryBase)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func (s SyncConfig) GetRetryMaxDelay() time.Duration {
	d, err := time.ParseDuration(s.RetryMaxDelay)
	if err != nil {
		return time.Hour
	}
	return d
}

type TruncationConfig struct {
	Headline             bool `mapstructure:"headline"`
	Description          bool `mapstructure:"description"`
	PreserveWordBoundary bool `mapstructure:"preserve_word_boundary"`
}

// FallbackAdConfig is the static replacement ad used by the use_fallback
// strategy. Static content only, no variable substitution.
type FallbackAdConfig struct {
	Headline     string `mapstructure:"headline"`
	Description  string `mapstructure:"description"`
	DisplayURL   string `mapstructure:"display_url"`
	FinalURL     string `mapstructure:"final_url"`
	CallToAction string `mapstructure:"call_to_action"`
}

type BreakerConfig struct {
	FailureThreshold    int    `mapstructure:"failure_threshold"`
	ResetTimeout        string `mapstructure:"reset_timeout"`
	HalfOpenMaxAttempts int    `mapstructure:"half_open_max_attempts"`
}

func (b BreakerConfig) GetResetTimeout() time.Duration {
	d, err := time.ParseDuration(b.ResetTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

type PlatformsConfig struct {
	Reddit RedditConfig `mapstructure:"reddit"`
	Mock   MockConfig   `mapstructure:"mock"`
}

type RedditConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BaseURL     string `mapstructure:"base_url"`
	AccessToken string `mapstructure:"access_token"`
	Timeout     string `mapstructure:"timeout"`
}

func (r RedditConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

type MockConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Latency     string  `mapstructure:"latency"`
	FailureRate float64 `mapstructure:"failure_rate"`
	Verbose     bool    `mapstructure:"verbose"`
}

func (m MockConfig) GetLatency() time.Duration {
	d, _ := time.ParseDuration(m.Latency)
	return d
}

type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Interval string `mapstructure:"interval"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	Host         string   `mapstructure:"host"`
	AuthToken    string   `mapstructure:"auth_token"`
	ReadTimeout  string   `mapstructure:"read_timeout"`
	WriteTimeout string   `mapstructure:"write_timeout"`
	CorsOrigins  []string `mapstructure:"cors_origins"`
}

func (s ServerConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(s.ReadTimeout)
	return d
}

func (s ServerConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(s.WriteTimeout)
	return d
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads the YAML config file and applies CSS_* environment
// variable overrides (e.g. CSS_DATABASE_PASSWORD).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("CSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("sync.workers", 4)
	v.SetDefault("sync.strategy", "skip")
	v.SetDefault("sync.max_retries", 5)
	v.SetDefault("sync.retry_base", "30s")
	v.SetDefault("sync.retry_max_delay", "1h")
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout", "60s")
	v.SetDefault("breaker.half_open_max_attempts", 3)
	v.SetDefault("scheduler.interval", "@every 1m")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
