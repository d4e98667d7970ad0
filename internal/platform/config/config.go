package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
	Retention RetentionConfig `mapstructure:"retention"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type WebhooksConfig struct {
	// ToleranceSeconds is the default freshness window for signed
	// timestamps. Endpoints may override it; 0 disables the check.
	ToleranceSeconds int64 `mapstructure:"tolerance_seconds"`

	// Scheme is the signature scheme tag expected in inbound headers.
	Scheme string `mapstructure:"scheme"`

	// SignatureHeader is the HTTP header the signature arrives in.
	SignatureHeader string `mapstructure:"signature_header"`

	// MaxBodyBytes caps inbound payload size.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

type RetentionConfig struct {
	EventMaxAge   time.Duration `mapstructure:"event_max_age"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`

	// RotationGrace is how long a replaced endpoint secret keeps verifying
	// after a rotation.
	RotationGrace time.Duration `mapstructure:"rotation_grace"`
}

type RateLimitConfig struct {
	IngestPerMinute   int `mapstructure:"ingest_per_minute"`
	APIReadPerMinute  int `mapstructure:"api_read_per_minute"`
	APIWritePerMinute int `mapstructure:"api_write_per_minute"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "60s")

	viper.SetDefault("database.max_connections", 10)

	viper.SetDefault("auth.access_token_ttl", "15m")
	viper.SetDefault("auth.refresh_token_ttl", "720h")

	viper.SetDefault("webhooks.tolerance_seconds", 300)
	viper.SetDefault("webhooks.scheme", "v1")
	viper.SetDefault("webhooks.signature_header", "Hookgate-Signature")
	viper.SetDefault("webhooks.max_body_bytes", 1<<20)

	viper.SetDefault("retention.event_max_age", "720h")
	viper.SetDefault("retention.prune_interval", "1h")
	viper.SetDefault("retention.rotation_grace", "24h")

	viper.SetDefault("rate_limit.ingest_per_minute", 600)
	viper.SetDefault("rate_limit.api_read_per_minute", 1000)
	viper.SetDefault("rate_limit.api_write_per_minute", 100)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}
