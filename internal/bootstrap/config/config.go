package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"qualtrack/internal/bootstrap/logging"
	"qualtrack/internal/errs"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Events      EventsConfig      `mapstructure:"events"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Tagging     TaggingConfig     `mapstructure:"tagging"`
	Audit       AuditConfig       `mapstructure:"audit"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type CacheConfig struct {
	// Backend is database, redis or none.
	Backend    string        `mapstructure:"backend"`
	SummaryTTL time.Duration `mapstructure:"summary_ttl"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type AttachmentsConfig struct {
	// Backend is database or minio.
	Backend  string      `mapstructure:"backend"`
	MaxBytes int64       `mapstructure:"max_bytes"`
	Minio    MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

type EventsConfig struct {
	// Backend is nats or none.
	Backend string     `mapstructure:"backend"`
	NATS    NATSConfig `mapstructure:"nats"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type HTTPConfig struct {
	Addr string    `mapstructure:"addr"`
	JWT  JWTConfig `mapstructure:"jwt"`
}

type JWTConfig struct {
	// Secret enables bearer authentication when set.
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type TaggingConfig struct {
	SchemeFile string `mapstructure:"scheme_file"`
}

type AuditConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))
	loadDotEnv(logCtx)

	v := viper.New()
	setDefaults(logCtx, v)

	v.SetEnvPrefix("QT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.String("attachments_backend", cfg.Attachments.Backend),
		slog.String("events_backend", cfg.Events.Backend),
	)

	return cfg, nil
}

// Validate checks backend selections and the settings each backend needs.
func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	switch strings.ToLower(c.Cache.Backend) {
	case "database", "none":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported cache.backend %q", c.Cache.Backend)
	}

	switch strings.ToLower(c.Attachments.Backend) {
	case "database":
	case "minio":
		if c.Attachments.Minio.Endpoint == "" || c.Attachments.Minio.Bucket == "" {
			return errors.New("attachments.minio.endpoint and bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("unsupported attachments.backend %q", c.Attachments.Backend)
	}
	if c.Attachments.MaxBytes <= 0 {
		return errors.New("attachments.max_bytes must be positive")
	}

	switch strings.ToLower(c.Events.Backend) {
	case "none":
	case "nats":
		if c.Events.NATS.URL == "" {
			return errors.New("events.nats.url is required for the nats backend")
		}
	default:
		return fmt.Errorf("unsupported events.backend %q", c.Events.Backend)
	}

	if c.Audit.DefaultLimit <= 0 || c.Audit.DefaultLimit > 500 {
		return errors.New("audit.default_limit must be between 1 and 500")
	}
	return nil
}

// loadDotEnv exports a local .env before viper reads the environment. Variables already set win.
func loadDotEnv(ctx context.Context) {
	path := strings.TrimSpace(os.Getenv("QT_DOTENV"))
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		logging.Warn(ctx, "load dotenv failed", slog.String("path", path), slog.Any("err", errs.Loggable(err)))
		return
	}
	logging.Info(ctx, "dotenv loaded", slog.String("path", path))
}

func setDefaults(ctx context.Context, v *viper.Viper) {
	if ctx == nil {
		return
	}

	v.SetDefault("app.name", "qualtrack")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".qualtrack/qualtrack.sqlite")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.max_idle_conns", 0)
	v.SetDefault("cache.backend", "database")
	v.SetDefault("cache.summary_ttl", "5m")
	v.SetDefault("cache.redis.addr", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "qualtrack:")
	v.SetDefault("attachments.backend", "database")
	v.SetDefault("attachments.max_bytes", 5*1024*1024)
	v.SetDefault("attachments.minio.endpoint", "")
	v.SetDefault("attachments.minio.access_key", "")
	v.SetDefault("attachments.minio.secret_key", "")
	v.SetDefault("attachments.minio.bucket", "qualtrack")
	v.SetDefault("attachments.minio.use_ssl", false)
	v.SetDefault("attachments.minio.prefix", "")
	v.SetDefault("events.backend", "none")
	v.SetDefault("events.nats.url", "")
	v.SetDefault("events.nats.subject", "qualtrack.equipment.status")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.jwt.secret", "")
	v.SetDefault("http.jwt.issuer", "")
	v.SetDefault("tagging.scheme_file", "")
	v.SetDefault("audit.default_limit", 50)
}
