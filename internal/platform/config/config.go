package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers for the Reactions table.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

// Content sources for the daily feed blob.
const (
	SourceFile  = "file"
	SourceRedis = "redis"
)

// Config 与 config.yaml 的结构一一对应
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Reactions ReactionsConfig `mapstructure:"reactions"`
	Content   ContentConfig   `mapstructure:"content"`
	Health    HealthConfig    `mapstructure:"health"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode        string     `mapstructure:"mode"`
	Address     string     `mapstructure:"address"`
	RoutePrefix string     `mapstructure:"routePrefix"`
	Cors        CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects and configures the backing table store.
type StorageConfig struct {
	Driver   string         `mapstructure:"driver"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ReactionsConfig tunes the counter's optimistic concurrency loop.
type ReactionsConfig struct {
	MaxAttempts int           `mapstructure:"maxAttempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ContentConfig locates the daily content.json blob.
type ContentConfig struct {
	Source     string        `mapstructure:"source"`
	Dir        string        `mapstructure:"dir"`
	Container  string        `mapstructure:"container"`
	BlobName   string        `mapstructure:"blobName"`
	MaxRetries int           `mapstructure:"maxRetries"`
	RetryDelay time.Duration `mapstructure:"retryDelay"`
	// Timeout bounds one shared download including its retries.
	Timeout time.Duration `mapstructure:"timeout"`
}

type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.routePrefix", "")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.redis.address", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.sqlite.path", "reactions.db")
	// AutomaticEnv 只覆盖已知的键，没有默认值的键也要注册
	v.SetDefault("storage.postgres.dsn", "")

	v.SetDefault("reactions.maxAttempts", 5)
	v.SetDefault("reactions.timeout", 5*time.Second)

	v.SetDefault("content.source", SourceFile)
	v.SetDefault("content.dir", "./content")
	v.SetDefault("content.container", "aurora-content")
	v.SetDefault("content.blobName", "content.json")
	v.SetDefault("content.maxRetries", 3)
	v.SetDefault("content.retryDelay", 200*time.Millisecond)
	v.SetDefault("content.timeout", 30*time.Second)

	v.SetDefault("health.interval", 15*time.Second)
	v.SetDefault("health.timeout", 2*time.Second)
}

// LoadConfig 查找、加载和解析配置文件。
// 配置文件是可选的：找不到 config.yaml 时使用默认值和环境变量。
func LoadConfig(paths ...string) (*Config, error) {
	// .env 只用于本地开发，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// 允许通过环境变量覆盖配置，例如 STORAGE_DRIVER=redis
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis, DriverSqlite, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.Postgres.DSN == "" {
		return errors.New("storage.postgres.dsn is required for the postgres driver")
	}
	switch c.Content.Source {
	case SourceFile, SourceRedis:
	default:
		return fmt.Errorf("unknown content source %q", c.Content.Source)
	}
	if c.Reactions.MaxAttempts < 1 {
		return fmt.Errorf("reactions.maxAttempts must be at least 1, got %d", c.Reactions.MaxAttempts)
	}
	if c.Content.MaxRetries < 0 {
		return fmt.Errorf("content.maxRetries must not be negative, got %d", c.Content.MaxRetries)
	}
	if c.Content.RetryDelay < 0 {
		return fmt.Errorf("content.retryDelay must not be negative, got %s", c.Content.RetryDelay)
	}
	if c.Content.Timeout <= 0 {
		return fmt.Errorf("content.timeout must be positive, got %s", c.Content.Timeout)
	}
	if c.Reactions.Timeout < 0 {
		return fmt.Errorf("reactions.timeout must not be negative, got %s", c.Reactions.Timeout)
	}
	if c.Health.Interval <= 0 {
		return fmt.Errorf("health.interval must be positive, got %s", c.Health.Interval)
	}
	if c.Health.Timeout <= 0 {
		return fmt.Errorf("health.timeout must be positive, got %s", c.Health.Timeout)
	}
	return nil
}
