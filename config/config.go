package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const EnvPrefix = "university"

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NotificationsConfig selects and tunes the notification transport.
type NotificationsConfig struct {
	Driver          string        `mapstructure:"driver"` // redis, memory or none
	Queue           string        `mapstructure:"queue"`
	RedisURL        string        `mapstructure:"redis_url"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	MaxRetries      int           `mapstructure:"max_retries"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	MemoryCapacity  int           `mapstructure:"memory_capacity"`
	ReceiveTimeout  time.Duration `mapstructure:"receive_timeout"`
	BatchSize       int           `mapstructure:"batch_size"`
	ReadMarkTTL     time.Duration `mapstructure:"read_mark_ttl"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	WarnDepth       int64         `mapstructure:"warn_depth"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
	MetricsPath       string `mapstructure:"metrics_path"`
	Namespace         string `mapstructure:"namespace"`
}

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring"`
}

// envOverrides are read from UNIVERSITY_* variables and win over the file.
type envOverrides struct {
	Port               int    `envconfig:"PORT"`
	DatabaseDriver     string `envconfig:"DB_DRIVER"`
	DatabaseHost       string `envconfig:"DB_HOST"`
	DatabasePort       int    `envconfig:"DB_PORT"`
	DatabaseUser       string `envconfig:"DB_USER"`
	DatabasePassword   string `envconfig:"DB_PASSWORD"`
	DatabaseName       string `envconfig:"DB_NAME"`
	DatabasePath       string `envconfig:"DB_PATH"`
	NotificationDriver string `envconfig:"NOTIFICATIONS_DRIVER"`
	NotificationQueue  string `envconfig:"NOTIFICATIONS_QUEUE"`
	RedisURL           string `envconfig:"REDIS_URL"`
	LogLevel           string `envconfig:"LOG_LEVEL"`
	LogFormat          string `envconfig:"LOG_FORMAT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.max_header_bytes", 1<<20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "university")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("notifications.driver", "redis")
	v.SetDefault("notifications.queue", "university:notifications")
	v.SetDefault("notifications.redis_url", "redis://localhost:6379/0")
	v.SetDefault("notifications.pool_size", 10)
	v.SetDefault("notifications.connect_attempts", 3)
	v.SetDefault("notifications.memory_capacity", 1024)
	v.SetDefault("notifications.receive_timeout", time.Second)
	v.SetDefault("notifications.batch_size", 10)
	v.SetDefault("notifications.read_mark_ttl", 24*time.Hour)
	v.SetDefault("notifications.monitor_interval", 15*time.Second)
	v.SetDefault("notifications.warn_depth", 10000)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.namespace", "university")
}

// LoadConfig reads config.yml from the usual locations, or from path when it
// is set. A missing file in the search locations is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")           // current directory
		v.AddConfigPath("./config")    // config subdirectory
		v.AddConfigPath("/app/config") // container config directory
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}

	return &config, config.Validate()
}

func applyEnv(config *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	setInt(&config.Server.Port, env.Port)
	setString(&config.Database.Driver, env.DatabaseDriver)
	setString(&config.Database.Host, env.DatabaseHost)
	setInt(&config.Database.Port, env.DatabasePort)
	setString(&config.Database.User, env.DatabaseUser)
	setString(&config.Database.Password, env.DatabasePassword)
	setString(&config.Database.Name, env.DatabaseName)
	setString(&config.Database.Path, env.DatabasePath)
	setString(&config.Notifications.Driver, env.NotificationDriver)
	setString(&config.Notifications.Queue, env.NotificationQueue)
	setString(&config.Notifications.RedisURL, env.RedisURL)
	setString(&config.Logging.Level, env.LogLevel)
	setString(&config.Logging.Format, env.LogFormat)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate rejects settings the application cannot start with. The
// notification transport is never a reason to refuse startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Notifications.Queue == "" {
		c.Notifications.Queue = "university:notifications"
	}
	return nil
}
