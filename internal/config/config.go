package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	// JWT verifies tokens minted by the external auth service. An empty secret disables auth.
	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Redis struct {
		URL string `yaml:"url" env:"REDIS_URL"`
	} `yaml:"redis"`

	Queue struct {
		Backend     string   `yaml:"backend" env:"QUEUE_BACKEND"`
		Workers     int      `yaml:"workers" env:"QUEUE_WORKERS"`
		BufferSize  int      `yaml:"buffer_size" env:"QUEUE_BUFFER_SIZE"`
		MaxRetry    int      `yaml:"max_retry" env:"QUEUE_MAX_RETRY"`
		QueueNames  []string `yaml:"queue_names" env:"QUEUE_NAMES"`
		TaskTimeout string   `yaml:"task_timeout" env:"QUEUE_TASK_TIMEOUT"`
	} `yaml:"queue"`

	Cache struct {
		Backend  string `yaml:"backend" env:"CACHE_BACKEND"`
		AdminTTL string `yaml:"admin_ttl" env:"CACHE_ADMIN_TTL"`
	} `yaml:"cache"`

	RateLimit struct {
		Enabled bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		RPS     float64 `yaml:"rps" env:"RATE_LIMIT_RPS"`
		Burst   int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
		IdleTTL string  `yaml:"idle_ttl" env:"RATE_LIMIT_IDLE_TTL"`
	} `yaml:"rate_limit"`

	Retention struct {
		Enabled bool   `yaml:"enabled" env:"RETENTION_ENABLED"`
		Cron    string `yaml:"cron" env:"RETENTION_CRON"`
		Period  string `yaml:"period" env:"RETENTION_PERIOD"`
	} `yaml:"retention"`

	Seed struct {
		AdminEmail     string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword  string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
		AdminFirstName string `yaml:"admin_first_name" env:"SEED_ADMIN_FIRST_NAME"`
		AdminLastName  string `yaml:"admin_last_name" env:"SEED_ADMIN_LAST_NAME"`
	} `yaml:"seed"`
}

// Queue and cache backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// LoadConfig loads configuration from a .env file, a YAML file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env file is fine, the process environment is used as is
	_ = godotenv.Load()

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "handbook"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.Issuer = "handbook.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Queue.Backend = BackendMemory
	config.Queue.Workers = 4
	config.Queue.BufferSize = 1024
	config.Queue.MaxRetry = 3
	config.Queue.QueueNames = []string{"notifications"}
	config.Queue.TaskTimeout = "30s"

	config.Cache.Backend = BackendMemory
	config.Cache.AdminTTL = "30s"

	config.RateLimit.Enabled = true
	config.RateLimit.RPS = 20
	config.RateLimit.Burst = 40
	config.RateLimit.IdleTTL = "10m"

	config.Retention.Enabled = false
	config.Retention.Cron = "0 3 * * *"
	config.Retention.Period = "2160h"

	config.Seed.AdminEmail = "admin@handbook.local"
	config.Seed.AdminFirstName = "School"
	config.Seed.AdminLastName = "Administrator"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	durations := map[string]string{
		"server shutdown timeout":     config.Server.ShutdownTimeout,
		"database conn max lifetime":  config.Database.ConnMaxLifetime,
		"JWT access token expiration": config.JWT.AccessTokenExpiration,
		"queue task timeout":          config.Queue.TaskTimeout,
		"cache admin ttl":             config.Cache.AdminTTL,
		"rate limit idle ttl":         config.RateLimit.IdleTTL,
		"retention period":            config.Retention.Period,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch strings.ToLower(config.Queue.Backend) {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unsupported queue backend %q", config.Queue.Backend)
	}

	switch strings.ToLower(config.Cache.Backend) {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unsupported cache backend %q", config.Cache.Backend)
	}

	if (config.UsesRedisQueue() || config.UsesRedisCache()) && config.Redis.URL == "" {
		return fmt.Errorf("redis url is required when a redis backend is selected")
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("queue workers must be positive")
	}

	if config.RateLimit.Enabled && (config.RateLimit.RPS <= 0 || config.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if config.Retention.Enabled && !gronx.IsValid(config.Retention.Cron) {
		return fmt.Errorf("invalid retention cron expression %q", config.Retention.Cron)
	}

	return nil
}

// UsesRedisQueue reports whether notification events go through asynq
func (c *Config) UsesRedisQueue() bool {
	return strings.EqualFold(c.Queue.Backend, BackendRedis)
}

// UsesRedisCache reports whether the identity cache is stored in redis
func (c *Config) UsesRedisCache() bool {
	return strings.EqualFold(c.Cache.Backend, BackendRedis)
}

// AuthEnabled reports whether bearer tokens are verified on the API
func (c *Config) AuthEnabled() bool {
	return c.JWT.Secret != ""
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
