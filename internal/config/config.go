package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	App    AppConfig
	Server ServerConfig
	Store  StoreConfig
	MySQL  MySQLConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Kafka  KafkaConfig
	Notify NotifyConfig
	Engine EngineConfig
	OTel   OTelConfig
}

type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Backend string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// KafkaConfig configures the notification sink. No brokers means
// notifications are only logged.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

type NotifyConfig struct {
	Workers   int
	QueueSize int
}

type EngineConfig struct {
	PurchaseMaxAttempts  int
	PurchaseRetryDelay   time.Duration
	AcceptMaxAttempts    int
	AcceptRetryDelay     time.Duration
	AcceptRejectSiblings bool
}

type OTelConfig struct {
	Enabled       bool
	ServiceName   string
	CollectorAddr string
	SampleRatio   float64
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	// A missing .env is fine; the environment may carry everything.
	_ = v.ReadInConfig()

	return load(v)
}

// LoadWithPath loads configuration from a specific env file.
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "marketplace")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "60s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "5s")

	v.SetDefault("STORE_BACKEND", BackendMySQL)

	v.SetDefault("MYSQL_DSN", "root:root@tcp(localhost:3306)/marketplace")
	v.SetDefault("MYSQL_MAX_OPEN_CONNS", 50)
	v.SetDefault("MYSQL_MAX_IDLE_CONNS", 25)
	v.SetDefault("MYSQL_CONN_MAX_LIFETIME", "5m")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 100)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "marketplace")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "marketplace.notifications")
	v.SetDefault("KAFKA_CLIENT_ID", "marketplace")

	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 10000)

	v.SetDefault("PURCHASE_MAX_ATTEMPTS", 5)
	v.SetDefault("PURCHASE_RETRY_DELAY", "5ms")
	v.SetDefault("ACCEPT_MAX_ATTEMPTS", 5)
	v.SetDefault("ACCEPT_RETRY_DELAY", "10ms")
	v.SetDefault("ACCEPT_REJECT_SIBLINGS", false)

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "marketplace")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
}

func bindConfig(v *viper.Viper, cfg *Config) {
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")

	cfg.Server.HTTPAddr = v.GetString("HTTP_ADDR")
	cfg.Server.GRPCAddr = v.GetString("GRPC_ADDR")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")
	cfg.Server.ShutdownTimeout = v.GetDuration("SERVER_SHUTDOWN_TIMEOUT")

	cfg.Store.Backend = strings.ToLower(v.GetString("STORE_BACKEND"))

	cfg.MySQL.DSN = v.GetString("MYSQL_DSN")
	cfg.MySQL.MaxOpenConns = v.GetInt("MYSQL_MAX_OPEN_CONNS")
	cfg.MySQL.MaxIdleConns = v.GetInt("MYSQL_MAX_IDLE_CONNS")
	cfg.MySQL.ConnMaxLifetime = v.GetDuration("MYSQL_CONN_MAX_LIFETIME")

	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")

	cfg.JWT.Secret = v.GetString("JWT_SECRET")
	cfg.JWT.Issuer = v.GetString("JWT_ISSUER")

	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.Topic = v.GetString("KAFKA_TOPIC")
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")

	cfg.Notify.Workers = v.GetInt("NOTIFY_WORKERS")
	cfg.Notify.QueueSize = v.GetInt("NOTIFY_QUEUE_SIZE")

	cfg.Engine.PurchaseMaxAttempts = v.GetInt("PURCHASE_MAX_ATTEMPTS")
	cfg.Engine.PurchaseRetryDelay = v.GetDuration("PURCHASE_RETRY_DELAY")
	cfg.Engine.AcceptMaxAttempts = v.GetInt("ACCEPT_MAX_ATTEMPTS")
	cfg.Engine.AcceptRetryDelay = v.GetDuration("ACCEPT_RETRY_DELAY")
	cfg.Engine.AcceptRejectSiblings = v.GetBool("ACCEPT_REJECT_SIBLINGS")

	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")
}

// splitList parses a comma separated env value, skipping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	switch c.Store.Backend {
	case BackendMySQL:
		if c.MySQL.DSN == "" {
			return fmt.Errorf("MYSQL_DSN is required for the mysql backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.Engine.PurchaseMaxAttempts <= 0 {
		return fmt.Errorf("invalid purchase max attempts: %d", c.Engine.PurchaseMaxAttempts)
	}
	if c.Engine.AcceptMaxAttempts <= 0 {
		return fmt.Errorf("invalid accept max attempts: %d", c.Engine.AcceptMaxAttempts)
	}
	if c.Engine.PurchaseRetryDelay < 0 || c.Engine.AcceptRetryDelay < 0 {
		return fmt.Errorf("retry delays must not be negative")
	}

	if c.Notify.Workers <= 0 || c.Notify.QueueSize <= 0 {
		return fmt.Errorf("notification workers and queue size must be positive")
	}

	if c.OTel.SampleRatio < 0 || c.OTel.SampleRatio > 1 {
		return fmt.Errorf("invalid otel sample ratio: %v", c.OTel.SampleRatio)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
