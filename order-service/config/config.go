package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/draftea/order-saga/shared/saga"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	ServiceName string    `mapstructure:"service_name"`
	Env         string    `mapstructure:"env"`
	Port        string    `mapstructure:"port"`
	LogLevel    string    `mapstructure:"log_level"`
	Storage     Storage   `mapstructure:"storage"`
	Database    Database  `mapstructure:"database"`
	Redis       Redis     `mapstructure:"redis"`
	AWS         AWS       `mapstructure:"aws"`
	Telemetry   Telemetry `mapstructure:"telemetry"`
	Saga        Saga      `mapstructure:"saga"`
	Inventory   Inventory `mapstructure:"inventory"`
}

type Storage struct {
	Driver string `mapstructure:"driver"`
}

type Database struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type Redis struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	ClaimTTL  time.Duration `mapstructure:"claim_ttl"`
}

type AWS struct {
	Enabled         bool   `mapstructure:"enabled"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	EndpointSNS     string `mapstructure:"endpoint_sns"`
	EndpointSQS     string `mapstructure:"endpoint_sqs"`
	SNSTopicArn     string `mapstructure:"sns_topic_arn"`
	SQSQueueURL     string `mapstructure:"sqs_queue_url"`
	SQSWorkers      int    `mapstructure:"sqs_workers"`
}

type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type Saga struct {
	PaymentLimit       float64       `mapstructure:"payment_limit"`
	StepDelay          time.Duration `mapstructure:"step_delay"`
	ActivityTimeout    time.Duration `mapstructure:"activity_timeout"`
	Retry              Retry         `mapstructure:"retry"`
	TransientErrorRate float64       `mapstructure:"transient_error_rate"`
	TimeoutRate        float64       `mapstructure:"timeout_rate"`
}

type Retry struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// Inventory seeds the in-memory stock. Item ids are lower-cased by viper.
type Inventory struct {
	Seed map[string]int `mapstructure:"seed"`
}

// ReadConfig loads <ENVIRONMENT>.json from this package directory, then
// applies ORDER_* environment overrides (ORDER_SAGA_PAYMENT_LIMIT, ...)
func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}
	return Load(filepath.Dir(filename), getConfigName())
}

// Load reads name.json from dir on top of the defaults
func Load(dir, name string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("ORDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &config, nil
}

func getConfigName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

func setDefaults(v *viper.Viper) {
	// Service defaults
	v.SetDefault("service_name", "order-service")
	v.SetDefault("env", getEnv("ENV", "local"))
	v.SetDefault("port", getEnv("PORT", "8080"))
	v.SetDefault("log_level", "info")
	v.SetDefault("storage.driver", StorageMemory)

	// Database defaults
	v.SetDefault("database.url", os.Getenv("DATABASE_URL"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "order_saga")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "order-saga:claim:")
	v.SetDefault("redis.claim_ttl", "168h")

	// AWS defaults
	v.SetDefault("aws.enabled", false)
	v.SetDefault("aws.access_key_id", os.Getenv("AWS_ACCESS_KEY_ID"))
	v.SetDefault("aws.secret_access_key", os.Getenv("AWS_SECRET_ACCESS_KEY"))
	v.SetDefault("aws.region", getEnv("AWS_DEFAULT_REGION", "us-east-1"))
	v.SetDefault("aws.endpoint_sns", getEnv("AWS_ENDPOINT_URL_SNS", "http://localhost:4566"))
	v.SetDefault("aws.endpoint_sqs", getEnv("AWS_ENDPOINT_URL_SQS", "http://localhost:4566"))
	v.SetDefault("aws.sns_topic_arn", getEnv("SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:000000000000:order-events"))
	v.SetDefault("aws.sqs_queue_url", getEnv("SQS_QUEUE_URL", "http://localhost:4566/000000000000/order-requests"))
	v.SetDefault("aws.sqs_workers", 10)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "")

	// Saga defaults
	v.SetDefault("saga.payment_limit", 1000)
	v.SetDefault("saga.step_delay", "0s")
	v.SetDefault("saga.activity_timeout", "30s")
	v.SetDefault("saga.retry.initial_interval", "1s")
	v.SetDefault("saga.retry.multiplier", 2.0)
	v.SetDefault("saga.retry.max_interval", "10s")
	v.SetDefault("saga.retry.max_attempts", 3)
	v.SetDefault("saga.transient_error_rate", 0.0)
	v.SetDefault("saga.timeout_rate", 0.0)

	v.SetDefault("inventory.seed", map[string]int{})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Saga.PaymentLimit <= 0 {
		return errors.New("saga.payment_limit must be positive")
	}
	if c.Saga.StepDelay < 0 || c.Saga.ActivityTimeout < 0 {
		return errors.New("saga durations must not be negative")
	}
	for name, rate := range map[string]float64{
		"saga.transient_error_rate": c.Saga.TransientErrorRate,
		"saga.timeout_rate":         c.Saga.TimeoutRate,
	} {
		if rate < 0 || rate > 1 {
			return errors.Errorf("%s must be between 0 and 1", name)
		}
	}
	if c.Saga.TransientErrorRate+c.Saga.TimeoutRate > 1 {
		return errors.New("fault rates must not add up to more than 1")
	}
	return errors.Wrap(c.RetryPolicy().Validate(), "saga.retry")
}

func (c *Config) RetryPolicy() saga.RetryPolicy {
	return saga.RetryPolicy{
		InitialInterval: c.Saga.Retry.InitialInterval,
		Multiplier:      c.Saga.Retry.Multiplier,
		MaxInterval:     c.Saga.Retry.MaxInterval,
		MaxAttempts:     c.Saga.Retry.MaxAttempts,
	}
}

// GetDatabaseURL returns database.url when set, otherwise builds one from the parts
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
