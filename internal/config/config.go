package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cuongbtq/swayam-be/internal/cache"
	"github.com/cuongbtq/swayam-be/internal/marketplace"
	"github.com/cuongbtq/swayam-be/shared/postgresql"
	"github.com/cuongbtq/swayam-be/shared/rabbitmq"
	"github.com/cuongbtq/swayam-be/shared/telemetry"
	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
	// MaxTrustScore is the upper bound of a trust score threshold
	MaxTrustScore = 100
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	RabbitMQ    RabbitMQConfig    `yaml:"rabbitmq"`
	Redis       RedisConfig       `yaml:"redis"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Logging     LoggingConfig     `yaml:"logging"`
	App         AppConfig         `yaml:"app"`
	Worker      WorkerConfig      `yaml:"worker"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Reconciler  ReconcilerConfig  `yaml:"reconciler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Enabled            bool             `yaml:"enabled"`
	Host               string           `yaml:"host"`
	Port               int              `yaml:"port"`
	User               string           `yaml:"user"`
	Password           string           `yaml:"password"`
	VHost              string           `yaml:"vhost"`
	Exchange           ExchangeConfig   `yaml:"exchange"`
	Queue              QueueConfig      `yaml:"queue"`
	RoutingKey         string           `yaml:"routing_key"`
	DeadLetterExchange string           `yaml:"dead_letter_exchange"`
	Connection         ConnectionConfig `yaml:"connection"`
	Publish            PublishConfig    `yaml:"publish"`
	Consumer           ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// RedisConfig holds the impact stats cache configuration
type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	StatsTTL  time.Duration `yaml:"stats_ttl"`
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	CollectorURL string  `yaml:"collector_url"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level            string `yaml:"level"`
	Format           string `yaml:"format"`
	Output           string `yaml:"output"`
	EnableCaller     bool   `yaml:"enable_caller"`
	EnableStackTrace bool   `yaml:"enable_stack_trace"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds reconciler worker pool configuration
type WorkerConfig struct {
	ID              string        `yaml:"id"`
	Concurrency     int           `yaml:"concurrency"`
	JobTimeout      time.Duration `yaml:"job_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MarketplaceConfig tunes the job application workflow
type MarketplaceConfig struct {
	DefaultMinTrustScore int           `yaml:"default_min_trust_score"`
	DefaultSafetyFee     float64       `yaml:"default_safety_fee"`
	ClaimRetries         int           `yaml:"claim_retries"`
	PolicyInsertRetries  int           `yaml:"policy_insert_retries"`
	RetryInterval        time.Duration `yaml:"retry_interval"`
	BackoffMultiplier    float64       `yaml:"backoff_multiplier"`
}

// ReconcilerConfig tunes the sweep for assignments missing a policy
type ReconcilerConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	BatchSize     int           `yaml:"batch_size"`
	GracePeriod   time.Duration `yaml:"grace_period"`
}

// Load reads the configuration file, expands ${VAR} references from the
// environment and fills defaults for unset workflow settings
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	defaults := marketplace.DefaultConfig()

	if c.Marketplace.DefaultMinTrustScore == 0 {
		c.Marketplace.DefaultMinTrustScore = defaults.DefaultMinTrustScore
	}
	if c.Marketplace.DefaultSafetyFee == 0 {
		c.Marketplace.DefaultSafetyFee = defaults.DefaultSafetyFee
	}
	if c.Marketplace.RetryInterval == 0 {
		c.Marketplace.RetryInterval = defaults.RetryInterval
	}
	if c.Marketplace.BackoffMultiplier == 0 {
		c.Marketplace.BackoffMultiplier = defaults.BackoffMultiplier
	}

	if c.Server.DefaultPageSize == 0 {
		c.Server.DefaultPageSize = 20
	}
	if c.Server.MaxPageSize == 0 {
		c.Server.MaxPageSize = 100
	}

	if c.Reconciler.BatchSize == 0 {
		c.Reconciler.BatchSize = 100
	}
}

// Validate checks the settings shared by every service
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	m := c.Marketplace
	if m.DefaultMinTrustScore < 0 || m.DefaultMinTrustScore > MaxTrustScore {
		return fmt.Errorf("invalid default_min_trust_score: %d (must be between 0 and %d)", m.DefaultMinTrustScore, MaxTrustScore)
	}

	if m.DefaultSafetyFee < 0 {
		return fmt.Errorf("default_safety_fee must not be negative")
	}

	if m.ClaimRetries < 0 || m.PolicyInsertRetries < 0 {
		return fmt.Errorf("marketplace retries must not be negative")
	}

	if m.BackoffMultiplier < 1 {
		return fmt.Errorf("marketplace backoff_multiplier must be at least 1")
	}

	if c.Telemetry.Enabled && c.Telemetry.CollectorURL == "" {
		return fmt.Errorf("telemetry collector_url is required when telemetry is enabled")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}

// ValidateAPIConfig checks the settings the API service needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.Validate(); err != nil {
		return err
	}

	if c.RabbitMQ.Enabled {
		if err := c.validateRabbitMQ(); err != nil {
			return err
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}

	return nil
}

// ValidateWorkerConfig checks the settings the reconciler needs
func (c *Config) ValidateWorkerConfig() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.JobTimeout <= 0 {
		return fmt.Errorf("worker job_timeout must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	if c.Reconciler.SweepInterval <= 0 {
		return fmt.Errorf("reconciler sweep_interval must be greater than 0")
	}

	if c.Reconciler.GracePeriod < 0 {
		return fmt.Errorf("reconciler grace_period must not be negative")
	}

	return nil
}

// ClientConfig converts the section to the PostgreSQL client configuration
func (d *DatabaseConfig) ClientConfig() *postgresql.Config {
	return &postgresql.Config{
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

// ClientConfig converts the section to the RabbitMQ client configuration
func (r *RabbitMQConfig) ClientConfig() *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               r.Host,
		Port:               r.Port,
		User:               r.User,
		Password:           r.Password,
		VHost:              r.VHost,
		ExchangeName:       r.Exchange.Name,
		ExchangeType:       r.Exchange.Type,
		ExchangeDurable:    r.Exchange.Durable,
		ExchangeAutoDelete: r.Exchange.AutoDelete,
		QueueName:          r.Queue.Name,
		QueueDurable:       r.Queue.Durable,
		QueueAutoDelete:    r.Queue.AutoDelete,
		QueueExclusive:     r.Queue.Exclusive,
		RoutingKey:         r.RoutingKey,
		DeadLetterExchange: r.DeadLetterExchange,
		RetryAttempts:      r.Connection.RetryAttempts,
		RetryInterval:      r.Connection.RetryInterval,
		Heartbeat:          r.Connection.Heartbeat,
		ConnectionTimeout:  r.Connection.ConnectionTimeout,
		PublishRetries:     r.Publish.RetryAttempts,
		PublishRetryDelay:  r.Publish.RetryInterval,
		PublishBackoffMult: r.Publish.BackoffMultiplier,
	}
}

// CacheOptions converts the section to cache options
func (r *RedisConfig) CacheOptions() cache.Options {
	opts := cache.DefaultOptions()
	opts.RedisURL = r.Addr
	opts.RedisPassword = r.Password
	opts.RedisDB = r.DB
	if r.KeyPrefix != "" {
		opts.KeyPrefix = r.KeyPrefix
	}
	if r.StatsTTL > 0 {
		opts.DefaultTTL = r.StatsTTL
	}
	return opts
}

// TracerConfig converts the section to the tracer configuration
func (t *TelemetryConfig) TracerConfig(app AppConfig) telemetry.Config {
	return telemetry.Config{
		Enabled:        t.Enabled,
		ServiceName:    app.Name,
		ServiceVersion: app.Version,
		CollectorURL:   t.CollectorURL,
		SampleRatio:    t.SampleRatio,
	}
}

// ServiceConfig converts the section to the workflow configuration
func (m *MarketplaceConfig) ServiceConfig() marketplace.Config {
	return marketplace.Config{
		DefaultMinTrustScore: m.DefaultMinTrustScore,
		DefaultSafetyFee:     m.DefaultSafetyFee,
		ClaimRetries:         m.ClaimRetries,
		PolicyInsertRetries:  m.PolicyInsertRetries,
		RetryInterval:        m.RetryInterval,
		BackoffMultiplier:    m.BackoffMultiplier,
	}
}
