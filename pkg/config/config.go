package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the front-desk service
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Triage scorer configuration
	Triage TriageConfig `mapstructure:"triage"`

	// Email notification configuration
	Email EmailConfig `mapstructure:"email"`

	// Doctor assignment configuration
	Assignment AssignmentConfig `mapstructure:"assignment"`

	// Background job configuration
	Jobs JobsConfig `mapstructure:"jobs"`

	// Auth configuration
	Auth AuthConfig `mapstructure:"auth"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// TriageConfig holds configuration for the LLM triage scorer
type TriageConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	DefaultScore   int    `mapstructure:"default_score"`
}

// EmailConfig holds configuration for the transactional email sender
type EmailConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	From           string `mapstructure:"from"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// AssignmentConfig holds doctor assignment configuration
type AssignmentConfig struct {
	MaxRetries int `mapstructure:"max_retries"`
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	RetrySchedule      string `mapstructure:"retry_schedule"`
	InactivitySchedule string `mapstructure:"inactivity_schedule"`
	InactivityMinutes  int    `mapstructure:"inactivity_minutes"`
	RetryBatchSize     int    `mapstructure:"retry_batch_size"`
}

// AuthConfig holds API auth configuration; auth is disabled when the
// secret is empty
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/frontdesk")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "frontdesk")
	viper.SetDefault("database.user", "frontdesk")
	viper.SetDefault("database.ssl_mode", "require")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// Triage defaults
	viper.SetDefault("triage.model", "gpt-4")
	viper.SetDefault("triage.timeout_seconds", 10)
	viper.SetDefault("triage.default_score", 5)

	// Email defaults
	viper.SetDefault("email.endpoint", "https://api.resend.com/emails")
	viper.SetDefault("email.from", "noreply@medisync.com")
	viper.SetDefault("email.timeout_seconds", 10)

	// Assignment defaults
	viper.SetDefault("assignment.max_retries", 3)

	// Job defaults
	viper.SetDefault("jobs.enabled", true)
	viper.SetDefault("jobs.retry_schedule", "@every 1m")
	viper.SetDefault("jobs.inactivity_schedule", "@every 5m")
	viper.SetDefault("jobs.inactivity_minutes", 30)
	viper.SetDefault("jobs.retry_batch_size", 20)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Triage.APIKey = apiKey
	}

	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		config.Email.APIKey = apiKey
	}

	if jwtSecret := os.Getenv("JWT_SECRET_KEY"); jwtSecret != "" {
		config.Auth.JWTSecret = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.Password == "" {
		return fmt.Errorf("database password is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Triage.DefaultScore < 1 || config.Triage.DefaultScore > 10 {
		return fmt.Errorf("invalid default triage score: %d", config.Triage.DefaultScore)
	}

	if config.Assignment.MaxRetries < 1 {
		return fmt.Errorf("assignment max_retries must be at least 1")
	}

	return nil
}
