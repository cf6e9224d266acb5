package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	YouTube  YouTubeConfig  `mapstructure:"youtube" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
	Quiz     QuizConfig     `mapstructure:"quiz" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat       string        `mapstructure:"log_format" validate:"required,oneof=json text auto"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
// For the sqlite driver URL is a file path.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=44640"`
	BCryptCost           int    `mapstructure:"bcrypt_cost" validate:"required,gte=4,lte=31"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string        `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string        `mapstructure:"model_name" validate:"required"`
	CallTimeout       time.Duration `mapstructure:"call_timeout" validate:"required,gt=0"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" validate:"required,gt=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0,lte=5"`
}

// YouTubeConfig configures the playlist metadata client.
type YouTubeConfig struct {
	APIKey   string `mapstructure:"api_key" validate:"required"`
	PageSize int64  `mapstructure:"page_size" validate:"required,gt=0,lte=50"`
}

// WorkerConfig controls the background enrichment workers.
type WorkerConfig struct {
	Count        int           `mapstructure:"count" validate:"required,gt=0,lte=64"`
	QueueSize    int           `mapstructure:"queue_size" validate:"required,gt=0"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" validate:"required,gt=0"`
	// RecoveryInterval enables a periodic recovery sweep. Zero means startup only.
	RecoveryInterval time.Duration `mapstructure:"recovery_interval" validate:"gte=0"`
}

// QuizConfig bounds quiz generation requests.
type QuizConfig struct {
	DefaultCount int `mapstructure:"default_count" validate:"required,gt=0,ltefield=MaxCount"`
	MaxCount     int `mapstructure:"max_count" validate:"required,gt=0,lte=100"`
}
