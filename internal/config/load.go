package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "EDU"

// keys lists every setting so that viper binds its environment variable even
// when no default or config file value exists.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.log_format",
	"server.shutdown_timeout",
	"database.driver",
	"database.url",
	"database.max_open_conns",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"auth.bcrypt_cost",
	"llm.gemini_api_key",
	"llm.model_name",
	"llm.call_timeout",
	"llm.requests_per_minute",
	"llm.max_retries",
	"youtube.api_key",
	"youtube.page_size",
	"worker.count",
	"worker.queue_size",
	"worker.retry_backoff",
	"worker.recovery_interval",
	"quiz.default_count",
	"quiz.max_count",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("llm.model_name", "gemini-2.5-flash")
	v.SetDefault("llm.call_timeout", "2m")
	v.SetDefault("llm.requests_per_minute", 30)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("youtube.page_size", 50)
	v.SetDefault("worker.count", 2)
	v.SetDefault("worker.queue_size", 256)
	v.SetDefault("worker.retry_backoff", "10s")
	v.SetDefault("worker.recovery_interval", "1m")
	v.SetDefault("quiz.default_count", 20)
	v.SetDefault("quiz.max_count", 50)
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the config file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct validation over cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
