// Package config loads process configuration from an optional YAML file,
// a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the YAML file read when no path is given.
const DefaultPath = "config.yaml"

// DefaultDatabaseURL is used when no connection string is configured and
// the database is not marked as required.
const DefaultDatabaseURL = "todo.db"

// Config is the process configuration.
type Config struct {
	Server struct {
		Port           int    `yaml:"port"`
		AllowedOrigins string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		URL      string `yaml:"url"`
		Required bool   `yaml:"required"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"database"`

	RateLimit struct {
		Max       int           `yaml:"max"`
		Window    time.Duration `yaml:"window"`
		RedisAddr string        `yaml:"redis_addr"`
	} `yaml:"rate_limit"`

	Log struct {
		Level string `yaml:"level"`
		// Access enables the HTTP access log.
		Access bool `yaml:"access"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 3000
	cfg.Server.AllowedOrigins = "*"
	cfg.RateLimit.Window = time.Minute
	cfg.Log.Level = "info"
	cfg.Log.Access = true
	return &cfg
}

// Load builds the configuration. A missing YAML file is not an error.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(expandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("error parsing config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Database.URL == "" && !cfg.Database.Required {
		cfg.Database.URL = DefaultDatabaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that must stop the process.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database url is required: set DATABASE_URL or MONGODB_URI")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.RateLimit.Max < 0 {
		return fmt.Errorf("invalid rate limit max: %d", c.RateLimit.Max)
	}
	if c.RateLimit.Max > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate limit window: %s", c.RateLimit.Window)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT value: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	} else if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("DATABASE_REQUIRED"); v != "" {
		required, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_REQUIRED value: %w", err)
		}
		c.Database.Required = required
	}
	if os.Getenv("DB_DEBUG") == "true" {
		c.Database.Debug = true
	}

	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_MAX value: %w", err)
		}
		c.RateLimit.Max = limit
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		window, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_WINDOW value: %w", err)
		}
		c.RateLimit.Window = window
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RateLimit.RedisAddr = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_ACCESS"); v != "" {
		access, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_ACCESS value: %w", err)
		}
		c.Log.Access = access
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} placeholders with values from the environment.
// Unknown placeholders and bare $NAME text are left untouched.
func expandEnv(content string) string {
	return placeholder.ReplaceAllStringFunc(content, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}
