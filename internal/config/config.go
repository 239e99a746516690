package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the FlashDeck server.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	AI       AIConfig
	Import   ImportConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	URL             string
	MigrationsDir   string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional. An empty URL disables caching.
type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
}

type AIConfig struct {
	Mode             string
	InferenceTimeout time.Duration
	OpenRouter       OpenRouterConfig
}

// OpenRouterConfig configures the live backend. Any OpenAI-compatible
// chat-completions endpoint works via BaseURL.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type ImportConfig struct {
	MaxCards  int
	Retention time.Duration
}

const (
	ModeMock = "mock"
	ModeLive = "live"
)

var validModes = map[string]bool{
	ModeMock: true,
	ModeLive: true,
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file (FLASHDECK_ENV_FILE, default ".env") is loaded first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := loadEnvFile(envString("FLASHDECK_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("FLASHDECK_PORT", 8080),
			Env:  envString("FLASHDECK_ENV", "development"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MigrationsDir:   envString("DATABASE_MIGRATIONS_DIR", "migrations"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:    os.Getenv("JWT_SECRET"),
			TokenTTL:     envDuration("JWT_TTL", 24*time.Hour),
			SecureCookie: envString("FLASHDECK_ENV", "development") == "production",
		},
		AI: AIConfig{
			Mode:             strings.ToLower(envString("FLASHCARD_LLM_MODE", ModeMock)),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			OpenRouter: OpenRouterConfig{
				APIKey:  os.Getenv("OPENROUTER_API_KEY"),
				Model:   envString("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
				BaseURL: envString("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			},
		},
		Import: ImportConfig{
			MaxCards:  envInt("IMPORT_MAX_CARDS", 20),
			Retention: envDuration("IMPORT_JOB_RETENTION", 30*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}

	if !validModes[c.AI.Mode] {
		return fmt.Errorf("FLASHCARD_LLM_MODE must be one of mock, live; got %q", c.AI.Mode)
	}
	if c.AI.Mode == ModeLive {
		base := c.AI.OpenRouter.BaseURL
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			return fmt.Errorf("OPENROUTER_BASE_URL must start with http:// or https://, got %q", base)
		}
	}
	if c.AI.InferenceTimeout <= 0 {
		return fmt.Errorf("AI_INFERENCE_TIMEOUT_SECS must be positive")
	}

	if c.Import.MaxCards <= 0 {
		return fmt.Errorf("IMPORT_MAX_CARDS must be positive, got %d", c.Import.MaxCards)
	}
	if c.Import.Retention <= 0 {
		return fmt.Errorf("IMPORT_JOB_RETENTION must be positive, got %s", c.Import.Retention)
	}

	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
