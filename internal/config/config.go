package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
)

// ErrMissingPlatform is returned when the platform URL or anon key is not set.
var ErrMissingPlatform = errors.New("config: PLATFORM_URL and PLATFORM_ANON_KEY are required")

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Platform  PlatformConfig
	Session   SessionConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Billing   BillingConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	AllowOrigin  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PlatformConfig struct {
	URL        string
	AnonKey    string
	ServiceKey string
	JWTSecret  string
	JWKSURL    string
	Timeout    time.Duration
	// RedirectURL is where emailed confirmation and recovery links return to.
	RedirectURL string
}

// SessionConfig selects where the signed-in session is persisted.
type SessionConfig struct {
	Backend string // memory | redis | mongo | keyring
	Key     string
	TTL     time.Duration

	KeyringService  string
	KeyringDir      string
	KeyringPassword string
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Prefix   string
}

type BillingConfig struct {
	ReturnParam     string
	ReturnValue     string
	NoiseRetryDelay time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and an optional .env file.
// envFiles default to ".env" in the working directory.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			logger.Warnf("could not read %s: %v", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5174")
	v.SetDefault("SERVER_HOST", "127.0.0.1")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("PLATFORM_TIMEOUT", 15)
	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("SESSION_KEY", "current")
	v.SetDefault("SESSION_TTL_HOURS", 24*30)
	v.SetDefault("KEYRING_SERVICE", "linguaflow-companion")
	v.SetDefault("MONGODB_DATABASE", "linguaflow_companion")
	v.SetDefault("MONGODB_COLLECTION", "sessions")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PREFIX", "companion:session:")
	v.SetDefault("BILLING_RETURN_PARAM", "checkout")
	v.SetDefault("BILLING_RETURN_VALUE", "success")
	v.SetDefault("BILLING_NOISE_RETRY_SECONDS", 10)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	keyringDir := v.GetString("KEYRING_DIR")
	if keyringDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			keyringDir = filepath.Join(home, ".linguaflow", "keyring")
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			AllowOrigin:  v.GetString("SERVER_ALLOW_ORIGIN"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Platform: PlatformConfig{
			URL:         strings.TrimRight(v.GetString("PLATFORM_URL"), "/"),
			AnonKey:     v.GetString("PLATFORM_ANON_KEY"),
			ServiceKey:  os.Getenv("PLATFORM_SERVICE_KEY"),
			JWTSecret:   os.Getenv("PLATFORM_JWT_SECRET"),
			JWKSURL:     v.GetString("PLATFORM_JWKS_URL"),
			Timeout:     time.Duration(v.GetInt("PLATFORM_TIMEOUT")) * time.Second,
			RedirectURL: v.GetString("PLATFORM_REDIRECT_URL"),
		},
		Session: SessionConfig{
			Backend:         strings.ToLower(v.GetString("SESSION_BACKEND")),
			Key:             v.GetString("SESSION_KEY"),
			TTL:             time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			KeyringService:  v.GetString("KEYRING_SERVICE"),
			KeyringDir:      keyringDir,
			KeyringPassword: os.Getenv("KEYRING_PASSWORD"),
		},
		MongoDB: MongoDBConfig{
			URI:        v.GetString("MONGODB_URI"),
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Prefix:   v.GetString("REDIS_PREFIX"),
		},
		Billing: BillingConfig{
			ReturnParam:     v.GetString("BILLING_RETURN_PARAM"),
			ReturnValue:     v.GetString("BILLING_RETURN_VALUE"),
			NoiseRetryDelay: time.Duration(v.GetInt("BILLING_NOISE_RETRY_SECONDS")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	if cfg.Platform.URL == "" || cfg.Platform.AnonKey == "" {
		return nil, ErrMissingPlatform
	}
	switch cfg.Session.Backend {
	case "memory", "redis", "mongo", "keyring":
	default:
		return nil, fmt.Errorf("config: unknown SESSION_BACKEND %q", cfg.Session.Backend)
	}
	if cfg.Session.Backend == "redis" && cfg.Redis.Host == "" {
		return nil, errors.New("config: SESSION_BACKEND=redis needs REDIS_HOST")
	}
	if cfg.Session.Backend == "mongo" && cfg.MongoDB.URI == "" {
		return nil, errors.New("config: SESSION_BACKEND=mongo needs MONGODB_URI")
	}
	if cfg.Platform.JWTSecret == "" && cfg.Platform.JWKSURL == "" {
		logger.Warnf("PLATFORM_JWT_SECRET and PLATFORM_JWKS_URL are not set; restored sessions are trusted as stored")
	}

	return cfg, nil
}

// Addr is the bridge listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// RedisAddr is empty when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return c.Redis.Host + ":" + c.Redis.Port
}
