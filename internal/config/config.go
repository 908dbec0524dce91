package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingSecret = errors.New("JWT_SECRET must be set to serve the API")

type Config struct {
	Port string

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	RateLimit       int
	RateLimitWindow time.Duration
}

func Defaults() Config {
	return Config{
		Port:            "8080",
		DBDriver:        "sqlite",
		DBPath:          DefaultDBPath(),
		DBHost:          "localhost",
		DBPort:          "5432",
		DBUser:          "blocktracker",
		DBName:          "blocktracker",
		RedisHost:       "localhost",
		RedisPort:       "6379",
		JWTIssuer:       "blocktracker",
		TokenTTL:        30 * 24 * time.Hour,
		RateLimit:       100,
		RateLimitWindow: time.Minute,
	}
}

// Load layers defaults, the TOML file at path, a .env file in the working directory and
// the process environment, each overriding the previous one.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := cfg.applyFile(file); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[CONFIG] Ignoring unreadable .env: %v", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyFile(f FileConfig) error {
	setString(&c.Port, f.Server.Port)

	setString(&c.DBDriver, f.Database.Driver)
	setString(&c.DBPath, f.Database.Path)
	setString(&c.DBHost, f.Database.Host)
	setString(&c.DBPort, f.Database.Port)
	setString(&c.DBUser, f.Database.User)
	setString(&c.DBPassword, f.Database.Password)
	setString(&c.DBName, f.Database.Name)

	if f.Redis.Enabled != nil {
		c.RedisEnabled = *f.Redis.Enabled
	}
	setString(&c.RedisHost, f.Redis.Host)
	setString(&c.RedisPort, f.Redis.Port)
	setString(&c.RedisPassword, f.Redis.Password)
	if f.Redis.DB != nil {
		c.RedisDB = *f.Redis.DB
	}

	setString(&c.JWTSecret, f.Auth.Secret)
	setString(&c.JWTIssuer, f.Auth.Issuer)
	if f.Auth.TokenTTL != nil {
		d, err := time.ParseDuration(*f.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("auth.token-ttl: %w", err)
		}
		c.TokenTTL = d
	}

	if f.RateLimit.Requests != nil {
		c.RateLimit = *f.RateLimit.Requests
	}
	if f.RateLimit.Window != nil {
		d, err := time.ParseDuration(*f.RateLimit.Window)
		if err != nil {
			return fmt.Errorf("rate-limit.window: %w", err)
		}
		c.RateLimitWindow = d
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)

	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)

	c.RedisEnabled = getEnvBool("REDIS_ENABLED", c.RedisEnabled)
	c.RedisHost = getEnv("REDIS_HOST", c.RedisHost)
	c.RedisPort = getEnv("REDIS_PORT", c.RedisPort)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.RateLimit = getEnvInt("RATE_LIMIT", c.RateLimit)

	var err error
	if c.TokenTTL, err = getEnvDuration("TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimitWindow); err != nil {
		return err
	}

	return nil
}

// DSN returns the data source for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBPath
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// ValidateServer checks the settings that only the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimit)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
