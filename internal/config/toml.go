package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Unset keys stay nil.
type FileConfig struct {
	Server    ServerFile    `toml:"server"`
	Database  DatabaseFile  `toml:"database"`
	Redis     RedisFile     `toml:"redis"`
	Auth      AuthFile      `toml:"auth"`
	RateLimit RateLimitFile `toml:"rate-limit"`
}

type ServerFile struct {
	Port *string `toml:"port"`
}

type DatabaseFile struct {
	Driver   *string `toml:"driver"`
	Path     *string `toml:"path"`
	Host     *string `toml:"host"`
	Port     *string `toml:"port"`
	User     *string `toml:"user"`
	Password *string `toml:"password"`
	Name     *string `toml:"name"`
}

type RedisFile struct {
	Enabled  *bool   `toml:"enabled"`
	Host     *string `toml:"host"`
	Port     *string `toml:"port"`
	Password *string `toml:"password"`
	DB       *int    `toml:"db"`
}

type AuthFile struct {
	Secret   *string `toml:"secret"`
	Issuer   *string `toml:"issuer"`
	TokenTTL *string `toml:"token-ttl"`
}

type RateLimitFile struct {
	Requests *int    `toml:"requests"`
	Window   *string `toml:"window"`
}

// LoadFile reads a TOML config from the given path. Missing file is not an error.
func LoadFile(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
