// Package config loads the application configuration and bootstraps the
// global logger.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Identity IdentityConfig `yaml:"identity" mapstructure:"identity"`
	Geo      GeoConfig      `yaml:"geo" mapstructure:"geo"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// APIConfig holds backend credentials and endpoint.
type APIConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	JWT      string `yaml:"jwt" mapstructure:"jwt"`
	Username string `yaml:"username" mapstructure:"username"`
}

// IdentityConfig configures the local participant identity store.
type IdentityConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// GeoConfig configures the position subscription filter.
type GeoConfig struct {
	MinIntervalSecs   int     `yaml:"min_interval_secs" mapstructure:"min_interval_secs"`
	MinDistanceMeters float64 `yaml:"min_distance_meters" mapstructure:"min_distance_meters"`
}

// ServerConfig configures the dev backend server.
type ServerConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from storypath.yaml (optional) and STORYPATH_*
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("storypath")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "storypath"))
	}

	// Environment
	v.SetEnvPrefix("STORYPATH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	// Empty defaults keep every key visible to AutomaticEnv during Unmarshal.
	v.SetDefault("api.base_url", "https://0b5ff8b0.uqcloud.net/api")
	v.SetDefault("api.jwt", "")
	v.SetDefault("api.username", "")
	v.SetDefault("identity.db_path", defaultIdentityPath())
	v.SetDefault("geo.min_interval_secs", 5)
	v.SetDefault("geo.min_distance_meters", 5)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.driver", "sqlite")
	v.SetDefault("server.database_url", "storypath-dev.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func defaultIdentityPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "storypath-identity.db"
	}
	return filepath.Join(home, ".config", "storypath", "identity.db")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
