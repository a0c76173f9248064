package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Simplici0/meshquote/internal/estimate"
)

const (
	defaultEnv             = "dev"
	defaultDBPath          = "./dev.db"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultMaxUploadBytes  = 64 << 20
	defaultMaxTriangles    = 5_000_000
	defaultEstimateTimeout = 10 * time.Second

	// FileEnvVar names the optional TOML file read before the environment.
	FileEnvVar = "MESHQUOTE_CONFIG"
)

// Duration is a time.Duration that decodes from strings such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds application configuration sourced from an optional TOML file
// and environment variables. Environment variables win.
type Config struct {
	Env             string               `toml:"env"`
	Port            string               `toml:"port"`
	DBPath          string               `toml:"db_path"`
	LogLevel        string               `toml:"log_level"`
	AutoMigrate     bool                 `toml:"auto_migrate"`
	MaxUploadBytes  int64                `toml:"max_upload_bytes"`
	MaxTriangles    int                  `toml:"max_triangles"`
	EstimateTimeout Duration             `toml:"estimate_timeout"`
	Print           estimate.PrintConfig `toml:"print"`
}

// IsDev reports whether the service runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Env:             defaultEnv,
		Port:            defaultPort,
		DBPath:          defaultDBPath,
		LogLevel:        defaultLogLevel,
		AutoMigrate:     true,
		MaxUploadBytes:  defaultMaxUploadBytes,
		MaxTriangles:    defaultMaxTriangles,
		EstimateTimeout: Duration{defaultEstimateTimeout},
		Print:           estimate.DefaultConfig(),
	}
}

// Load reads the dotenv file, the optional TOML file and the environment and
// returns a validated Config.
func Load() (Config, error) {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	if _, err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	autoMigrateSet := false
	if path := os.Getenv(FileEnvVar); path != "" {
		var err error
		if autoMigrateSet, err = loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	// Migrations run on startup only in dev unless asked for explicitly.
	if !autoMigrateSet && os.Getenv("AUTO_MIGRATE") == "" {
		cfg.AutoMigrate = cfg.IsDev()
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes the TOML file at path over cfg and reports whether it set
// auto_migrate.
func loadFile(path string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("decode config file %s: %w", path, err)
	}

	var probe struct {
		AutoMigrate *bool `toml:"auto_migrate"`
	}
	if err := toml.Unmarshal(data, &probe); err != nil {
		return false, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return probe.AutoMigrate != nil, nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("APP_ENV", &cfg.Env)
	setString("PORT", &cfg.Port)
	setString("DB_PATH", &cfg.DBPath)
	setString("LOG_LEVEL", &cfg.LogLevel)

	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = b
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("MAX_TRIANGLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MAX_TRIANGLES: %w", err)
		}
		cfg.MaxTriangles = n
	}
	if v := os.Getenv("ESTIMATE_TIMEOUT"); v != "" {
		if err := cfg.EstimateTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("parse ESTIMATE_TIMEOUT: %w", err)
		}
	}
	return nil
}

func (c Config) validate() error {
	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	if c.MaxTriangles < 0 {
		return errors.New("max triangles must not be negative")
	}
	if c.EstimateTimeout.Duration < 0 {
		return errors.New("estimate timeout must not be negative")
	}
	if err := c.Print.Validate(); err != nil {
		return fmt.Errorf("default print settings: %w", err)
	}
	return nil
}
