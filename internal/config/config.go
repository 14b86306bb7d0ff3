package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ExportsRoot       string   `toml:"exports_root"`
	DBPath            string   `toml:"db_path"`
	CacheDir          string   `toml:"cache_dir"`
	ListenAddr        string   `toml:"listen_addr"`
	MaxUploadMB       int      `toml:"max_upload_mb"`
	JoinContinuations bool     `toml:"join_continuations"`
	LenientDates      bool     `toml:"lenient_dates"`
	StopWords         []string `toml:"stop_words"`
	LogLevel          string   `toml:"log_level"`
}

// envOverrides mirrors Config for WCI_* variables. Pointers tell "unset"
// apart from zero values so the config file is only overridden when asked.
type envOverrides struct {
	ExportsRoot       *string  `env:"WCI_EXPORTS_ROOT"`
	DBPath            *string  `env:"WCI_DB_PATH"`
	CacheDir          *string  `env:"WCI_CACHE_DIR"`
	ListenAddr        *string  `env:"WCI_LISTEN_ADDR"`
	MaxUploadMB       *int     `env:"WCI_MAX_UPLOAD_MB"`
	JoinContinuations *bool    `env:"WCI_JOIN_CONTINUATIONS"`
	LenientDates      *bool    `env:"WCI_LENIENT_DATES"`
	StopWords         []string `env:"WCI_STOP_WORDS" envSeparator:","`
	LogLevel          *string  `env:"WCI_LOG_LEVEL"`
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Defaults returns the configuration used when no file or env var says otherwise.
func Defaults(home string) *Config {
	return &Config{
		ExportsRoot: filepath.Join(home, "WhatsAppExports"),
		DBPath:      filepath.Join(home, ".config", "wci", "wci.db"),
		CacheDir:    filepath.Join(home, ".cache", "wci"),
		ListenAddr:  "127.0.0.1:8080",
		MaxUploadMB: 64,
		LogLevel:    "info",
	}
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	if err := LoadDotEnv(".env", filepath.Join(home, ".config", "wci", ".env")); err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(home, ".config", "wci", "config.toml"), home)
}

// LoadDotEnv exports the variables of each existing dotenv file. Variables
// already set in the environment win, and earlier files win over later ones.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFrom layers defaults, the TOML file at cfgPath (if present) and WCI_*
// environment variables, in that order.
func LoadFrom(cfgPath, home string) (*Config, error) {
	cfg := Defaults(home)

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// expand ~ in paths
	cfg.ExportsRoot = expandHome(cfg.ExportsRoot, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)
	cfg.CacheDir = expandHome(cfg.CacheDir, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("environment variables are invalid: %w", err)
	}
	setString(&cfg.ExportsRoot, raw.ExportsRoot)
	setString(&cfg.DBPath, raw.DBPath)
	setString(&cfg.CacheDir, raw.CacheDir)
	setString(&cfg.ListenAddr, raw.ListenAddr)
	setString(&cfg.LogLevel, raw.LogLevel)
	if raw.MaxUploadMB != nil {
		cfg.MaxUploadMB = *raw.MaxUploadMB
	}
	if raw.JoinContinuations != nil {
		cfg.JoinContinuations = *raw.JoinContinuations
	}
	if raw.LenientDates != nil {
		cfg.LenientDates = *raw.LenientDates
	}
	if len(raw.StopWords) > 0 {
		cfg.StopWords = append(cfg.StopWords, raw.StopWords...)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) Validate() error {
	for _, req := range []struct{ name, value string }{
		{"exports_root", c.ExportsRoot},
		{"db_path", c.DBPath},
		{"cache_dir", c.CacheDir},
		{"listen_addr", c.ListenAddr},
	} {
		if strings.TrimSpace(req.value) == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", c.MaxUploadMB)
	}
	if !logLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
