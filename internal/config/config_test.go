package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFrom_DefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadFrom(filepath.Join(home, "missing.toml"), home)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "WhatsAppExports"), cfg.ExportsRoot)
	require.Equal(t, filepath.Join(home, ".config", "wci", "wci.db"), cfg.DBPath)
	require.Equal(t, 64, cfg.MaxUploadMB)
	require.Equal(t, int64(64<<20), cfg.MaxUploadBytes())
	require.False(t, cfg.JoinContinuations)
}

func TestLoadFrom_FileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
exports_root = "~/chats"
join_continuations = true
stop_words = ["lol", "haha"]
max_upload_mb = 8
`), 0o644))

	cfg, err := LoadFrom(path, home)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "chats"), cfg.ExportsRoot)
	require.True(t, cfg.JoinContinuations)
	require.Equal(t, []string{"lol", "haha"}, cfg.StopWords)
	require.Equal(t, 8, cfg.MaxUploadMB)
	require.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path = "/tmp/from-file.db"
stop_words = ["lol"]
`), 0o644))

	t.Setenv("WCI_DB_PATH", "~/env.db")
	t.Setenv("WCI_LENIENT_DATES", "true")
	t.Setenv("WCI_STOP_WORDS", "brb,omg")
	t.Setenv("WCI_LOG_LEVEL", "debug")

	cfg, err := LoadFrom(path, home)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "env.db"), cfg.DBPath)
	require.True(t, cfg.LenientDates)
	require.Equal(t, []string{"lol", "brb", "omg"}, cfg.StopWords)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFrom_InvalidToml(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("exports_root = "), 0o644))

	_, err := LoadFrom(path, home)
	require.Error(t, err)
}

func TestLoadFrom_InvalidEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WCI_MAX_UPLOAD_MB", "lots")

	_, err := LoadFrom(filepath.Join(home, "none.toml"), home)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Defaults("/home/u")
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty db path", func(c *Config) { c.DBPath = "" }},
		{"blank exports root", func(c *Config) { c.ExportsRoot = "  " }},
		{"zero upload", func(c *Config) { c.MaxUploadMB = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults("/home/u")
			tt.mutate(c)
			require.Error(t, c.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("WCI_CACHE_DIR=/from/first\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("WCI_CACHE_DIR=/from/second\nWCI_LISTEN_ADDR=:9999\n"), 0o644))

	t.Setenv("WCI_LISTEN_ADDR", ":7000")
	_, set := os.LookupEnv("WCI_CACHE_DIR")
	require.False(t, set)
	t.Cleanup(func() { os.Unsetenv("WCI_CACHE_DIR") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), first, second))
	require.Equal(t, "/from/first", os.Getenv("WCI_CACHE_DIR"))
	require.Equal(t, ":7000", os.Getenv("WCI_LISTEN_ADDR"))

	home := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(home, "missing.toml"), home)
	require.NoError(t, err)
	require.Equal(t, "/from/first", cfg.CacheDir)
	require.Equal(t, ":7000", cfg.ListenAddr)
}

func TestLoadDotEnv_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.env")
	require.NoError(t, os.WriteFile(path, []byte("WCI_LOG_LEVEL='unterminated\n"), 0o644))
	require.Error(t, LoadDotEnv(path))
}
