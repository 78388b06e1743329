package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const appName = "yaydl"

// Updater modes.
const (
	UpdaterReal     = "real"
	UpdaterSimulate = "simulate"
)

// DefaultUpdateRepo is the GitHub repository releases are fetched from.
const DefaultUpdateRepo = "cwygoda/yaydl"

// Config holds application configuration.
type Config struct {
	Addr         string
	DBPath       string
	ConfigDir    string
	YtDlp        string
	LinkPrefix   string
	MaxParallel  int
	QueueSize    int
	AutoMetadata bool
	LogLevel     string
	LogFormat    string
	UpdateRepo   string
	Updater      string
}

// DefaultDBPath returns the default database path using XDG_CACHE_HOME.
func DefaultDBPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, appName, "history.db")
}

// DefaultConfigDir returns the directory holding settings.toml, using
// XDG_CONFIG_HOME.
func DefaultConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, appName)
}

// Load reads an optional .env file, then parses args with environment
// overrides to build Config.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "addr", "127.0.0.1:7878", "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", DefaultDBPath(), "SQLite history database path")
	fs.StringVar(&cfg.ConfigDir, "config-dir", DefaultConfigDir(), "Directory holding settings.toml")
	fs.StringVar(&cfg.YtDlp, "yt-dlp", "yt-dlp", "yt-dlp executable")
	fs.StringVar(&cfg.LinkPrefix, "link-prefix", "https://www.youtube.com/", "Accepted link prefix")
	fs.IntVar(&cfg.MaxParallel, "max-parallel", 2, "Maximum concurrent yt-dlp runs")
	fs.IntVar(&cfg.QueueSize, "queue-size", 64, "Pending request queue size")
	fs.BoolVar(&cfg.AutoMetadata, "auto-metadata", true, "Fetch metadata when a link is added")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	fs.StringVar(&cfg.UpdateRepo, "update-repo", DefaultUpdateRepo, "GitHub owner/repo for releases")
	fs.StringVar(&cfg.Updater, "updater", UpdaterReal, "Updater mode: real or simulate")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Env overrides
	if addr := os.Getenv("YAYDL_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if db := os.Getenv("YAYDL_DB"); db != "" {
		cfg.DBPath = db
	}
	if dir := os.Getenv("YAYDL_CONFIG_DIR"); dir != "" {
		cfg.ConfigDir = dir
	}
	if bin := os.Getenv("YAYDL_YTDLP"); bin != "" {
		cfg.YtDlp = bin
	}
	if n := os.Getenv("YAYDL_MAX_PARALLEL"); n != "" {
		if p, err := strconv.Atoi(n); err == nil {
			cfg.MaxParallel = p
		}
	}
	if level := os.Getenv("YAYDL_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := os.Getenv("YAYDL_LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}
	if repo := os.Getenv("YAYDL_UPDATE_REPO"); repo != "" {
		cfg.UpdateRepo = repo
	}
	if mode := os.Getenv("YAYDL_UPDATER"); mode != "" {
		cfg.Updater = mode
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for invalid or missing values.
// Returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.ConfigDir == "" {
		return fmt.Errorf("config directory cannot be empty")
	}
	if c.YtDlp == "" {
		return fmt.Errorf("yt-dlp executable cannot be empty")
	}
	if c.LinkPrefix == "" {
		return fmt.Errorf("link prefix cannot be empty")
	}
	if c.MaxParallel <= 0 {
		return fmt.Errorf("max parallel must be positive: %d", c.MaxParallel)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive: %d", c.QueueSize)
	}
	if c.Updater != UpdaterReal && c.Updater != UpdaterSimulate {
		return fmt.Errorf("unknown updater mode: %q", c.Updater)
	}
	return nil
}

// Simulated reports whether update cycles should be simulated.
func (c *Config) Simulated() bool {
	return c.Updater == UpdaterSimulate
}

// SetupLogger configures the global slog logger based on configuration and
// returns it. Supports "json" or "text" formats and log levels: debug, info,
// warn, error.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
