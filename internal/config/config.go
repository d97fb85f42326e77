package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything shelf needs to locate its catalog and state.
type Config struct {
	SpreadsheetID   string
	SheetsAPIKey    string
	SheetsEndpoint  string
	WorkbookPath    string
	CachePath       string
	CacheTTL        time.Duration
	LibraryPath     string
	LogPath         string
	GeminiAPIKey    string
	GeminiModel     string
	HTTPBind        string
	RefreshInterval time.Duration
	PreloadWorkers  int
}

const (
	defaultConfigPath      = "~/.config/shelf/config.toml"
	defaultCachePath       = "~/.cache/shelf/catalog.json"
	defaultLibraryPath     = "~/.local/share/shelf/library.toml"
	defaultLogPath         = "~/.local/share/shelf/shelf.log"
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultHTTPBind        = "127.0.0.1:8080"
	defaultCacheTTL        = 24 * time.Hour
	defaultRefreshInterval = 15 * time.Minute
	defaultPreloadWorkers  = 4

	envSheetsAPIKey = "SHELF_SHEETS_API_KEY"
	envGeminiAPIKey = "GEMINI_API_KEY"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		CachePath:       mustExpand(defaultCachePath),
		CacheTTL:        defaultCacheTTL,
		LibraryPath:     mustExpand(defaultLibraryPath),
		LogPath:         mustExpand(defaultLogPath),
		GeminiModel:     defaultGeminiModel,
		HTTPBind:        defaultHTTPBind,
		RefreshInterval: defaultRefreshInterval,
		PreloadWorkers:  defaultPreloadWorkers,
	}
}

// Load locates and parses the shelf config, falling back to defaults when missing.
// API keys in the environment take precedence over the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		SpreadsheetID   string `toml:"spreadsheet_id"`
		SheetsAPIKey    string `toml:"sheets_api_key"`
		SheetsEndpoint  string `toml:"sheets_endpoint"`
		WorkbookPath    string `toml:"workbook_path"`
		CachePath       string `toml:"cache_path"`
		CacheTTL        string `toml:"cache_ttl"`
		LibraryPath     string `toml:"library_path"`
		LogPath         string `toml:"log_path"`
		GeminiAPIKey    string `toml:"gemini_api_key"`
		GeminiModel     string `toml:"gemini_model"`
		HTTPBind        string `toml:"http_bind"`
		RefreshInterval string `toml:"refresh_interval"`
		PreloadWorkers  int    `toml:"preload_workers"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.SpreadsheetID = strings.TrimSpace(raw.SpreadsheetID)
	cfg.SheetsAPIKey = strings.TrimSpace(raw.SheetsAPIKey)
	cfg.SheetsEndpoint = strings.TrimSpace(raw.SheetsEndpoint)
	cfg.GeminiAPIKey = strings.TrimSpace(raw.GeminiAPIKey)

	if v := strings.TrimSpace(raw.WorkbookPath); v != "" {
		cfg.WorkbookPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.CachePath); v != "" {
		cfg.CachePath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LibraryPath); v != "" {
		cfg.LibraryPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.GeminiModel); v != "" {
		cfg.GeminiModel = v
	}
	if v := strings.TrimSpace(raw.HTTPBind); v != "" {
		cfg.HTTPBind = v
	}
	if raw.PreloadWorkers > 0 {
		cfg.PreloadWorkers = raw.PreloadWorkers
	}

	if cfg.CacheTTL, err = parseDuration("cache_ttl", raw.CacheTTL, defaultCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshInterval, err = parseDuration("refresh_interval", raw.RefreshInterval, defaultRefreshInterval); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

// UsesWorkbook reports whether the catalog should be read from a local file
// instead of the Sheets API.
func (c Config) UsesWorkbook() bool {
	return strings.TrimSpace(c.WorkbookPath) != ""
}

// Validate checks that a catalog source is configured.
func (c Config) Validate() error {
	if c.UsesWorkbook() {
		return nil
	}
	if strings.TrimSpace(c.SpreadsheetID) == "" {
		return fmt.Errorf("spreadsheet_id or workbook_path must be set")
	}
	return nil
}

// LogFilePath returns the shelf log file, falling back to the default location.
func (c Config) LogFilePath() string {
	if strings.TrimSpace(c.LogPath) == "" {
		return mustExpand(defaultLogPath)
	}
	return c.LogPath
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envSheetsAPIKey)); v != "" {
		cfg.SheetsAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(envGeminiAPIKey)); v != "" {
		cfg.GeminiAPIKey = v
	}
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %s: must be positive, got %s", key, trimmed)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading tilde and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
