package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envSheetsAPIKey, "")
	t.Setenv(envGeminiAPIKey, "")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPBind != defaultHTTPBind {
		t.Fatalf("HTTPBind = %q, want %q", cfg.HTTPBind, defaultHTTPBind)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Fatalf("CacheTTL = %v, want 24h", cfg.CacheTTL)
	}
	if cfg.RefreshInterval != defaultRefreshInterval || cfg.PreloadWorkers != defaultPreloadWorkers {
		t.Fatalf("refresh=%v workers=%d, want defaults", cfg.RefreshInterval, cfg.PreloadWorkers)
	}
	if cfg.GeminiModel != defaultGeminiModel {
		t.Fatalf("GeminiModel = %q, want %q", cfg.GeminiModel, defaultGeminiModel)
	}

	wantCache, err := expandPath(defaultCachePath)
	if err != nil {
		t.Fatalf("expandPath(defaultCachePath) returned error: %v", err)
	}
	if cfg.CachePath != wantCache {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, wantCache)
	}
	if !strings.HasPrefix(cfg.LibraryPath, home) || !strings.HasPrefix(cfg.LogPath, home) {
		t.Fatalf("LibraryPath=%q LogPath=%q, want both under HOME %q", cfg.LibraryPath, cfg.LogPath, home)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate returned nil error without a source")
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envSheetsAPIKey, "")
	t.Setenv(envGeminiAPIKey, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
spreadsheet_id = "  abc123  "
sheets_api_key = " sheets-key "
cache_path = "  ~/cache/catalog.json  "
cache_ttl = "2h"
gemini_model = "gemini-2.5-flash"
http_bind = "  10.0.0.5:9999  "
refresh_interval = "30s"
preload_workers = 8
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SpreadsheetID != "abc123" || cfg.SheetsAPIKey != "sheets-key" {
		t.Fatalf("SpreadsheetID=%q SheetsAPIKey=%q, want trimmed values", cfg.SpreadsheetID, cfg.SheetsAPIKey)
	}
	if cfg.HTTPBind != "10.0.0.5:9999" {
		t.Fatalf("HTTPBind = %q, want %q", cfg.HTTPBind, "10.0.0.5:9999")
	}
	if cfg.CachePath != filepath.Join(home, "cache", "catalog.json") {
		t.Fatalf("CachePath = %q, want it under HOME %q", cfg.CachePath, home)
	}
	if cfg.CacheTTL != 2*time.Hour || cfg.RefreshInterval != 30*time.Second {
		t.Fatalf("CacheTTL=%v RefreshInterval=%v, want 2h and 30s", cfg.CacheTTL, cfg.RefreshInterval)
	}
	if cfg.PreloadWorkers != 8 || cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("PreloadWorkers=%d GeminiModel=%q", cfg.PreloadWorkers, cfg.GeminiModel)
	}
	if cfg.UsesWorkbook() {
		t.Fatalf("UsesWorkbook = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestLoad_EnvironmentOverridesKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(envSheetsAPIKey, "env-sheets")
	t.Setenv(envGeminiAPIKey, "env-gemini")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
sheets_api_key = "file-key"
workbook_path = "/data/catalog.xlsx"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SheetsAPIKey != "env-sheets" || cfg.GeminiAPIKey != "env-gemini" {
		t.Fatalf("keys = %q/%q, want environment values", cfg.SheetsAPIKey, cfg.GeminiAPIKey)
	}
	if !cfg.UsesWorkbook() || cfg.Validate() != nil {
		t.Fatalf("workbook config should validate, got UsesWorkbook=%v", cfg.UsesWorkbook())
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
http_bind = "   "
cache_path = ""
cache_ttl = " "
preload_workers = 0
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPBind != defaultHTTPBind {
		t.Fatalf("HTTPBind = %q, want %q", cfg.HTTPBind, defaultHTTPBind)
	}
	wantCache, err := expandPath(defaultCachePath)
	if err != nil {
		t.Fatalf("expandPath(defaultCachePath) returned error: %v", err)
	}
	if cfg.CachePath != wantCache {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, wantCache)
	}
	if cfg.CacheTTL != defaultCacheTTL || cfg.PreloadWorkers != defaultPreloadWorkers {
		t.Fatalf("CacheTTL=%v PreloadWorkers=%d, want defaults", cfg.CacheTTL, cfg.PreloadWorkers)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`http_bind = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	for _, body := range []string{`cache_ttl = "soon"`, `refresh_interval = "-5m"`} {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("Load(%s) returned nil error", body)
		}
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogFilePath_DefaultsWhenEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogFilePath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogFilePath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/shelf.log")) {
		t.Fatalf("LogFilePath = %q, want it to end with /shelf.log", got)
	}
}
