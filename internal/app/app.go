package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/catalog"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/explain"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/logging"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/sheets"
	"github.com/five82/shelf/internal/state"
	"github.com/five82/shelf/internal/ui"
	"github.com/five82/shelf/internal/workbook"
)

var (
	_ catalog.Source = (*sheets.Client)(nil)
	_ catalog.Source = (*workbook.Workbook)(nil)
)

// Options configure how shelf boots.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/shelf/prefs.toml
	Verbose    bool
	// LogToFile sends logs to the configured log file instead of stderr.
	// The TUI owns the terminal, so it always sets this.
	LogToFile bool
}

// Services holds everything the front ends share.
type Services struct {
	Config    config.Config
	Logger    *zap.Logger
	Catalog   *catalog.Catalog
	Library   *library.Library
	Explainer *explain.Explainer
	Store     *state.Store
}

// Close flushes the logger.
func (s *Services) Close() {
	if s == nil || s.Logger == nil {
		return
	}
	_ = s.Logger.Sync()
}

// Bootstrap loads the config and wires the catalog, library and explainer.
func Bootstrap(ctx context.Context, opts Options) (*Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logPath := ""
	if opts.LogToFile {
		logPath = cfg.LogFilePath()
	}
	logger, err := logging.New(logPath, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	svc, err := Build(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return svc, nil
}

// Build wires services from an already loaded config.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	source, err := NewSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("init catalog source: %w", err)
	}

	store := cache.New[catalog.Snapshot](cfg.CachePath, cfg.CacheTTL)
	cat := catalog.New(source, store, logger.Named("catalog"), catalog.WithPreloadWorkers(cfg.PreloadWorkers))

	return &Services{
		Config:    cfg,
		Logger:    logger,
		Catalog:   cat,
		Library:   library.Open(cfg.LibraryPath, logger.Named("library")),
		Explainer: newExplainer(ctx, cfg, logger),
		Store:     &state.Store{},
	}, nil
}

// NewSource picks the local workbook when configured, otherwise the Sheets API.
func NewSource(cfg config.Config) (catalog.Source, error) {
	if cfg.UsesWorkbook() {
		wb, err := workbook.Open(cfg.WorkbookPath)
		if err != nil {
			return nil, err
		}
		return wb, nil
	}
	client, err := sheets.NewClient(cfg.SheetsEndpoint, cfg.SpreadsheetID, cfg.SheetsAPIKey)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newExplainer(ctx context.Context, cfg config.Config, logger *zap.Logger) *explain.Explainer {
	logger = logger.Named("explain")
	if cfg.GeminiAPIKey == "" {
		logger.Debug("no gemini api key, explanations disabled")
		return explain.New(nil, logger)
	}
	gen, err := explain.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Warn("gemini unavailable, explanations disabled", zap.Error(err))
		return explain.New(nil, logger)
	}
	return explain.New(gen, logger)
}

// Run boots the shelf TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.LogToFile = true
	svc, err := Bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		svc.Logger.Warn("prefs unreadable, using defaults", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := StartRefresher(ctx, svc.Store, svc.Catalog, svc.Config.RefreshInterval, svc.Logger.Named("refresher"))

	err = ui.Run(ui.Options{
		Context:   ctx,
		Catalog:   svc.Catalog,
		Library:   svc.Library,
		Explainer: svc.Explainer,
		Store:     svc.Store,
		Logger:    svc.Logger.Named("ui"),
		LogPath:   svc.Config.LogFilePath(),
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
	cancel()
	<-done
	return err
}
