package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/catalog"
	"github.com/five82/shelf/internal/state"
)

const (
	defaultRefreshInterval = 15 * time.Minute
	maxBackoff             = time.Hour
)

// catalogLoader is the part of catalog.Catalog the refresher needs.
type catalogLoader interface {
	Cached() (catalog.Snapshot, bool)
	Preload(ctx context.Context) (catalog.Snapshot, error)
}

// StartRefresher launches a background goroutine that keeps the catalog cache
// warm. Every interval it checks the cache and preloads only when the entry
// has expired. Failures back off exponentially up to maxBackoff. The returned
// channel is closed once the goroutine exits after ctx is cancelled.
func StartRefresher(ctx context.Context, store *state.Store, cat catalogLoader, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		failures := 0
		for {
			if err := refresh(ctx, store, cat, logger); err != nil {
				failures++
			} else {
				failures = 0
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

func refresh(ctx context.Context, store *state.Store, cat catalogLoader, logger *zap.Logger) error {
	if snap, ok := cat.Cached(); ok && len(snap.Subjects) > 0 {
		store.Update(snap.Subjects, snap.BookCount(), nil)
		return nil
	}
	snap, err := cat.Preload(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		store.Update(nil, 0, err)
		logger.Warn("catalog refresh failed", zap.Error(err))
		return err
	}
	store.Update(snap.Subjects, snap.BookCount(), nil)
	return nil
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
