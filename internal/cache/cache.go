package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultTTL is how long an entry stays fresh.
const DefaultTTL = 24 * time.Hour

// Entry is a cached value with the time it was stored.
type Entry[T any] struct {
	Timestamp time.Time `json:"timestamp"`
	Data      T         `json:"data"`
}

// Option tweaks a Cache.
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// Cache holds a single time-boxed entry. When path is non-empty the entry is
// mirrored to that file so it survives restarts.
type Cache[T any] struct {
	mu     sync.Mutex
	path   string
	ttl    time.Duration
	now    func() time.Time
	entry  *Entry[T]
	loaded bool
}

// New builds a cache. A zero or negative ttl uses DefaultTTL; an empty path
// keeps the entry in memory only.
func New[T any](path string, ttl time.Duration, opts ...Option) *Cache[T] {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		path: path,
		ttl:  ttl,
		now:  s.now,
	}
}

// TTL reports the configured expiry.
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry when it is present and not older than the TTL. A
// stale entry is deleted as a side effect.
func (c *Cache[T]) Get() (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadLocked()
	if c.entry == nil {
		return Entry[T]{}, false
	}
	if c.now().Sub(c.entry.Timestamp) > c.ttl {
		c.entry = nil
		_ = c.removeLocked()
		return Entry[T]{}, false
	}
	return *c.entry, true
}

// Set stores data stamped with the current time.
func (c *Cache[T]) Set(data T) error {
	return c.Put(Entry[T]{Timestamp: c.now(), Data: data})
}

// Put stores entry as given, keeping its timestamp.
func (c *Cache[T]) Put(entry Entry[T]) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = true
	c.entry = &entry
	return c.persistLocked()
}

// Clear drops the entry.
func (c *Cache[T]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = true
	c.entry = nil
	return c.removeLocked()
}

func (c *Cache[T]) loadLocked() {
	if c.loaded {
		return
	}
	c.loaded = true
	if c.path == "" {
		return
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var entry Entry[T]
	if err := json.Unmarshal(data, &entry); err != nil || entry.Timestamp.IsZero() {
		// Unreadable entries count as a miss.
		return
	}
	c.entry = &entry
}

func (c *Cache[T]) persistLocked() error {
	if c.path == "" {
		return nil
	}
	data, err := json.Marshal(c.entry)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func (c *Cache[T]) removeLocked() error {
	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}
