// Package library keeps per-user favorites and reading history in a TOML
// file under the user's data directory.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/catalog"
)

// HistoryEntry records the last time a book was opened and how far along the
// reader is, in percent.
type HistoryEntry struct {
	BookID   string    `toml:"book_id" json:"bookId"`
	LastRead time.Time `toml:"last_read" json:"lastRead"`
	Progress float64   `toml:"progress" json:"progress"`
}

// HistoryItem is a history entry joined with its book.
type HistoryItem struct {
	Book     catalog.Book `json:"book"`
	LastRead time.Time    `json:"lastRead"`
	Progress float64      `json:"progress"`
}

type document struct {
	Favorites []string       `toml:"favorites"`
	History   []HistoryEntry `toml:"history"`
}

// Library is safe for concurrent use. With an empty path it lives in memory.
type Library struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	now    func() time.Time
	doc    document
}

// Option customizes a Library.
type Option func(*Library)

// WithClock overrides the clock used for LastRead.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		if now != nil {
			l.now = now
		}
	}
}

// Open loads the library at path. A missing file is an empty library; an
// unreadable one is logged and treated the same way.
func Open(path string, logger *zap.Logger, opts ...Option) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Library{path: strings.TrimSpace(path), logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if l.path == "" {
		return l
	}
	doc, err := load(l.path)
	if err != nil {
		logger.Warn("library unreadable, starting empty", zap.String("path", l.path), zap.Error(err))
		return l
	}
	l.doc = doc
	return l
}

func load(path string) (document, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{}, nil
		}
		return document{}, fmt.Errorf("open library: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return document{}, fmt.Errorf("read library: %w", err)
	}
	var doc document
	if err := toml.Unmarshal(bytes, &doc); err != nil {
		return document{}, fmt.Errorf("parse library: %w", err)
	}
	return doc, nil
}

// Favorites returns favorite book ids in the order they were added.
func (l *Library) Favorites() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.doc.Favorites)
}

// IsFavorite reports whether id is a favorite.
func (l *Library) IsFavorite(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.doc.Favorites, id)
}

// AddFavorite appends id unless it is already a favorite.
func (l *Library) AddFavorite(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slices.Contains(l.doc.Favorites, id) {
		return nil
	}
	l.doc.Favorites = append(l.doc.Favorites, id)
	return l.saveLocked()
}

// RemoveFavorite drops id from favorites. Unknown ids are ignored.
func (l *Library) RemoveFavorite(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !slices.Contains(l.doc.Favorites, id) {
		return nil
	}
	l.doc.Favorites = slices.DeleteFunc(l.doc.Favorites, func(fav string) bool { return fav == id })
	return l.saveLocked()
}

// ToggleFavorite flips id and returns whether it is now a favorite.
func (l *Library) ToggleFavorite(id string) (bool, error) {
	if l.IsFavorite(id) {
		return false, l.RemoveFavorite(id)
	}
	return true, l.AddFavorite(id)
}

// History returns entries in insertion order.
func (l *Library) History() []HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.doc.History)
}

// AddToHistory stamps id as read now with the given progress. An existing
// entry keeps its position and is replaced.
func (l *Library) AddToHistory(id string, progress float64) error {
	entry := HistoryEntry{BookID: id, LastRead: l.now().UTC(), Progress: clampProgress(progress)}

	l.mu.Lock()
	defer l.mu.Unlock()
	idx := slices.IndexFunc(l.doc.History, func(h HistoryEntry) bool { return h.BookID == id })
	if idx >= 0 {
		l.doc.History[idx] = entry
	} else {
		l.doc.History = append(l.doc.History, entry)
	}
	return l.saveLocked()
}

// Progress returns the stored progress for id.
func (l *Library) Progress(id string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, h := range l.doc.History {
		if h.BookID == id {
			return h.Progress, true
		}
	}
	return 0, false
}

func (l *Library) saveLocked() error {
	if l.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create library dir: %w", err)
	}
	bytes, err := toml.Marshal(l.doc)
	if err != nil {
		return fmt.Errorf("marshal library: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace library: %w", err)
	}
	return nil
}

func clampProgress(p float64) float64 {
	switch {
	case p != p, p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Resolve joins history with known books, drops ids that no longer exist and
// orders the result by most recently read.
func Resolve(history []HistoryEntry, books []catalog.Book) []HistoryItem {
	byID := indexBooks(books)
	items := make([]HistoryItem, 0, len(history))
	for _, h := range history {
		book, ok := byID[h.BookID]
		if !ok {
			continue
		}
		items = append(items, HistoryItem{Book: book, LastRead: h.LastRead, Progress: h.Progress})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastRead.After(items[j].LastRead)
	})
	return items
}

// ResolveFavorites returns the favorite books in favorite order.
func ResolveFavorites(ids []string, books []catalog.Book) []catalog.Book {
	byID := indexBooks(books)
	out := make([]catalog.Book, 0, len(ids))
	for _, id := range ids {
		if book, ok := byID[id]; ok {
			out = append(out, book)
		}
	}
	return out
}

func indexBooks(books []catalog.Book) map[string]catalog.Book {
	byID := make(map[string]catalog.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	return byID
}
