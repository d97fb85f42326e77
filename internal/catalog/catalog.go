package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/five82/shelf/internal/cache"
)

const defaultPreloadWorkers = 4

// Store is the cache the catalog reads through.
type Store = cache.Cache[Snapshot]

// Option configures a Catalog.
type Option func(*Catalog)

// WithPreloadWorkers bounds how many sheets Preload fetches at once.
func WithPreloadWorkers(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.workers = n
		}
	}
}

// Catalog serves subjects and books from the cache, falling back to the
// source on a miss.
type Catalog struct {
	source  Source
	store   *Store
	logger  *zap.Logger
	workers int
	group   singleflight.Group

	// mu serializes every read-modify-write of the cache entry. gen counts
	// whole-entry replacements (Clear, Preload) so a fill that started
	// before one does not merge stale rows into the new entry.
	mu  sync.Mutex
	gen uint64
}

// New builds a Catalog. A nil store gets an in-memory cache with the default
// TTL and a nil logger discards output.
func New(source Source, store *Store, logger *zap.Logger, opts ...Option) *Catalog {
	if store == nil {
		store = cache.New[Snapshot]("", cache.DefaultTTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		source:  source,
		store:   store,
		logger:  logger,
		workers: defaultPreloadWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subjects returns all subjects. Fetch failures are logged and produce an
// empty list.
func (c *Catalog) Subjects(ctx context.Context) []Subject {
	if entry, ok := c.store.Get(); ok && len(entry.Data.Subjects) > 0 {
		return cloneSubjects(entry.Data.Subjects)
	}

	v, _, _ := c.group.Do("subjects", func() (any, error) {
		gen := c.generation()
		subjects, err := c.loadSubjects(ctx)
		if err != nil {
			c.logger.Warn("fetch subjects failed", zap.Error(err))
			return []Subject(nil), nil
		}
		c.storeSubjects(gen, subjects)
		return subjects, nil
	})
	return cloneSubjects(v.([]Subject))
}

// Books returns the books of the named subject sorted by Order. Fetch
// failures are logged and produce an empty list.
func (c *Catalog) Books(ctx context.Context, subject string) []Book {
	if entry, ok := c.store.Get(); ok {
		if books, found := entry.Data.BooksBySubject[subject]; found {
			return cloneBooks(books)
		}
	}

	v, _, _ := c.group.Do("books:"+subject, func() (any, error) {
		gen := c.generation()
		books, err := c.loadBooks(ctx, subject)
		if err != nil {
			c.logger.Warn("fetch books failed", zap.String("subject", subject), zap.Error(err))
			return []Book(nil), nil
		}
		c.storeBooks(gen, subject, books)
		return books, nil
	})
	return cloneBooks(v.([]Book))
}

// SubjectByID finds the subject whose ID matches id.
func (c *Catalog) SubjectByID(ctx context.Context, id string) (Subject, bool) {
	for _, subject := range c.Subjects(ctx) {
		if subject.ID == id {
			return subject, true
		}
	}
	return Subject{}, false
}

// ResolveSubject is SubjectByID with a fallback to the first subject when id
// is unknown or empty. ok is false only when there are no subjects at all.
func (c *Catalog) ResolveSubject(ctx context.Context, id string) (Subject, bool) {
	subjects := c.Subjects(ctx)
	if len(subjects) == 0 {
		return Subject{}, false
	}
	for _, subject := range subjects {
		if subject.ID == id {
			return subject, true
		}
	}
	return subjects[0], true
}

// AllBooks concatenates the books of every subject in subject order.
func (c *Catalog) AllBooks(ctx context.Context) []Book {
	var all []Book
	for _, subject := range c.Subjects(ctx) {
		all = append(all, c.Books(ctx, subject.Name)...)
	}
	return all
}

// Book looks a book up by ID across all subjects.
func (c *Catalog) Book(ctx context.Context, id string) (Book, bool) {
	for _, book := range c.AllBooks(ctx) {
		if book.ID == id {
			return book, true
		}
	}
	return Book{}, false
}

// Fresh reports whether a cache entry is currently being served.
func (c *Catalog) Fresh() bool {
	_, ok := c.store.Get()
	return ok
}

// Cached returns the fresh cache entry, if any, without touching the source.
func (c *Catalog) Cached() (Snapshot, bool) {
	entry, ok := c.store.Get()
	if !ok {
		return Snapshot{}, false
	}
	return entry.Data.clone(), true
}

// Preload fetches every subject and its books and stores them as one cache
// entry. Only a failure to list the subjects is returned; a sheet that fails
// is logged and left out so a later Books call retries it.
func (c *Catalog) Preload(ctx context.Context) (Snapshot, error) {
	subjects, err := c.loadSubjects(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Subjects:       subjects,
		BooksBySubject: make(map[string][]Book, len(subjects)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, subject := range subjects {
		g.Go(func() error {
			books, err := c.loadBooks(gctx, subject.Name)
			if err != nil {
				c.logger.Warn("preload sheet failed", zap.String("subject", subject.Name), zap.Error(err))
				return nil
			}
			mu.Lock()
			snap.BooksBySubject[subject.Name] = books
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	c.mu.Lock()
	c.gen++
	err = c.store.Set(snap)
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn("write catalog cache failed", zap.Error(err))
	}
	c.logger.Info("catalog preloaded",
		zap.Int("subjects", len(snap.Subjects)),
		zap.Int("books", snap.BookCount()))
	return snap.clone(), nil
}

// Refresh drops the cached catalog and preloads it again.
func (c *Catalog) Refresh(ctx context.Context) (Snapshot, error) {
	if err := c.Clear(); err != nil {
		return Snapshot{}, err
	}
	return c.Preload(ctx)
}

// Clear drops the cached catalog.
func (c *Catalog) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clear catalog cache: %w", err)
	}
	return nil
}

var errNoSheets = errors.New("no sheets found in the spreadsheet")

func (c *Catalog) loadSubjects(ctx context.Context) ([]Subject, error) {
	if c.source == nil {
		return nil, errors.New("catalog has no source")
	}
	names, err := c.source.SheetNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	if len(names) == 0 {
		return nil, errNoSheets
	}

	// The first sheet's first book supplies the icon for every subject.
	var sample []Record
	if rows, err := c.source.Rows(ctx, names[0]); err != nil {
		c.logger.Warn("fetch icon sample failed", zap.String("sheet", names[0]), zap.Error(err))
	} else {
		sample = Records(rows)
	}
	return NormalizeSubjects(names, sample), nil
}

func (c *Catalog) loadBooks(ctx context.Context, subject string) ([]Book, error) {
	if c.source == nil {
		return nil, errors.New("catalog has no source")
	}
	rows, err := c.source.Rows(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", subject, err)
	}
	records := Records(rows)
	if len(records) == 0 {
		return nil, fmt.Errorf("no data found in sheet %q", subject)
	}
	return NormalizeBooks(subject, records), nil
}

func (c *Catalog) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// storeSubjects writes subjects fetched under generation gen. A fill that
// lost a race with Clear or Preload is dropped.
func (c *Catalog) storeSubjects(gen uint64, subjects []Subject) {
	if len(subjects) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug("discarding subjects fetched before a cache reset")
		return
	}
	var err error
	if entry, ok := c.store.Get(); ok {
		snap := entry.Data.clone()
		snap.Subjects = cloneSubjects(subjects)
		err = c.store.Put(cache.Entry[Snapshot]{Timestamp: entry.Timestamp, Data: snap})
	} else {
		err = c.store.Set(Snapshot{
			Subjects:       cloneSubjects(subjects),
			BooksBySubject: map[string][]Book{},
		})
	}
	if err != nil {
		c.logger.Warn("write catalog cache failed", zap.Error(err))
	}
}

// storeBooks merges one subject into the cached entry. A fresh entry keeps
// its timestamp so the late sheet expires together with the rest.
func (c *Catalog) storeBooks(gen uint64, subject string, books []Book) {
	if len(books) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug("discarding books fetched before a cache reset", zap.String("subject", subject))
		return
	}
	var err error
	if entry, ok := c.store.Get(); ok {
		snap := entry.Data.clone()
		snap.BooksBySubject[subject] = cloneBooks(books)
		err = c.store.Put(cache.Entry[Snapshot]{Timestamp: entry.Timestamp, Data: snap})
	} else {
		err = c.store.Set(Snapshot{
			BooksBySubject: map[string][]Book{subject: cloneBooks(books)},
		})
	}
	if err != nil {
		c.logger.Warn("write catalog cache failed", zap.Error(err))
	}
}
