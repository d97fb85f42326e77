package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/shelf/internal/cache"
)

type fakeSource struct {
	mu        sync.Mutex
	names     []string
	sheets    map[string][][]string
	namesErr  error
	rowErrs   map[string]error
	nameCalls int
	rowCalls  map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		names: []string{"Direito Civil", "Direito Penal"},
		sheets: map[string][][]string{
			"Direito Civil": {
				{"Title", "ReadLink", "CoverImage", "Synopsis", "Rating", "Order"},
				{"Contratos", "https://r/contratos", "civil.jpg", "Teoria geral dos contratos", "5", "2"},
				{"Obrigações", "https://r/obrigacoes", "", "Direito das obrigações", "3", "1"},
			},
			"Direito Penal": {
				{"Nome", "Link", "Sinopse", "Nota", "Ordem"},
				{"Parte Geral", "https://r/pg", "Teoria do crime", "4", "1"},
			},
		},
		rowErrs:  map[string]error{},
		rowCalls: map[string]int{},
	}
}

func (f *fakeSource) SheetNames(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nameCalls++
	if f.namesErr != nil {
		return nil, f.namesErr
	}
	return append([]string(nil), f.names...), nil
}

func (f *fakeSource) Rows(ctx context.Context, sheet string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowCalls[sheet]++
	if err := f.rowErrs[sheet]; err != nil {
		return nil, err
	}
	return f.sheets[sheet], nil
}

func (f *fakeSource) calls(sheet string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rowCalls[sheet]
}

func TestCatalog_SubjectsReadThrough(t *testing.T) {
	src := newFakeSource()
	c := New(src, nil, nil)
	ctx := context.Background()

	subjects := c.Subjects(ctx)
	if len(subjects) != 2 {
		t.Fatalf("Subjects = %#v, want 2", subjects)
	}
	if subjects[0].ID != "direito-civil" || subjects[1].Icon != "civil.jpg" {
		t.Fatalf("Subjects = %#v, want slug ids and shared icon", subjects)
	}

	_ = c.Subjects(ctx)
	if src.nameCalls != 1 {
		t.Fatalf("SheetNames called %d times, want 1 (second call served from cache)", src.nameCalls)
	}
}

func TestCatalog_BooksReadThroughAndMerge(t *testing.T) {
	src := newFakeSource()
	c := New(src, nil, nil)
	ctx := context.Background()

	civil := c.Books(ctx, "Direito Civil")
	if len(civil) != 2 || civil[0].Title != "Obrigações" {
		t.Fatalf("Books(civil) = %#v, want 2 books sorted by order", civil)
	}
	penal := c.Books(ctx, "Direito Penal")
	if len(penal) != 1 || penal[0].ID != "direito-penal-0" {
		t.Fatalf("Books(penal) = %#v, want 1 book", penal)
	}

	_ = c.Books(ctx, "Direito Civil")
	_ = c.Books(ctx, "Direito Penal")
	if src.calls("Direito Civil") != 1 || src.calls("Direito Penal") != 1 {
		t.Fatalf("sheets refetched: civil=%d penal=%d, want 1 each",
			src.calls("Direito Civil"), src.calls("Direito Penal"))
	}

	// Returned slices are copies.
	civil[0].Title = "mutated"
	if again := c.Books(ctx, "Direito Civil"); again[0].Title != "Obrigações" {
		t.Fatalf("cache was mutated through returned slice: %#v", again)
	}
}

func TestCatalog_FailedFetchReturnsEmptyAndIsNotCached(t *testing.T) {
	src := newFakeSource()
	src.rowErrs["Direito Civil"] = errors.New("quota exceeded")
	c := New(src, nil, nil)
	ctx := context.Background()

	if got := c.Books(ctx, "Direito Civil"); len(got) != 0 {
		t.Fatalf("Books on failure = %#v, want empty", got)
	}

	delete(src.rowErrs, "Direito Civil")
	if got := c.Books(ctx, "Direito Civil"); len(got) != 2 {
		t.Fatalf("Books after recovery = %#v, want 2", got)
	}

	if got := c.Books(ctx, "Missing Sheet"); len(got) != 0 {
		t.Fatalf("Books(missing) = %#v, want empty", got)
	}

	src.namesErr = errors.New("offline")
	fresh := New(src, nil, nil)
	if got := fresh.Subjects(ctx); len(got) != 0 {
		t.Fatalf("Subjects on failure = %#v, want empty", got)
	}
}

func TestCatalog_PreloadFillsSingleEntry(t *testing.T) {
	src := newFakeSource()
	src.rowErrs["Direito Penal"] = errors.New("boom")
	c := New(src, nil, nil, WithPreloadWorkers(1))
	ctx := context.Background()

	snap, err := c.Preload(ctx)
	if err != nil {
		t.Fatalf("Preload returned error: %v", err)
	}
	if len(snap.Subjects) != 2 {
		t.Fatalf("Preload subjects = %d, want 2", len(snap.Subjects))
	}
	if _, ok := snap.BooksBySubject["Direito Penal"]; ok {
		t.Fatalf("failed sheet should be left out of the snapshot")
	}
	if snap.BookCount() != 2 {
		t.Fatalf("BookCount = %d, want 2", snap.BookCount())
	}
	if !c.Fresh() {
		t.Fatalf("Fresh = false after Preload")
	}

	before := src.calls("Direito Civil")
	_ = c.Books(ctx, "Direito Civil")
	if src.calls("Direito Civil") != before {
		t.Fatalf("Books refetched a preloaded sheet")
	}

	// The missing sheet is retried lazily.
	delete(src.rowErrs, "Direito Penal")
	if got := c.Books(ctx, "Direito Penal"); len(got) != 1 {
		t.Fatalf("Books(penal) after preload failure = %#v, want 1", got)
	}
}

func TestCatalog_PreloadFailsWithoutSheetList(t *testing.T) {
	src := newFakeSource()
	src.namesErr = errors.New("forbidden")
	c := New(src, nil, nil)
	if _, err := c.Preload(context.Background()); err == nil {
		t.Fatalf("Preload returned nil error, want error")
	}

	src.namesErr = nil
	src.names = nil
	if _, err := c.Preload(context.Background()); !errors.Is(err, errNoSheets) {
		t.Fatalf("Preload error = %v, want errNoSheets", err)
	}
}

func TestCatalog_ExpiredEntryRefetches(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	store := cache.New[Snapshot]("", cache.DefaultTTL, cache.WithClock(func() time.Time { return now }))
	src := newFakeSource()
	c := New(src, store, nil)
	ctx := context.Background()

	if _, err := c.Preload(ctx); err != nil {
		t.Fatalf("Preload returned error: %v", err)
	}
	calls := src.calls("Direito Civil")

	now = now.Add(23 * time.Hour)
	_ = c.Books(ctx, "Direito Civil")
	if src.calls("Direito Civil") != calls {
		t.Fatalf("refetched before expiry")
	}

	now = now.Add(2 * time.Hour)
	if c.Fresh() {
		t.Fatalf("Fresh = true after 25h")
	}
	_ = c.Books(ctx, "Direito Civil")
	if src.calls("Direito Civil") != calls+1 {
		t.Fatalf("calls = %d, want %d after expiry", src.calls("Direito Civil"), calls+1)
	}
}

func TestCatalog_RefreshAndClear(t *testing.T) {
	src := newFakeSource()
	c := New(src, nil, nil)
	ctx := context.Background()

	_ = c.Subjects(ctx)
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if c.Fresh() {
		t.Fatalf("Fresh = true after Clear")
	}

	src.names = append(src.names, "Direito Tributário")
	snap, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if len(snap.Subjects) != 3 {
		t.Fatalf("Refresh subjects = %d, want 3", len(snap.Subjects))
	}

	cached, ok := c.Cached()
	if !ok || len(cached.Subjects) != 3 || cached.BookCount() != snap.BookCount() {
		t.Fatalf("Cached = %#v, %v; want the refreshed snapshot", cached, ok)
	}
	cached.Subjects[0].Name = "mutated"
	if again, _ := c.Cached(); again.Subjects[0].Name == "mutated" {
		t.Fatalf("Cached should return a copy")
	}
}

func TestCatalog_LookupHelpers(t *testing.T) {
	c := New(newFakeSource(), nil, nil)
	ctx := context.Background()

	if s, ok := c.SubjectByID(ctx, "direito-penal"); !ok || s.Name != "Direito Penal" {
		t.Fatalf("SubjectByID = %#v, %v", s, ok)
	}
	if _, ok := c.SubjectByID(ctx, "nope"); ok {
		t.Fatalf("SubjectByID(nope) ok = true")
	}
	if s, ok := c.ResolveSubject(ctx, "nope"); !ok || s.Name != "Direito Civil" {
		t.Fatalf("ResolveSubject fallback = %#v, %v; want first subject", s, ok)
	}

	all := c.AllBooks(ctx)
	if len(all) != 3 || all[2].Subject != "Direito Penal" {
		t.Fatalf("AllBooks = %#v, want 3 books in subject order", all)
	}
	if b, ok := c.Book(ctx, "direito-civil-0"); !ok || b.Title != "Contratos" {
		t.Fatalf("Book(direito-civil-0) = %#v, %v", b, ok)
	}
	if _, ok := c.Book(ctx, "direito-civil-99"); ok {
		t.Fatalf("Book(unknown) ok = true")
	}

	empty := New(&fakeSource{namesErr: errors.New("down"), rowCalls: map[string]int{}}, nil, nil)
	if _, ok := empty.ResolveSubject(ctx, ""); ok {
		t.Fatalf("ResolveSubject with no subjects ok = true")
	}
}

func (f *fakeSource) sheetListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nameCalls
}

// gatedSource counts a call and then blocks it until release is closed.
type gatedSource struct {
	*fakeSource
	release chan struct{}
}

func newGatedSource() *gatedSource {
	return &gatedSource{fakeSource: newFakeSource(), release: make(chan struct{})}
}

func (g *gatedSource) SheetNames(ctx context.Context) ([]string, error) {
	names, err := g.fakeSource.SheetNames(ctx)
	<-g.release
	return names, err
}

func (g *gatedSource) Rows(ctx context.Context, sheet string) ([][]string, error) {
	rows, err := g.fakeSource.Rows(ctx, sheet)
	<-g.release
	return rows, err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCatalog_ConcurrentBooksShareOneFetch(t *testing.T) {
	src := newGatedSource()
	c := New(src, nil, nil)
	ctx := context.Background()

	const callers = 8
	results := make([][]Book, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Books(ctx, "Direito Civil")
		}()
	}

	waitFor(t, func() bool { return src.calls("Direito Civil") == 1 })
	time.Sleep(20 * time.Millisecond) // let the other callers join the fetch in flight
	close(src.release)
	wg.Wait()

	if got := src.calls("Direito Civil"); got != 1 {
		t.Fatalf("Rows called %d times, want 1", got)
	}
	for i, books := range results {
		if len(books) != 2 || books[0].Title != "Obrigações" {
			t.Fatalf("caller %d got %#v, want both civil books", i, books)
		}
	}
}

func TestCatalog_ConcurrentSubjectsShareOneFetch(t *testing.T) {
	src := newGatedSource()
	c := New(src, nil, nil)
	ctx := context.Background()

	const callers = 8
	results := make([][]Subject, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Subjects(ctx)
		}()
	}

	waitFor(t, func() bool { return src.sheetListCalls() == 1 })
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if got := src.sheetListCalls(); got != 1 {
		t.Fatalf("SheetNames called %d times, want 1", got)
	}
	for i, subjects := range results {
		if len(subjects) != 2 {
			t.Fatalf("caller %d got %#v, want 2 subjects", i, subjects)
		}
	}
}

func TestCatalog_ConcurrentFillsForDifferentSubjectsBothMerge(t *testing.T) {
	src := newGatedSource()
	c := New(src, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, subject := range []string{"Direito Civil", "Direito Penal"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Books(ctx, subject)
		}()
	}
	waitFor(t, func() bool {
		return src.calls("Direito Civil") == 1 && src.calls("Direito Penal") == 1
	})
	close(src.release)
	wg.Wait()

	snap, ok := c.Cached()
	if !ok {
		t.Fatalf("Cached() = false, want an entry")
	}
	if len(snap.BooksBySubject["Direito Civil"]) != 2 || len(snap.BooksBySubject["Direito Penal"]) != 1 {
		t.Fatalf("cached books = %#v, want both subjects merged", snap.BooksBySubject)
	}
}

func TestCatalog_FillRacingClearIsDropped(t *testing.T) {
	src := newGatedSource()
	c := New(src, nil, nil)
	ctx := context.Background()

	done := make(chan []Book)
	go func() { done <- c.Books(ctx, "Direito Civil") }()
	waitFor(t, func() bool { return src.calls("Direito Civil") == 1 })

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	close(src.release)

	if books := <-done; len(books) != 2 {
		t.Fatalf("Books = %#v, want the fetched books returned to the caller", books)
	}
	if c.Fresh() {
		t.Fatalf("a fill started before Clear was written to the cache")
	}

	_ = c.Books(ctx, "Direito Civil")
	if got := src.calls("Direito Civil"); got != 2 {
		t.Fatalf("Rows called %d times, want a refetch after Clear", got)
	}
	if !c.Fresh() {
		t.Fatalf("fill after Clear was not cached")
	}
}
