package catalog

import "context"

// Book is the canonical record for one spreadsheet row.
type Book struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ReadLink     string `json:"readLink"`
	CoverImage   string `json:"coverImage"`
	Synopsis     string `json:"synopsis"`
	Rating       string `json:"rating"`
	Order        int    `json:"order"`
	DownloadLink string `json:"downloadLink"`
	Subject      string `json:"subject"`
}

// Subject is one sheet of the spreadsheet.
type Subject struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Icon string `json:"icon"`
}

// Record maps header names to cell values for a single row.
type Record = map[string]string

// Source provides raw spreadsheet data. The first row of every sheet is the
// header row.
type Source interface {
	SheetNames(ctx context.Context) ([]string, error)
	Rows(ctx context.Context, sheet string) ([][]string, error)
}

// Snapshot is the normalized catalog as stored in the cache.
type Snapshot struct {
	Subjects       []Subject         `json:"subjects"`
	BooksBySubject map[string][]Book `json:"booksBySubject"`
}

// BookCount totals the books across all subjects.
func (s Snapshot) BookCount() int {
	total := 0
	for _, books := range s.BooksBySubject {
		total += len(books)
	}
	return total
}

func (s Snapshot) clone() Snapshot {
	dup := Snapshot{
		Subjects:       cloneSubjects(s.Subjects),
		BooksBySubject: make(map[string][]Book, len(s.BooksBySubject)),
	}
	for name, books := range s.BooksBySubject {
		dup.BooksBySubject[name] = cloneBooks(books)
	}
	return dup
}

func cloneBooks(books []Book) []Book {
	if len(books) == 0 {
		return nil
	}
	dup := make([]Book, len(books))
	copy(dup, books)
	return dup
}

func cloneSubjects(subjects []Subject) []Subject {
	if len(subjects) == 0 {
		return nil
	}
	dup := make([]Subject, len(subjects))
	copy(dup, subjects)
	return dup
}
