package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Column aliases in priority order. The spreadsheet has been maintained in
// both English and Portuguese, so either header may be present.
var (
	titleColumns        = []string{"Title", "Nome"}
	readLinkColumns     = []string{"ReadLink", "Link"}
	coverImageColumns   = []string{"CoverImage", "Imagem"}
	synopsisColumns     = []string{"Synopsis", "Sinopse"}
	ratingColumns       = []string{"Rating", "Nota"}
	orderColumns        = []string{"Order", "Ordem"}
	downloadLinkColumns = []string{"DownloadLink", "Download"}
)

// Records turns sheet rows into header-keyed records. The first row is the
// header; short rows are padded with empty cells. Sheets without at least one
// data row yield nil.
func Records(rows [][]string) []Record {
	if len(rows) <= 1 {
		return nil
	}
	headers := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(Record, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = row[i]
			} else {
				record[header] = ""
			}
		}
		records = append(records, record)
	}
	return records
}

// NormalizeBooks maps records from one sheet onto Book values sorted by
// Order. IDs are derived from the row position before sorting so they stay
// stable when the order column changes. Blank rows produce no book but still
// take up their position.
func NormalizeBooks(subject string, records []Record) []Book {
	if len(records) == 0 {
		return nil
	}
	prefix := Slug(subject)
	books := make([]Book, 0, len(records))
	for i, record := range records {
		if blankRecord(record) {
			continue
		}
		books = append(books, Book{
			ID:           prefix + "-" + strconv.Itoa(i),
			Title:        pick(record, titleColumns),
			ReadLink:     pick(record, readLinkColumns),
			CoverImage:   pick(record, coverImageColumns),
			Synopsis:     cleanSynopsis(pick(record, synopsisColumns)),
			Rating:       pick(record, ratingColumns),
			Order:        leadingInt(pick(record, orderColumns)),
			DownloadLink: pick(record, downloadLinkColumns),
			Subject:      subject,
		})
	}
	slices.SortStableFunc(books, func(a, b Book) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return books
}

// NormalizeSubjects builds one Subject per sheet name. Every subject shares
// the CoverImage cell of the first book in sample as its icon. Only the
// English header is read here; the Imagem alias applies to books alone.
func NormalizeSubjects(names []string, sample []Record) []Subject {
	if len(names) == 0 {
		return nil
	}
	icon := ""
	if len(sample) > 0 {
		icon = strings.TrimSpace(sample[0]["CoverImage"])
	}
	subjects := make([]Subject, 0, len(names))
	for _, name := range names {
		subjects = append(subjects, Subject{
			Name: name,
			ID:   Slug(name),
			Icon: icon,
		})
	}
	return subjects
}

func blankRecord(record Record) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Slug lowercases s and replaces each run of whitespace with a hyphen.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func pick(record Record, columns []string) string {
	for _, column := range columns {
		if value := strings.TrimSpace(record[column]); value != "" {
			return value
		}
	}
	return ""
}

// leadingInt parses an optionally signed integer prefix, ignoring leading
// whitespace. Anything else yields 0.
func leadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
