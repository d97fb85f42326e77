package catalog

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField selects the key books are ordered by.
type SortField string

const (
	SortByOrder  SortField = "order"
	SortByTitle  SortField = "title"
	SortByRating SortField = "rating"
)

// Direction is the sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// SortFields lists the fields in UI cycling order.
var SortFields = []SortField{SortByOrder, SortByTitle, SortByRating}

// ParseSortField accepts the wire names of SortField. Empty means order.
func ParseSortField(s string) (SortField, error) {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByOrder:
		return SortByOrder, nil
	case SortByTitle:
		return SortByTitle, nil
	case SortByRating:
		return SortByRating, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

// ParseDirection accepts asc or desc. Empty means ascending.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Ascending:
		return Ascending, nil
	case Descending:
		return Descending, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", s)
	}
}

// Next returns the field after f in SortFields, wrapping around.
func (f SortField) Next() SortField {
	i := slices.Index(SortFields, f)
	return SortFields[(i+1)%len(SortFields)]
}

// Toggle flips the direction.
func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// Search keeps the books whose title or synopsis contains query, ignoring
// case. An empty query returns books unchanged.
func Search(books []Book, query string) []Book {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return books
	}
	var matches []Book
	for _, book := range books {
		if strings.Contains(strings.ToLower(book.Title), query) ||
			strings.Contains(strings.ToLower(book.Synopsis), query) {
			matches = append(matches, book)
		}
	}
	return matches
}

// Sort returns a sorted copy of books. Ties keep their input order.
func Sort(books []Book, by SortField, dir Direction) []Book {
	sorted := cloneBooks(books)
	if len(sorted) < 2 {
		return sorted
	}

	var compare func(a, b Book) int
	switch by {
	case SortByTitle:
		coll := collate.New(language.BrazilianPortuguese, collate.IgnoreCase, collate.IgnoreDiacritics)
		compare = func(a, b Book) int {
			return coll.CompareString(a.Title, b.Title)
		}
	case SortByRating:
		compare = func(a, b Book) int {
			return cmp.Compare(RatingValue(a.Rating), RatingValue(b.Rating))
		}
	default:
		compare = func(a, b Book) int {
			return cmp.Compare(a.Order, b.Order)
		}
	}

	if dir == Descending {
		slices.SortStableFunc(sorted, func(a, b Book) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(sorted, compare)
	}
	return sorted
}

var firstNumber = regexp.MustCompile(`\d+`)

// RatingValue extracts the first run of digits in a rating such as "4/5" or
// "Nota 8". Ratings without digits count as 0.
func RatingValue(rating string) int {
	match := firstNumber.FindString(rating)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}
