package catalog

import (
	"math"
	"testing"
)

func titles(books []Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sampleBooks() []Book {
	return []Book{
		{ID: "a", Title: "banana", Rating: "Nota 3", Order: 2, Synopsis: "frutas do norte"},
		{ID: "b", Title: "Árvore", Rating: "5/5", Order: 3},
		{ID: "c", Title: "Abacate", Rating: "", Order: 1, Synopsis: "Guia de Contratos"},
		{ID: "d", Title: "cacau", Rating: "10", Order: 2},
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		by   SortField
		dir  Direction
		want []string
	}{
		{"order asc keeps ties stable", SortByOrder, Ascending, []string{"Abacate", "banana", "cacau", "Árvore"}},
		{"order desc", SortByOrder, Descending, []string{"Árvore", "banana", "cacau", "Abacate"}},
		{"title asc ignores case and accents", SortByTitle, Ascending, []string{"Abacate", "Árvore", "banana", "cacau"}},
		{"title desc", SortByTitle, Descending, []string{"cacau", "banana", "Árvore", "Abacate"}},
		{"rating asc", SortByRating, Ascending, []string{"Abacate", "banana", "Árvore", "cacau"}},
		{"rating desc", SortByRating, Descending, []string{"cacau", "Árvore", "banana", "Abacate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleBooks()
			got := titles(Sort(in, tt.by, tt.dir))
			if !equalStrings(got, tt.want) {
				t.Fatalf("Sort(%s, %s) = %v, want %v", tt.by, tt.dir, got, tt.want)
			}
			if in[0].Title != "banana" {
				t.Fatalf("Sort mutated its input")
			}
		})
	}
}

func TestSort_ExtremeValues(t *testing.T) {
	books := []Book{
		{Title: "max", Order: math.MaxInt64, Rating: "9223372036854775807"},
		{Title: "negative", Order: -5, Rating: "1"},
		{Title: "min", Order: math.MinInt64, Rating: "0"},
		{Title: "three", Order: 3, Rating: "3"},
	}

	if got, want := titles(Sort(books, SortByOrder, Ascending)), []string{"min", "negative", "three", "max"}; !equalStrings(got, want) {
		t.Fatalf("Sort by order = %v, want %v", got, want)
	}
	if got, want := titles(Sort(books, SortByOrder, Descending)), []string{"max", "three", "negative", "min"}; !equalStrings(got, want) {
		t.Fatalf("Sort by order desc = %v, want %v", got, want)
	}
	if got, want := titles(Sort(books, SortByRating, Ascending)), []string{"min", "negative", "three", "max"}; !equalStrings(got, want) {
		t.Fatalf("Sort by rating = %v, want %v", got, want)
	}
}

func TestSearch(t *testing.T) {
	books := sampleBooks()
	if got := Search(books, ""); len(got) != len(books) {
		t.Fatalf("Search(\"\") = %d books, want all", len(got))
	}
	if got := titles(Search(books, "CONTRATOS")); !equalStrings(got, []string{"Abacate"}) {
		t.Fatalf("Search(synopsis) = %v, want [Abacate]", got)
	}
	if got := titles(Search(books, "ca")); !equalStrings(got, []string{"Abacate", "cacau"}) {
		t.Fatalf("Search(ca) = %v, want [Abacate cacau]", got)
	}
	if got := Search(books, "zzz"); len(got) != 0 {
		t.Fatalf("Search(zzz) = %v, want none", got)
	}
}

func TestRatingValue(t *testing.T) {
	tests := map[string]int{
		"":       0,
		"5":      5,
		"4/5":    4,
		"Nota 8": 8,
		"★★★":    0,
		"12.5":   12,
	}
	for in, want := range tests {
		if got := RatingValue(in); got != want {
			t.Errorf("RatingValue(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseSortFieldAndDirection(t *testing.T) {
	if f, err := ParseSortField(""); err != nil || f != SortByOrder {
		t.Fatalf("ParseSortField(\"\") = %q, %v", f, err)
	}
	if f, err := ParseSortField(" Title "); err != nil || f != SortByTitle {
		t.Fatalf("ParseSortField(Title) = %q, %v", f, err)
	}
	if _, err := ParseSortField("pages"); err == nil {
		t.Fatalf("ParseSortField(pages) returned nil error")
	}
	if d, err := ParseDirection("DESC"); err != nil || d != Descending {
		t.Fatalf("ParseDirection(DESC) = %q, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatalf("ParseDirection(sideways) returned nil error")
	}
	if SortByRating.Next() != SortByOrder || SortByOrder.Next() != SortByTitle {
		t.Fatalf("SortField.Next does not cycle")
	}
	if Ascending.Toggle() != Descending || Descending.Toggle() != Ascending {
		t.Fatalf("Direction.Toggle does not flip")
	}
}
