package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/catalog"
)

// renderBooks renders the book list of the current subject.
func (m Model) renderBooks() string {
	styles := m.theme.Styles()
	height := m.contentHeight()

	var title strings.Builder
	title.WriteString(styles.Title.Render(fmt.Sprintf(" %s %s", m.subject.Icon, m.subject.Name)))
	title.WriteString(styles.MutedText.Render(fmt.Sprintf("  %d books · sort %s %s", len(m.visible), m.sortField, dirArrow(m.sortDir))))
	if m.searching {
		title.WriteString("  " + m.search.View())
	} else if m.query != "" {
		title.WriteString(styles.AccentText.Render(fmt.Sprintf("  filter %q", m.query)))
	}
	header := lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(title.String())

	switch {
	case m.loadingBooks:
		return header + "\n" + padLines(styles.MutedText.Render("  Loading books..."), height-1)
	case len(m.books) == 0:
		return header + "\n" + padLines(styles.WarningText.Render("  No books in this subject."), height-1)
	case len(m.visible) == 0:
		return header + "\n" + padLines(styles.MutedText.Render("  No books match the search."), height-1)
	}

	rows := make([]string, len(m.visible))
	for i, b := range m.visible {
		rows[i] = m.bookRow(b)
	}
	return header + "\n" + m.renderList(rows, m.bookIdx, height-1)
}

// bookRow formats one line of a book list.
func (m Model) bookRow(b catalog.Book) string {
	mark := "  "
	if m.library != nil && m.library.IsFavorite(b.ID) {
		mark = "★ "
	}
	rating := ""
	if b.Rating != "" {
		rating = "  [" + b.Rating + "]"
	}
	return fmt.Sprintf(" %s%3d  %s%s", mark, b.Order, b.Title, rating)
}

// handleBooksKey handles keys in the book list.
func (m Model) handleBooksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if idx, ok := m.moveCursor(msg, m.bookIdx, len(m.visible)); ok {
		m.bookIdx = idx
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Open):
		if book, ok := m.selectedBook(); ok {
			m.openDetail(book)
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortField = m.sortField.Next()
		m.applyFilters()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSortDir):
		m.sortDir = m.sortDir.Toggle()
		m.applyFilters()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleFavorite):
		if book, ok := m.selectedBook(); ok {
			m.toggleFavorite(book)
		}
		return m, nil

	case key.Matches(msg, m.keys.NextSubject):
		return m.selectSubject((m.subjectIdx + 1) % max(len(m.subjects), 1))

	case key.Matches(msg, m.keys.PrevSubject):
		n := max(len(m.subjects), 1)
		return m.selectSubject((m.subjectIdx - 1 + n) % n)
	}
	return m, nil
}

// handleSearchKey feeds the search field and filters as the user types.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.query = ""
		m.applyFilters()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query = m.search.Value()
	m.applyFilters()
	return m, cmd
}

// applyFilters recomputes the visible books from books, query and sort.
func (m *Model) applyFilters() {
	m.visible = catalog.Sort(catalog.Search(m.books, m.query), m.sortField, m.sortDir)
	m.bookIdx = clampIndex(m.bookIdx, len(m.visible))
}

func (m Model) selectedBook() (catalog.Book, bool) {
	if len(m.visible) == 0 {
		return catalog.Book{}, false
	}
	return m.visible[clampIndex(m.bookIdx, len(m.visible))], true
}

// toggleFavorite flips book in the library and reports the outcome.
func (m *Model) toggleFavorite(book catalog.Book) {
	if m.library == nil {
		m.setFlash("Library unavailable", true)
		return
	}
	added, err := m.library.ToggleFavorite(book.ID)
	if err != nil {
		m.logger.Warn("toggle favorite failed", zap.String("book", book.ID), zap.Error(err))
		m.setFlash("Favorite not saved: "+err.Error(), true)
		return
	}
	if added {
		m.setFlash("Added to favorites: "+book.Title, false)
	} else {
		m.setFlash("Removed from favorites: "+book.Title, false)
	}
}

func dirArrow(d catalog.Direction) string {
	if d == catalog.Descending {
		return "↓"
	}
	return "↑"
}
