package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// renderSubjects renders the subject list.
func (m Model) renderSubjects() string {
	styles := m.theme.Styles()
	height := m.contentHeight()

	if m.loadingSubjects {
		return padLines(styles.MutedText.Render("  Loading subjects..."), height)
	}
	if len(m.subjects) == 0 {
		msg := "  No subjects found. Press r to refresh."
		if m.snapshot.LastError != nil {
			msg = "  Catalog unavailable: " + m.snapshot.LastError.Error()
		}
		return padLines(styles.WarningText.Render(msg), height)
	}

	rows := make([]string, len(m.subjects))
	for i, s := range m.subjects {
		icon := s.Icon
		if icon == "" {
			icon = "•"
		}
		rows[i] = fmt.Sprintf(" %s  %s", icon, s.Name)
	}

	title := styles.Title.Render(fmt.Sprintf(" Subjects (%d)", len(m.subjects)))
	return title + "\n" + m.renderList(rows, m.subjectIdx, height-1)
}

// handleSubjectsKey handles keys in the subject list.
func (m Model) handleSubjectsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if idx, ok := m.moveCursor(msg, m.subjectIdx, len(m.subjects)); ok {
		m.subjectIdx = idx
		return m, nil
	}
	if key.Matches(msg, m.keys.Open) && len(m.subjects) > 0 {
		return m.selectSubject(m.subjectIdx)
	}
	return m, nil
}

// selectSubject switches the book list to the subject at idx.
func (m Model) selectSubject(idx int) (tea.Model, tea.Cmd) {
	if len(m.subjects) == 0 {
		return m, nil
	}
	m.subjectIdx = clampIndex(idx, len(m.subjects))
	m.subject = m.subjects[m.subjectIdx]
	m.view = ViewBooks
	m.books = nil
	m.visible = nil
	m.bookIdx = 0
	m.query = ""
	m.search.SetValue("")
	m.loadingBooks = true
	if m.lastSubject != m.subject.ID {
		m.lastSubject = m.subject.ID
		m.savePrefs()
	}
	return m, m.loadBooksCmd(m.subject.Name)
}

// moveCursor applies the shared navigation keys to a list cursor.
func (m Model) moveCursor(msg tea.KeyMsg, idx, n int) (int, bool) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if idx > 0 {
			idx--
		}
	case key.Matches(msg, m.keys.Down):
		if idx < n-1 {
			idx++
		}
	case key.Matches(msg, m.keys.Top):
		idx = 0
	case key.Matches(msg, m.keys.Bottom):
		idx = n - 1
	default:
		return idx, false
	}
	return clampIndex(idx, n), true
}

// renderList renders rows in a window of height lines that keeps selected
// visible.
func (m Model) renderList(rows []string, selected, height int) string {
	styles := m.theme.Styles()
	if height < 1 {
		height = 1
	}

	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	end := min(start+height, len(rows))

	lines := make([]string, 0, height)
	for i := start; i < end; i++ {
		row := truncate(rows[i], max(m.width-1, 1))
		if i == selected {
			lines = append(lines, styles.Selected.Render(padRight(row, m.width)))
		} else {
			lines = append(lines, styles.Text.Render(row))
		}
	}
	return padLines(strings.Join(lines, "\n"), height)
}

func clampIndex(idx, n int) int {
	if n <= 0 || idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
