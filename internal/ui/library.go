package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/library"
)

// handleLibraryBooks resolves favorites or history against the catalog.
func (m Model) handleLibraryBooks(msg libraryBooksMsg) (tea.Model, tea.Cmd) {
	if m.library == nil {
		return m, nil
	}
	switch msg.target {
	case ViewFavorites:
		m.favorites = library.ResolveFavorites(m.library.Favorites(), msg.books)
		m.favIdx = clampIndex(m.favIdx, len(m.favorites))
	case ViewHistory:
		m.history = library.Resolve(m.library.History(), msg.books)
		m.histIdx = clampIndex(m.histIdx, len(m.history))
	}
	return m, nil
}

func (m Model) renderFavorites() string {
	styles := m.theme.Styles()
	height := m.contentHeight()
	title := styles.Title.Render(fmt.Sprintf(" ★ Favorites (%d)", len(m.favorites)))

	if len(m.favorites) == 0 {
		return title + "\n" + padLines(styles.MutedText.Render("  No favorites yet. Press f on a book to add one."), height-1)
	}

	rows := make([]string, len(m.favorites))
	for i, b := range m.favorites {
		rows[i] = fmt.Sprintf("  %s  · %s", b.Title, b.Subject)
	}
	return title + "\n" + m.renderList(rows, m.favIdx, height-1)
}

func (m Model) handleFavoritesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if idx, ok := m.moveCursor(msg, m.favIdx, len(m.favorites)); ok {
		m.favIdx = idx
		return m, nil
	}
	if len(m.favorites) == 0 {
		return m, nil
	}
	book := m.favorites[clampIndex(m.favIdx, len(m.favorites))]

	switch {
	case key.Matches(msg, m.keys.Open):
		m.openDetail(book)
	case key.Matches(msg, m.keys.ToggleFavorite):
		m.toggleFavorite(book)
		return m, m.loadLibraryBooksCmd(ViewFavorites)
	}
	return m, nil
}

func (m Model) renderHistory() string {
	styles := m.theme.Styles()
	height := m.contentHeight()
	title := styles.Title.Render(fmt.Sprintf(" History (%d)", len(m.history)))

	if len(m.history) == 0 {
		return title + "\n" + padLines(styles.MutedText.Render("  Nothing read yet. Press o on a book to start."), height-1)
	}

	now := time.Now()
	rows := make([]string, len(m.history))
	for i, item := range m.history {
		rows[i] = fmt.Sprintf("  %3.0f%%  %s  · %s ago", item.Progress, item.Book.Title, humanizeDuration(now.Sub(item.LastRead)))
	}
	return title + "\n" + m.renderList(rows, m.histIdx, height-1)
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if idx, ok := m.moveCursor(msg, m.histIdx, len(m.history)); ok {
		m.histIdx = idx
		return m, nil
	}
	if len(m.history) == 0 {
		return m, nil
	}
	if key.Matches(msg, m.keys.Open) {
		m.openDetail(m.history[clampIndex(m.histIdx, len(m.history))].Book)
	}
	return m, nil
}
