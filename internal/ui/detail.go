package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/catalog"
	"github.com/five82/shelf/internal/explain"
)

const progressBarWidth = 20

// renderDetail renders the selected book.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	b := m.detail
	width := max(m.width-4, 20)

	var lines []string
	lines = append(lines, styles.Title.Render(b.Title))

	meta := []string{b.Subject}
	if b.Order > 0 {
		meta = append(meta, fmt.Sprintf("#%d", b.Order))
	}
	if b.Rating != "" {
		meta = append(meta, "rating "+b.Rating)
	}
	lines = append(lines, styles.MutedText.Render(strings.Join(meta, " · ")))

	if m.library != nil {
		fav := styles.FaintText.Render("☆ not a favorite")
		if m.library.IsFavorite(b.ID) {
			fav = styles.WarningText.Render("★ favorite")
		}
		lines = append(lines, fav)
		if p, ok := m.library.Progress(b.ID); ok {
			lines = append(lines, m.renderProgress(p))
		}
	}

	lines = append(lines, "")
	synopsis := b.Synopsis
	if synopsis == "" {
		synopsis = "No synopsis."
	}
	lines = append(lines, lipgloss.NewStyle().Width(width).Render(synopsis))
	lines = append(lines, "")

	lines = append(lines, linkLine(styles, "Read", b.ReadLink))
	lines = append(lines, linkLine(styles, "Download", b.DownloadLink))
	if b.CoverImage != "" {
		lines = append(lines, linkLine(styles, "Cover", b.CoverImage))
	}

	return padLines(styles.Panel.Width(width).Render(strings.Join(lines, "\n")), m.contentHeight())
}

func (m Model) renderProgress(p float64) string {
	styles := m.theme.Styles()
	filled := int(p / 100 * progressBarWidth)
	bar := styles.SuccessText.Render(strings.Repeat("█", filled)) +
		styles.FaintText.Render(strings.Repeat("░", progressBarWidth-filled))
	return fmt.Sprintf("%s %3.0f%%", bar, p)
}

func linkLine(styles Styles, label, link string) string {
	if link == "" {
		return styles.FaintText.Render(fmt.Sprintf("%-9s –", label))
	}
	return styles.MutedText.Render(fmt.Sprintf("%-9s ", label)) + styles.InfoText.Render(link)
}

// handleDetailKey handles the book actions.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	book := m.detail

	switch {
	case key.Matches(msg, m.keys.ToggleFavorite):
		m.toggleFavorite(book)
		return m, nil

	case key.Matches(msg, m.keys.Read):
		progress, _ := m.currentProgress(book.ID)
		m.recordHistory(book, progress)
		return m, openLinkCmd(book.ReadLink, "read")

	case key.Matches(msg, m.keys.ProgressUp):
		progress, _ := m.currentProgress(book.ID)
		m.recordHistory(book, progress+progressStep)
		return m, nil

	case key.Matches(msg, m.keys.ProgressDown):
		progress, _ := m.currentProgress(book.ID)
		m.recordHistory(book, progress-progressStep)
		return m, nil

	case key.Matches(msg, m.keys.CopyLink):
		return m, copyLinkCmd(book.ReadLink)

	case key.Matches(msg, m.keys.Download):
		return m, openLinkCmd(book.DownloadLink, "download")

	case key.Matches(msg, m.keys.Explain):
		return m.startExplain(book)
	}
	return m, nil
}

func (m Model) currentProgress(id string) (float64, bool) {
	if m.library == nil {
		return 0, false
	}
	return m.library.Progress(id)
}

// recordHistory stamps book as read now with progress.
func (m *Model) recordHistory(book catalog.Book, progress float64) {
	if m.library == nil {
		return
	}
	if err := m.library.AddToHistory(book.ID, progress); err != nil {
		m.logger.Warn("record history failed", zap.String("book", book.ID), zap.Error(err))
		m.setFlash("History not saved: "+err.Error(), true)
	}
}

// startExplain switches to the explanation view and asks for one.
func (m Model) startExplain(book catalog.Book) (tea.Model, tea.Cmd) {
	if !m.explainer.Enabled() {
		m.setFlash("Explanations need a Gemini API key", true)
		return m, nil
	}
	m.view = ViewExplain
	m.explainView.GotoTop()
	if m.explainFor == book.ID && !m.explaining && m.explainText != "" && m.explainText != explain.FailureText {
		return m, nil
	}
	m.explainFor = book.ID
	m.explainText = ""
	m.explaining = true
	m.updateExplainViewport()
	return m, m.explainCmd(book)
}
