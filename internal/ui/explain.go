package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

func (m Model) renderExplain() string {
	styles := m.theme.Styles()
	title := styles.Title.Render(" Explain: "+m.detail.Title) +
		styles.MutedText.Render("  ↑/↓ scroll · esc back")
	if m.explaining {
		return title + "\n\n" + padLines(styles.MutedText.Render("  Asking the model..."), m.contentHeight()-2)
	}
	return title + "\n\n" + m.explainView.View()
}

// updateExplainViewport renders the explanation as markdown for the current
// theme and width.
func (m *Model) updateExplainViewport() {
	if m.explainText == "" {
		m.explainView.SetContent("")
		return
	}
	m.explainView.SetContent(renderMarkdown(m.explainText, m.theme.GlamourStyle, m.width))
}

// renderMarkdown falls back to the raw text when glamour cannot render it.
func renderMarkdown(text, style string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
