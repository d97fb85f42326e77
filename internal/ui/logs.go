package ui

import (
	"strings"

	"github.com/five82/shelf/internal/logtail"
)

func (m Model) renderLogs() string {
	if len(m.logLines) == 0 {
		styles := m.theme.Styles()
		msg := "  No log entries yet."
		if m.logPath == "" {
			msg = "  Logging to a file is disabled."
		}
		return padLines(styles.MutedText.Render(msg), m.contentHeight())
	}
	return m.logView.View()
}

// updateLogViewport colors each line by level and keeps the view pinned to the
// newest entry when it was already at the bottom.
func (m *Model) updateLogViewport() {
	styles := m.theme.Styles()
	atBottom := m.logView.AtBottom()

	rendered := make([]string, len(m.logLines))
	for i, line := range m.logLines {
		text := logtail.Format(line)
		if level := logtail.Level(line); level != "" {
			rendered[i] = styles.LevelStyle(level).Render(text)
		} else {
			rendered[i] = styles.Text.Render(text)
		}
	}
	m.logView.SetContent(strings.Join(rendered, "\n"))
	if atBottom || m.logView.YOffset == 0 {
		m.logView.GotoBottom()
	}
}
