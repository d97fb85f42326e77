package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	k := m.keys

	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Global", []key.Binding{k.Quit, k.Help, k.CycleTheme, k.Refresh, k.Back, k.Favorites, k.History, k.Logs}},
		{"Navigation", []key.Binding{k.Up, k.Down, k.Top, k.Bottom, k.Open, k.NextSubject, k.PrevSubject}},
		{"Books", []key.Binding{k.Search, k.CycleSort, k.ToggleSortDir, k.ToggleFavorite}},
		{"Book", []key.Binding{k.Read, k.ProgressUp, k.ProgressDown, k.CopyLink, k.Download, k.Explain}},
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Keyboard shortcuts"))
	b.WriteString("\n")
	for _, section := range sections {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %s %s\n",
				styles.WarningText.Render(fmt.Sprintf("%-10s", h.Key)),
				styles.Text.Render(h.Desc)))
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("Theme: %s · press any key to close", m.theme.Name)))

	panel := styles.Panel.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
