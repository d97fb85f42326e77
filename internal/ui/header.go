package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the top status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	left := styles.Logo.Render("shelf") + styles.MutedText.Render(" · "+m.view.String())

	var status []string
	snap := m.snapshot
	switch {
	case m.refreshing:
		status = append(status, styles.InfoText.Render("refreshing"))
	case snap.IsOffline():
		status = append(status, styles.DangerText.Render("offline"))
	case snap.LastError != nil:
		status = append(status, styles.WarningText.Render("refresh failed"))
	}
	if snap.HasCatalog {
		status = append(status, styles.Text.Render(fmt.Sprintf("%d subjects · %d books", len(snap.Subjects), snap.BookCount)))
	}
	if !snap.LastSuccess.IsZero() {
		status = append(status, styles.MutedText.Render("updated "+humanizeDuration(snap.Age(time.Now()))+" ago"))
	}
	if m.flash != "" {
		style := styles.SuccessText
		if m.flashBad {
			style = styles.DangerText
		}
		status = append(status, style.Render(m.flash))
	}
	right := strings.Join(status, styles.FaintText.Render("  "))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return styles.Header.Width(max(m.width, 1)).MaxWidth(max(m.width, 1)).Render(line)
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()

	var hints []string
	switch m.view {
	case ViewSubjects:
		hints = []string{"enter open", "F favorites", "H history", "r refresh"}
	case ViewBooks:
		if m.searching {
			hints = []string{"enter done", "esc clear"}
		} else {
			hints = []string{"enter open", "/ search", "s sort", "S direction", "f favorite", "tab subject", "esc back"}
		}
	case ViewDetail:
		hints = []string{"o read", "+/- progress", "f favorite", "y copy", "D download", "a explain", "esc back"}
	case ViewFavorites:
		hints = []string{"enter open", "f remove", "esc back"}
	case ViewHistory:
		hints = []string{"enter open", "esc back"}
	case ViewExplain, ViewLogs:
		hints = []string{"↑/↓ scroll", "esc back"}
	}
	hints = append(hints, "? help", "q quit")

	return styles.Footer.Width(max(m.width, 1)).MaxWidth(max(m.width, 1)).Render(strings.Join(hints, " · "))
}
