package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Refresh    key.Binding
	Back       key.Binding
	Favorites  key.Binding
	History    key.Binding
	Logs       key.Binding

	// Navigation
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Open        key.Binding
	NextSubject key.Binding
	PrevSubject key.Binding

	// Book list
	Search        key.Binding
	CycleSort     key.Binding
	ToggleSortDir key.Binding

	// Book actions
	ToggleFavorite key.Binding
	Read           key.Binding
	ProgressUp     key.Binding
	ProgressDown   key.Binding
	CopyLink       key.Binding
	Download       key.Binding
	Explain        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh catalog"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "Back"),
		),
		Favorites: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Favorites"),
		),
		History: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "History"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Logs"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "Up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "Down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Bottom"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open"),
		),
		NextSubject: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next subject"),
		),
		PrevSubject: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous subject"),
		),

		// Book list
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle sort"),
		),
		ToggleSortDir: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Flip direction"),
		),

		// Book actions
		ToggleFavorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Toggle favorite"),
		),
		Read: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Read"),
		),
		ProgressUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Progress +10%"),
		),
		ProgressDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Progress -10%"),
		),
		CopyLink: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy link"),
		),
		Download: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Download"),
		),
		Explain: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Explain"),
		),
	}
}
