// Package ui implements the interactive terminal reader on Bubble Tea.
//
// The root Model owns every view: the subject list, the book list of one
// subject with search and sorting, the book detail with its actions, the
// favorites and history lists, the AI explanation and the log tail. Data is
// fetched through tea.Cmd functions so Update never blocks; responses for a
// subject the user already left are dropped.
//
// Theme, sort field and direction are written to the preferences file as
// soon as they change.
package ui
