package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/catalog"
	"github.com/five82/shelf/internal/logtail"
	"github.com/five82/shelf/internal/state"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type subjectsMsg struct {
	subjects []catalog.Subject
}

type booksMsg struct {
	subject string
	books   []catalog.Book
}

// libraryBooksMsg carries the full catalog for resolving favorites or history.
type libraryBooksMsg struct {
	target View
	books  []catalog.Book
}

type explainMsg struct {
	bookID string
	text   string
}

type refreshedMsg struct {
	snapshot catalog.Snapshot
	err      error
}

type logLinesMsg struct {
	lines []string
	err   error
}

type flashMsg struct {
	text string
	bad  bool
}

// Side effects that reach outside the terminal. Tests replace them.
var (
	writeClipboard = clipboard.WriteAll
	openInBrowser  = openURL
)

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) loadSubjectsCmd() tea.Cmd {
	cat, ctx := m.catalog, m.ctx
	return func() tea.Msg {
		if cat == nil {
			return subjectsMsg{}
		}
		return subjectsMsg{subjects: cat.Subjects(ctx)}
	}
}

func (m Model) loadBooksCmd(subject string) tea.Cmd {
	cat, ctx := m.catalog, m.ctx
	return func() tea.Msg {
		if cat == nil {
			return booksMsg{subject: subject}
		}
		return booksMsg{subject: subject, books: cat.Books(ctx, subject)}
	}
}

func (m Model) loadLibraryBooksCmd(target View) tea.Cmd {
	cat, ctx := m.catalog, m.ctx
	return func() tea.Msg {
		if cat == nil {
			return libraryBooksMsg{target: target}
		}
		return libraryBooksMsg{target: target, books: cat.AllBooks(ctx)}
	}
}

func (m Model) explainCmd(book catalog.Book) tea.Cmd {
	explainer, ctx := m.explainer, m.ctx
	return func() tea.Msg {
		return explainMsg{bookID: book.ID, text: explainer.Explain(ctx, book)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	cat, ctx, store := m.catalog, m.ctx, m.store
	return func() tea.Msg {
		if cat == nil {
			return refreshedMsg{err: fmt.Errorf("no catalog configured")}
		}
		snap, err := cat.Refresh(ctx)
		if store != nil {
			store.Update(snap.Subjects, snap.BookCount(), err)
		}
		return refreshedMsg{snapshot: snap, err: err}
	}
}

func (m Model) readLogsCmd() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		if strings.TrimSpace(path) == "" {
			return logLinesMsg{}
		}
		lines, err := logtail.Read(path, logFetchLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

func copyLinkCmd(link string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(link) == "" {
			return flashMsg{text: "No link to copy", bad: true}
		}
		if err := writeClipboard(link); err != nil {
			return flashMsg{text: "Copy failed: " + err.Error(), bad: true}
		}
		return flashMsg{text: "Link copied to clipboard"}
	}
}

func openLinkCmd(link, what string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(link) == "" {
			return flashMsg{text: "No " + what + " link for this book", bad: true}
		}
		if err := openInBrowser(link); err != nil {
			return flashMsg{text: "Open failed: " + err.Error(), bad: true}
		}
		return flashMsg{text: "Opened " + what + " link"}
	}
}

// openURL hands url to the desktop's default handler.
func openURL(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
