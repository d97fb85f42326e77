package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/catalog"
	"github.com/five82/shelf/internal/explain"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewSubjects View = iota
	ViewBooks
	ViewDetail
	ViewFavorites
	ViewHistory
	ViewExplain
	ViewLogs
)

func (v View) String() string {
	switch v {
	case ViewBooks:
		return "Books"
	case ViewDetail:
		return "Book"
	case ViewFavorites:
		return "Favorites"
	case ViewHistory:
		return "History"
	case ViewExplain:
		return "Explain"
	case ViewLogs:
		return "Logs"
	default:
		return "Subjects"
	}
}

const (
	defaultTick   = time.Second
	logFetchLimit = 500
	progressStep  = 10
	flashLifetime = 4 * time.Second
	chromeHeight  = 2 // header and command bar
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Catalog   *catalog.Catalog
	Library   *library.Library
	Explainer *explain.Explainer
	Store     *state.Store
	Logger    *zap.Logger
	LogPath   string
	Prefs     prefs.Prefs
	PrefsPath string
	Tick      time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	catalog   *catalog.Catalog
	library   *library.Library
	explainer *explain.Explainer
	store     *state.Store
	logger    *zap.Logger
	logPath   string
	prefsPath string
	tick      time.Duration
	keys      keyMap

	// UI state
	theme    Theme
	view     View
	back     View // where Back leaves the detail view
	width    int
	height   int
	ready    bool
	showHelp bool
	flash    string
	flashBad bool
	flashAt  time.Time

	// Refresh status
	snapshot   state.Snapshot
	refreshing bool

	// Subjects
	subjects        []catalog.Subject
	subjectIdx      int
	loadingSubjects bool
	lastSubject     string // ID restored from prefs on the first load

	// Books of the current subject
	subject      catalog.Subject
	books        []catalog.Book
	visible      []catalog.Book
	bookIdx      int
	loadingBooks bool
	sortField    catalog.SortField
	sortDir      catalog.Direction
	query        string
	searching    bool
	search       textinput.Model

	// Detail
	detail catalog.Book

	// Favorites and history
	favorites []catalog.Book
	favIdx    int
	history   []library.HistoryItem
	histIdx   int

	// Explanation
	explainFor  string
	explainText string
	explaining  bool
	explainView viewport.Model

	// Logs
	logLines []string
	logView  viewport.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	sortField, err := catalog.ParseSortField(opts.Prefs.Sort)
	if err != nil {
		sortField = catalog.SortByOrder
	}
	sortDir, err := catalog.ParseDirection(opts.Prefs.Direction)
	if err != nil {
		sortDir = catalog.Ascending
	}

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "title or synopsis"
	search.CharLimit = 120

	return Model{
		ctx:             ctx,
		catalog:         opts.Catalog,
		library:         opts.Library,
		explainer:       opts.Explainer,
		store:           opts.Store,
		logger:          logger,
		logPath:         opts.LogPath,
		prefsPath:       prefsPath,
		tick:            tick,
		keys:            DefaultKeyMap(),
		theme:           GetTheme(opts.Prefs.Theme),
		view:            ViewSubjects,
		loadingSubjects: true,
		sortField:       sortField,
		sortDir:         sortDir,
		lastSubject:     opts.Prefs.LastSubject,
		search:          search,
		explainView:     viewport.New(0, 0),
		logView:         viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.tick),
		m.loadSubjectsCmd(),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeViewports()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		if len(m.subjects) == 0 && !m.loadingSubjects && len(m.snapshot.Subjects) > 0 {
			// The first load failed but the refresher has since succeeded.
			m.subjects = m.snapshot.Subjects
		}
		if subj, ok := m.snapshot.Subject(m.subject.ID); ok && m.subject.ID != "" {
			m.subject.Icon = subj.Icon
		}
		return m, nil

	case subjectsMsg:
		m.loadingSubjects = false
		m.subjects = msg.subjects
		m.subjectIdx = clampIndex(m.subjectIdx, len(m.subjects))
		if m.lastSubject != "" {
			for i, s := range m.subjects {
				if s.ID == m.lastSubject {
					m.subjectIdx = i
					break
				}
			}
		}
		return m, nil

	case booksMsg:
		if msg.subject != m.subject.Name {
			return m, nil // stale response for a subject we already left
		}
		m.loadingBooks = false
		m.books = msg.books
		m.applyFilters()
		return m, nil

	case libraryBooksMsg:
		return m.handleLibraryBooks(msg)

	case explainMsg:
		if msg.bookID != m.explainFor {
			return m, nil
		}
		m.explaining = false
		m.explainText = msg.text
		m.updateExplainViewport()
		return m, nil

	case refreshedMsg:
		m.refreshing = false
		if msg.err != nil {
			m.setFlash("Refresh failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setFlash("Catalog refreshed", false)
		m.subjects = msg.snapshot.Subjects
		m.subjectIdx = clampIndex(m.subjectIdx, len(m.subjects))
		if m.subject.Name != "" {
			m.books = msg.snapshot.BooksBySubject[m.subject.Name]
			m.applyFilters()
		}
		return m, nil

	case logLinesMsg:
		if msg.err != nil {
			m.logger.Debug("read log failed", zap.Error(msg.err))
			return m, nil
		}
		m.logLines = msg.lines
		m.updateLogViewport()
		return m, nil

	case flashMsg:
		m.setFlash(msg.text, msg.bad)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateExplainViewport()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		m.setFlash("Refreshing catalog...", false)
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Favorites):
		m.view = ViewFavorites
		m.favIdx = 0
		return m, m.loadLibraryBooksCmd(ViewFavorites)

	case key.Matches(msg, m.keys.History):
		m.view = ViewHistory
		m.histIdx = 0
		return m, m.loadLibraryBooksCmd(ViewHistory)

	case key.Matches(msg, m.keys.Logs):
		m.view = ViewLogs
		return m, m.readLogsCmd()

	case key.Matches(msg, m.keys.Back):
		from := m.view
		m.goBack()
		if from == ViewDetail && (m.view == ViewFavorites || m.view == ViewHistory) {
			return m, m.loadLibraryBooksCmd(m.view)
		}
		return m, nil
	}

	// View-specific keys
	switch m.view {
	case ViewSubjects:
		return m.handleSubjectsKey(msg)
	case ViewBooks:
		return m.handleBooksKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewFavorites:
		return m.handleFavoritesKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	case ViewExplain:
		var cmd tea.Cmd
		m.explainView, cmd = m.explainView.Update(msg)
		return m, cmd
	case ViewLogs:
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}

	return m, nil
}

// goBack walks one level up the view hierarchy.
func (m *Model) goBack() {
	switch m.view {
	case ViewBooks:
		if m.query != "" {
			m.query = ""
			m.search.SetValue("")
			m.applyFilters()
			return
		}
		m.view = ViewSubjects
	case ViewDetail:
		m.view = m.back
	case ViewExplain:
		m.view = ViewDetail
	case ViewFavorites, ViewHistory, ViewLogs:
		if m.subject.Name != "" {
			m.view = ViewBooks
		} else {
			m.view = ViewSubjects
		}
	}
}

// openDetail shows book and remembers where to return.
func (m *Model) openDetail(book catalog.Book) {
	m.back = m.view
	m.detail = book
	m.view = ViewDetail
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.view == ViewLogs {
		cmds = append(cmds, m.readLogsCmd())
	}
	if m.flash != "" && time.Since(m.flashAt) > flashLifetime {
		m.flash = ""
	}

	cmds = append(cmds, tickCmd(m.tick))
	return m, tea.Batch(cmds...)
}

func (m *Model) setFlash(text string, bad bool) {
	m.flash = text
	m.flashBad = bad
	m.flashAt = time.Now()
}

func (m Model) savePrefs() {
	p := prefs.Prefs{
		Theme:       m.theme.Name,
		Sort:        string(m.sortField),
		Direction:   string(m.sortDir),
		LastSubject: m.lastSubject,
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs failed", zap.Error(err))
	}
}

// contentHeight is the number of rows available below the header.
func (m Model) contentHeight() int {
	h := m.height - chromeHeight
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) resizeViewports() {
	m.explainView.Width = m.width
	m.explainView.Height = m.contentHeight() - 2
	m.logView.Width = m.width
	m.logView.Height = m.contentHeight()
	m.updateExplainViewport()
	m.updateLogViewport()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.view {
	case ViewBooks:
		return m.renderBooks()
	case ViewDetail:
		return m.renderDetail()
	case ViewFavorites:
		return m.renderFavorites()
	case ViewHistory:
		return m.renderHistory()
	case ViewExplain:
		return m.renderExplain()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderSubjects()
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
