package tui

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/subex/internal/config"
	"github.com/pders01/subex/internal/debuglog"
	"github.com/pders01/subex/internal/endpoints"
	"github.com/pders01/subex/internal/fetch"
	"github.com/pders01/subex/internal/render"
	"github.com/pders01/subex/internal/search"
	"github.com/pders01/subex/internal/storage"
	"github.com/pders01/subex/internal/validation"
)

// Lines taken by the top bar (input frame, status line, separator) and the
// bottom status bar (separator, status line).
const (
	topBarHeight    = 5
	bottomBarHeight = 2
	searchLimit     = 50
)

// searchEngine is what the UI needs from the metadata index.
type searchEngine interface {
	search.Searcher
	search.Indexer
	search.DebugStatser
}

type App struct {
	config     *config.Config
	bridge     *fetch.Bridge
	presets    *endpoints.Registry
	index      searchEngine
	validator  *validation.EndpointURLValidator
	keyHandler *KeyHandler
	treeKeys   treeKeyMap

	urlInput    textinput.Model
	searchInput textinput.Model
	searchList  list.Model
	presetList  list.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model

	view         View
	previousView View
	focus        Focus

	session  *Session
	sections []*render.Section
	rows     []render.Row
	expanded map[string]bool
	cursor   int
	docs     *render.Docs
	theme    render.Theme

	status     string
	statusKind StatusKind

	searchSeq            int
	pendingSearchQuery   string
	searchDebounceMillis int

	width  int
	height int
}

// NewApp builds the UI on top of a bridge whose worker is started by the
// caller. prefs seeds the URL input and the expanded sections; presets may
// be nil.
func NewApp(cfg *config.Config, bridge *fetch.Bridge, prefs *storage.Preferences, presets *endpoints.Registry) *App {
	ApplyColors(cfg.UI.Colors)

	ui := textinput.New()
	ui.Placeholder = "wss://rpc.polkadot.io"
	ui.Prompt = ""
	ui.CharLimit = validation.DefaultMaxURLLength
	ui.Focus()

	si := textinput.New()
	si.Placeholder = "Search pallets, calls, events, storage..."

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	presetList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	presetList.Title = "› endpoints"
	presetList.SetShowStatusBar(false)
	presetList.SetFilteringEnabled(true)
	presetList.SetShowHelp(true)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	var docs *render.Docs
	if cfg.UI.Docs.Markdown {
		docs = render.NewDocs()
	} else {
		docs = render.NewPlainDocs()
	}

	var index searchEngine
	if idx, err := search.NewIndex(); err != nil {
		debuglog.Warnf("Search disabled: %v", err)
	} else {
		index = idx
	}

	app := &App{
		config:               cfg,
		bridge:               bridge,
		presets:              presets,
		index:                index,
		validator:            validation.NewEndpointURLValidator(),
		treeKeys:             newTreeKeyMap(),
		urlInput:             ui,
		searchInput:          si,
		searchList:           searchList,
		presetList:           presetList,
		viewport:             viewport.New(0, 0),
		spinner:              sp,
		help:                 help.New(),
		view:                 ViewExplorer,
		previousView:         ViewExplorer,
		focus:                FocusURL,
		session:              newSession(cfg.Fetch.Timeout),
		expanded:             make(map[string]bool),
		docs:                 docs,
		theme:                TreeTheme(),
		searchDebounceMillis: 150,
	}

	if prefs != nil {
		app.urlInput.SetValue(prefs.URL)
		for _, id := range prefs.Expanded {
			app.expanded[id] = true
		}
	}

	app.keyHandler = NewKeyHandler(app, cfg)
	app.loadPresets()

	return app
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case pollMsg:
		a.session.polling = false
		cmds = append(cmds, a.checkResponse())
		if a.session.Awaiting() && !a.session.Fatal() {
			cmds = append(cmds, a.schedulePoll())
		}

	case spinner.TickMsg:
		if a.session.Awaiting() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case indexedMsg:
		if msg.err != nil {
			debuglog.Warnf("Indexing metadata failed: %v", msg.err)
			a.setStatus(fmt.Sprintf("Search index failed: %v", msg.err), StatusWarn)
		} else {
			debuglog.Debugf("Indexed %d sections", msg.docs)
		}

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq && a.view == ViewSearch {
			cmds = append(cmds, a.performSearch(a.pendingSearchQuery, msg.seq))
		}

	case searchResultsMsg:
		if msg.seq == a.searchSeq && a.view == ViewSearch {
			if msg.err != nil {
				a.setStatus(msg.err.Error(), StatusError)
				break
			}
			items := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				items[i] = searchResultItem{result: r}
			}
			cmds = append(cmds, a.searchList.SetItems(items))
			if len(items) == 0 {
				a.setStatus(MsgNoResults, StatusInfo)
			} else {
				a.setStatus(MsgResultsCount(len(items)), StatusInfo)
			}
		}

	default:
		switch a.view {
		case ViewExplorer:
			if a.focus == FocusURL {
				var cmd tea.Cmd
				a.urlInput, cmd = a.urlInput.Update(msg)
				cmds = append(cmds, cmd)
			}
		case ViewSearch:
			var cmd tea.Cmd
			a.searchInput, cmd = a.searchInput.Update(msg)
			cmds = append(cmds, cmd)
		case ViewPresets:
			var cmd tea.Cmd
			a.presetList, cmd = a.presetList.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	inputWidth := width - 10
	if inputWidth < 10 {
		inputWidth = 10
	}
	a.urlInput.Width = inputWidth

	a.viewport.Width = width
	a.viewport.Height = a.panelHeight()

	listHeight := height - 10
	if listHeight < 5 {
		listHeight = 5
	}
	a.searchList.SetSize(width, listHeight)
	a.presetList.SetSize(width, height-bottomBarHeight-1)
	a.help.Width = width

	a.docs.SetWidth(a.docsWidth())
	a.refreshTree()
}

func (a *App) panelHeight() int {
	h := a.height - topBarHeight - bottomBarHeight
	if h < 1 {
		h = 1
	}
	return h
}

// docsWidth sizes doc word wrap to the panel within the configured bounds,
// never wider than the panel itself.
func (a *App) docsWidth() int {
	maxW := a.config.UI.Docs.WordWrapMaxWidth
	minW := a.config.UI.Docs.WordWrapMinWidth
	w := (a.width * 9) / 10
	if maxW > 0 && w > maxW {
		w = maxW
	}
	if minW > 0 && w < minW {
		w = minW
	}
	if limit := a.width - 4; w > limit {
		w = limit
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Close releases the search index.
func (a *App) Close() error {
	if c, ok := a.index.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// CanFetch reports whether the fetch trigger is enabled: the worker is
// alive, no request holds the guard and the URL parses.
func (a *App) CanFetch() bool {
	return !a.session.Fatal() && !a.session.Waiting() && a.urlValid()
}

func (a *App) urlValid() bool {
	return a.validator.IsValid(a.urlInput.Value())
}

// URL is the current content of the endpoint input.
func (a *App) URL() string {
	return a.urlInput.Value()
}

func (a *App) Session() *Session {
	return a.session
}

// Preferences returns what should survive a restart.
func (a *App) Preferences() *storage.Preferences {
	expanded := make([]string, 0, len(a.expanded))
	for id, open := range a.expanded {
		if open {
			expanded = append(expanded, id)
		}
	}
	sort.Strings(expanded)
	return &storage.Preferences{
		URL:       a.urlInput.Value(),
		Expanded:  expanded,
		UpdatedAt: time.Now(),
	}
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) setFocus(f Focus) {
	a.focus = f
	if f == FocusURL {
		a.urlInput.Focus()
	} else {
		a.urlInput.Blur()
	}
}

func (a *App) loadPresets() {
	if a.presets == nil {
		return
	}
	eps := a.presets.List()
	items := make([]list.Item, len(eps))
	for i, ep := range eps {
		items[i] = presetItem{endpoint: ep}
	}
	a.presetList.SetItems(items)
}

// setSections installs a freshly fetched outline and keeps the cursor on
// the first row.
func (a *App) setSections(sections []*render.Section) {
	a.sections = sections
	a.cursor = 0
	a.viewport.GotoTop()
	a.refreshTree()
}

// refreshTree recomputes visible rows and redraws the panel so that the
// cursor row stays in view.
func (a *App) refreshTree() {
	a.rows = render.Flatten(a.sections, a.expanded)
	if a.cursor >= len(a.rows) {
		a.cursor = len(a.rows) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
	if len(a.rows) == 0 {
		a.viewport.SetContent("")
		return
	}

	cursor := a.cursor
	if a.focus != FocusTree {
		cursor = -1
	}
	content, cursorLine := render.View(a.rows, cursor, a.expanded, a.theme, a.docs)
	a.viewport.SetContent(content)

	if cursor < 0 {
		return
	}
	if cursorLine < a.viewport.YOffset {
		a.viewport.SetYOffset(cursorLine)
	} else if a.viewport.Height > 0 && cursorLine >= a.viewport.YOffset+a.viewport.Height {
		a.viewport.SetYOffset(cursorLine - a.viewport.Height + 1)
	}
}

func (a *App) currentSection() *render.Section {
	if a.cursor < 0 || a.cursor >= len(a.rows) {
		return nil
	}
	return a.rows[a.cursor].Section
}

func (a *App) moveCursor(delta int) {
	a.cursor += delta
	a.refreshTree()
}

func (a *App) toggleSection() {
	s := a.currentSection()
	if s == nil || !s.Collapsible() {
		return
	}
	a.expanded[s.ID] = !a.expanded[s.ID]
	a.refreshTree()
}

func (a *App) expandSection() {
	s := a.currentSection()
	if s == nil || !s.Collapsible() {
		return
	}
	if a.expanded[s.ID] && len(s.Children) > 0 {
		a.moveCursor(1)
		return
	}
	a.expanded[s.ID] = true
	a.refreshTree()
}

// collapseSection closes the current section, or jumps to its parent when
// it is already closed.
func (a *App) collapseSection() {
	s := a.currentSection()
	if s == nil {
		return
	}
	if s.Collapsible() && a.expanded[s.ID] {
		a.expanded[s.ID] = false
		a.refreshTree()
		return
	}
	ancestors := render.Ancestors(s.ID)
	if len(ancestors) == 0 {
		return
	}
	a.selectSection(ancestors[len(ancestors)-1])
}

func (a *App) setAllExpanded(open bool) {
	render.Walk(a.sections, func(s *render.Section) {
		if s.Collapsible() {
			if open {
				a.expanded[s.ID] = true
			} else {
				delete(a.expanded, s.ID)
			}
		}
	})
	a.refreshTree()
}

// selectSection opens every ancestor of id and moves the cursor onto it.
func (a *App) selectSection(id string) bool {
	for _, anc := range render.Ancestors(id) {
		a.expanded[anc] = true
	}
	a.rows = render.Flatten(a.sections, a.expanded)
	for i, row := range a.rows {
		if row.Section.ID == id {
			a.cursor = i
			a.setFocus(FocusTree)
			a.refreshTree()
			return true
		}
	}
	a.refreshTree()
	return false
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewExplorer:
		content = lipgloss.JoinVertical(lipgloss.Left, a.topBar(), a.panel())
	case ViewSearch:
		content = a.searchView()
	case ViewPresets:
		content = ContentWrapper(a.width, a.height-bottomBarHeight).Render(a.presetList.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, renderSeparator(a.width), a.statusBar())
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func (a *App) topBar() string {
	button := DisabledStyle.Render("⟳")
	if a.CanFetch() {
		button = ButtonStyle.Render("⟳")
	}
	input := renderInputFrame(a.urlInput.View(), a.focus == FocusURL, a.urlInput.Width)
	row := lipgloss.JoinHorizontal(lipgloss.Center, button, " ", input)

	return lipgloss.JoinVertical(lipgloss.Left, row, a.topBarStatus(), renderSeparator(a.width))
}

// topBarStatus shows, in priority order: the countdown, the last error and
// URL syntax problems.
func (a *App) topBarStatus() string {
	var parts []string

	if a.session.Waiting() {
		parts = append(parts, a.spinner.View()+" "+renderMuted(MsgWaiting(a.session.guard.Remaining())))
	} else if a.session.Awaiting() {
		parts = append(parts, a.spinner.View()+" "+renderMuted(MsgFetching))
	}

	if err := a.session.Err(); err != nil {
		parts = append(parts, ErrorMessageStyle.Render(truncateEnd(err.Error(), a.width-2)))
	}

	value := a.urlInput.Value()
	if value != "" {
		if parsed, err := a.validator.Validate(value); err != nil {
			parts = append(parts, ErrorMessageStyle.Render(MsgInvalidURL))
		} else if validation.IsLocalEndpoint(parsed) {
			parts = append(parts, renderMuted(MsgLocalNode))
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "  ")
}

func (a *App) panel() string {
	height := a.panelHeight()
	if len(a.rows) == 0 {
		if a.session.Response() == nil && !a.session.Awaiting() {
			return renderCentered(a.width, height, GetWelcomeMessage(a.keyHandler.modifierKey+a.config.Keys.Bindings.Presets))
		}
		return renderCentered(a.width, height, renderMuted(MsgFetching))
	}
	return ContentWrapper(a.width, height).Render(a.viewport.View())
}

func (a *App) searchView() string {
	searchInputWidth := a.width - 8
	if searchInputWidth < 10 {
		searchInputWidth = a.width - 4
	}
	a.searchInput.Width = searchInputWidth

	subtitle := ""
	if a.session.responseURL != "" {
		subtitle = truncateMiddle(a.session.responseURL, a.width-4)
	}

	helpText := ""
	switch {
	case a.searchInput.Focused():
		helpText = "Type to search • Tab/↓: results • Esc: back"
	case len(a.searchList.Items()) > 0:
		helpText = "↑↓: navigate • Enter: select • Tab: search box • Esc: back"
	default:
		helpText = "No results found • Tab: search box • Esc: back"
	}

	searchContent := lipgloss.JoinVertical(
		lipgloss.Top,
		renderHeader("› search", subtitle, a.width),
		"",
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), searchInputWidth),
		renderHelp(helpText),
		"",
		a.searchList.View(),
	)

	return ContentWrapper(a.width, a.height-bottomBarHeight).Render(searchContent)
}

func (a *App) statusBar() string {
	if a.status != "" {
		return StatusBarStyle.Width(a.width).Render(StatusStyle(a.statusKind).Render(a.status))
	}

	commands := a.keyHandler.GetHelpForCurrentView()
	text := strings.Join(commands, " • ")
	if a.view == ViewExplorer && a.focus == FocusTree {
		text = a.help.View(a.treeKeys) + " • " + text
	}
	return StatusBarStyle.Width(a.width).Render(text)
}

// localHint is used by presets to flag development nodes.
func localHint(raw string) string {
	if u, err := url.Parse(raw); err == nil && validation.IsLocalEndpoint(u) {
		return " • " + MsgLocalNode
	}
	return ""
}
