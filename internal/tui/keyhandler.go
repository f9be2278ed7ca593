package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/subex/internal/config"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	bindings    config.KeyBindings
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, bindings: cfg.Keys.Bindings, modifierKey: modifierKey}
}

func (kh *KeyHandler) mod(k string) string {
	return kh.modifierKey + k
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Any key press clears the transient status line.
	kh.app.setStatus("", StatusInfo)

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewExplorer:
		return kh.app.focus == FocusURL
	case ViewSearch:
		return kh.app.searchInput.Focused()
	case ViewPresets:
		return kh.app.presetList.FilterState() == list.Filtering
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.app.view == ViewPresets {
		// The list owns its filter prompt, including esc and enter.
		var cmd tea.Cmd
		kh.app.presetList, cmd = kh.app.presetList.Update(msg)
		return kh.app, cmd
	}

	switch key {
	case "ctrl+c":
		return kh.app, tea.Quit
	case "enter":
		return kh.handleTextInputEnter()
	case kh.bindings.Back:
		if kh.app.view == ViewExplorer {
			kh.app.setFocus(FocusTree)
			kh.app.refreshTree()
			return kh.app, nil
		}
		return kh.navigateBack()
	case "tab", "down":
		switch kh.app.view {
		case ViewExplorer:
			kh.app.setFocus(FocusTree)
			kh.app.refreshTree()
			return kh.app, nil
		case ViewSearch:
			if len(kh.app.searchList.Items()) > 0 {
				kh.app.searchInput.Blur()
				kh.app.searchList.Select(0)
			}
			return kh.app, nil
		}
		return kh.delegateToTextInput(msg)
	case kh.mod(kh.bindings.Presets):
		return kh.openPresets()
	case kh.mod(kh.bindings.Search):
		return kh.enterSearchMode()
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewExplorer:
		return kh.app, kh.app.requestMetadata()

	case ViewSearch:
		if items := kh.app.searchList.Items(); len(items) > 0 {
			if i, ok := items[0].(searchResultItem); ok {
				return kh.selectSearchResult(i)
			}
		}
		return kh.app, nil

	default:
		return kh.app, nil
	}
}

// delegateToTextInput passes the key to the focused text input.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewExplorer:
		var cmd tea.Cmd
		kh.app.urlInput, cmd = kh.app.urlInput.Update(msg)
		return kh.app, cmd

	case ViewSearch:
		prev := kh.app.pendingSearchQuery
		var cmd tea.Cmd
		kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)

		newVal := kh.sanitizeSearchInput(kh.app.searchInput.Value())
		if newVal != prev {
			kh.app.pendingSearchQuery = newVal
			kh.app.searchSeq++
			seq := kh.app.searchSeq
			wait := time.Duration(kh.app.searchDebounceMillis) * time.Millisecond
			return kh.app, tea.Batch(cmd, tea.Tick(wait, func(time.Time) tea.Msg { return searchDebounceFireMsg{seq: seq} }))
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// handleCustomKeys handles the configurable action keys.
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", kh.bindings.Quit:
		return kh.app, tea.Quit, true
	case kh.bindings.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.mod(kh.bindings.Search):
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case kh.mod(kh.bindings.Presets):
		model, cmd := kh.openPresets()
		return model, cmd, true
	}

	if kh.app.view == ViewExplorer {
		return kh.handleExplorerCustomKeys(key)
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleExplorerCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.mod(kh.bindings.Fetch):
		return kh.app, kh.app.requestMetadata(), true
	case kh.mod(kh.bindings.FocusURL), "tab":
		kh.app.setFocus(FocusURL)
		kh.app.refreshTree()
		return kh.app, nil, true
	case kh.mod(kh.bindings.ExpandAll):
		kh.app.setAllExpanded(true)
		return kh.app, nil, true
	case kh.mod(kh.bindings.CollapseAll):
		kh.app.setAllExpanded(false)
		return kh.app, nil, true
	case kh.bindings.Help:
		kh.app.help.ShowAll = !kh.app.help.ShowAll
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

// delegateToCharm handles navigation keys the configurable bindings do not
// claim.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewExplorer:
		kh.handleTreeKey(msg)
		return kh.app, nil

	case ViewSearch:
		if !kh.app.searchInput.Focused() {
			switch msg.String() {
			case "tab", "shift+tab", "/", "i":
				kh.app.searchInput.Focus()
				return kh.app, nil
			case "up":
				if len(kh.app.searchList.Items()) > 0 && kh.app.searchList.Index() == 0 {
					kh.app.searchInput.Focus()
					return kh.app, nil
				}
			}
		}

		kh.app.searchList, cmd = kh.app.searchList.Update(msg)
		if msg.String() == "enter" && !kh.app.searchInput.Focused() {
			if i, ok := kh.app.searchList.SelectedItem().(searchResultItem); ok {
				return kh.selectSearchResult(i)
			}
		}
		return kh.app, cmd

	case ViewPresets:
		if msg.String() == "enter" {
			if i, ok := kh.app.presetList.SelectedItem().(presetItem); ok {
				return kh.selectPreset(i)
			}
			return kh.app, nil
		}
		kh.app.presetList, cmd = kh.app.presetList.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

func (kh *KeyHandler) handleTreeKey(msg tea.KeyMsg) {
	a := kh.app
	keys := a.treeKeys
	page := a.viewport.Height
	if page < 1 {
		page = 1
	}

	switch {
	case key.Matches(msg, keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, keys.PageUp):
		a.moveCursor(-page)
	case key.Matches(msg, keys.PageDown):
		a.moveCursor(page)
	case key.Matches(msg, keys.Home):
		a.cursor = 0
		a.refreshTree()
	case key.Matches(msg, keys.End):
		a.cursor = len(a.rows) - 1
		a.refreshTree()
	case key.Matches(msg, keys.Toggle):
		a.toggleSection()
	case key.Matches(msg, keys.Expand):
		a.expandSection()
	case key.Matches(msg, keys.Collapse):
		a.collapseSection()
	}
}

// selectSearchResult reveals the matching section in the explorer.
func (kh *KeyHandler) selectSearchResult(result searchResultItem) (tea.Model, tea.Cmd) {
	if result.result == nil {
		return kh.app, nil
	}
	kh.leaveSearch()
	kh.app.view = ViewExplorer
	if !kh.app.selectSection(result.result.SectionID) {
		kh.app.setStatus(MsgNoResults, StatusWarn)
	}
	return kh.app, nil
}

func (kh *KeyHandler) selectPreset(item presetItem) (tea.Model, tea.Cmd) {
	kh.app.urlInput.SetValue(item.endpoint.URL)
	kh.app.urlInput.CursorEnd()
	kh.app.view = ViewExplorer
	kh.app.setFocus(FocusURL)
	kh.app.refreshTree()
	return kh.app, nil
}

// navigateBack returns to the explorer from overlays, and from the tree to
// the URL input.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewSearch:
		kh.leaveSearch()
		kh.app.view = kh.app.previousView
		return kh.app, nil

	case ViewPresets:
		kh.app.presetList.ResetFilter()
		kh.app.view = kh.app.previousView
		return kh.app, nil

	default:
		if kh.app.focus == FocusTree {
			kh.app.setFocus(FocusURL)
			kh.app.refreshTree()
		}
		return kh.app, nil
	}
}

func (kh *KeyHandler) leaveSearch() {
	kh.app.searchInput.Reset()
	kh.app.searchInput.Blur()
	kh.app.pendingSearchQuery = ""
	kh.app.searchSeq++
	kh.app.searchList.SetItems([]list.Item{})
}

// enterSearchMode transitions to the search view over the loaded metadata.
func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.view == ViewSearch {
		return kh.app, nil
	}
	if len(kh.app.sections) == 0 {
		kh.app.setStatus(MsgNoMetadata, StatusWarn)
		return kh.app, nil
	}
	kh.app.previousView = ViewExplorer
	kh.app.view = ViewSearch
	kh.app.searchInput.Reset()
	kh.app.searchInput.Focus()
	kh.app.pendingSearchQuery = ""
	kh.app.searchList.SetItems([]list.Item{})

	if kh.app.index != nil {
		if n, err := kh.app.index.DocCount(); err == nil {
			kh.app.setStatus(MsgIndexed(n), StatusInfo)
		}
	}
	return kh.app, nil
}

func (kh *KeyHandler) openPresets() (tea.Model, tea.Cmd) {
	if kh.app.view == ViewPresets {
		return kh.app, nil
	}
	if len(kh.app.presetList.Items()) == 0 {
		kh.app.setStatus(MsgNoPresets, StatusWarn)
		return kh.app, nil
	}
	kh.app.previousView = ViewExplorer
	kh.app.view = ViewPresets
	kh.app.urlInput.Blur()
	return kh.app, nil
}

// sanitizeSearchInput sanitizes and limits search input length
func (kh *KeyHandler) sanitizeSearchInput(input string) string {
	input = strings.TrimSpace(input)

	if len(input) > 256 {
		input = input[:256]
	}

	input = strings.ReplaceAll(input, "\n", " ")
	input = strings.ReplaceAll(input, "\r", " ")
	input = strings.ReplaceAll(input, "\t", " ")

	for strings.Contains(input, "  ") {
		input = strings.ReplaceAll(input, "  ", " ")
	}

	return strings.TrimSpace(input)
}

// GetHelpForCurrentView returns the action keys of the current view.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.bindings
	switch kh.app.view {
	case ViewExplorer:
		if kh.app.focus == FocusURL {
			return []string{"enter: fetch", "tab: tree", kh.mod(b.Presets) + ": presets", kh.mod(b.Search) + ": search"}
		}
		return []string{
			kh.mod(b.Fetch) + ": fetch",
			kh.mod(b.FocusURL) + ": url",
			kh.mod(b.ExpandAll) + ": expand all",
			kh.mod(b.CollapseAll) + ": collapse all",
			kh.mod(b.Search) + ": search",
			b.Help + ": help",
			b.Quit + ": quit",
		}

	case ViewSearch:
		return []string{"enter: select", b.Back + ": back"}

	case ViewPresets:
		return []string{"enter: use", "/: filter", b.Back + ": back"}

	default:
		return []string{}
	}
}
