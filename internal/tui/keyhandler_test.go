package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/subex/internal/config"
	"github.com/pders01/subex/internal/endpoints"
	"github.com/pders01/subex/internal/fetch"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyHandler_ModifierKey(t *testing.T) {
	app := NewApp(config.TestConfig(), fetch.NewBridge(4), nil, nil)

	assert.NotNil(t, app.keyHandler)
	assert.Equal(t, "ctrl+", app.keyHandler.modifierKey)
}

func TestKeyHandler_TypingGoesToURLInput(t *testing.T) {
	app, _, _ := newTestApp(t)
	require.Equal(t, FocusURL, app.focus)

	app.Update(runes("ws://x"))
	assert.Equal(t, "ws://x", app.URL())

	// q is text while the URL input has focus.
	app.Update(runes("q"))
	assert.Equal(t, "ws://xq", app.URL())
}

func TestKeyHandler_TabAndEscSwitchFocus(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FocusTree, app.focus)
	assert.False(t, app.urlInput.Focused())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, FocusURL, app.focus)
	assert.True(t, app.urlInput.Focused())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, FocusTree, app.focus)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, FocusURL, app.focus)
}

func TestKeyHandler_QuitFromTree(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.setFocus(FocusTree)

	_, cmd := app.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestKeyHandler_CtrlCQuitsFromInput(t *testing.T) {
	app, _, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestKeyHandler_TreeNavigation(t *testing.T) {
	app, bridge, _ := newTestApp(t)
	loadTree(t, app, bridge)
	require.Equal(t, FocusTree, app.focus)

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "Balances", app.currentSection().ID)

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, app.expanded["Balances"])

	app.Update(runes("l"))
	assert.Equal(t, "Balances/Calls", app.currentSection().ID)

	app.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.True(t, app.expanded["Balances/Calls"])

	app.Update(runes("j"))
	assert.Equal(t, "Balances/Calls/transfer_allow_death", app.currentSection().ID)

	app.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "Balances/Calls", app.currentSection().ID)

	app.Update(runes("G"))
	assert.Equal(t, len(app.rows)-1, app.cursor)

	app.Update(runes("g"))
	assert.Equal(t, 0, app.cursor)

	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, app.cursor, "cursor stays on the first row")
}

func TestKeyHandler_ExpandAndCollapseAll(t *testing.T) {
	app, bridge, _ := newTestApp(t)
	loadTree(t, app, bridge)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Len(t, app.rows, 10)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Len(t, app.rows, 2)
}

func TestKeyHandler_FetchFromTree(t *testing.T) {
	app, bridge, _ := newTestApp(t)
	typeURL(app, testURL)
	app.setFocus(FocusTree)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	_, sent := nextRequest(t, bridge)
	assert.True(t, sent)
}

func TestKeyHandler_SearchNeedsMetadata(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, ViewExplorer, app.view)
	assert.Equal(t, MsgNoMetadata, app.status)
}

func TestKeyHandler_SearchSelectRevealsSection(t *testing.T) {
	app, bridge, _ := newTestApp(t)
	loadTree(t, app, bridge)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Equal(t, ViewSearch, app.view)
	assert.True(t, app.searchInput.Focused())

	_, cmd := app.Update(runes("allow"))
	assert.NotNil(t, cmd, "typing schedules a debounced search")
	assert.Equal(t, "allow", app.pendingSearchQuery)

	msg := app.performSearch(app.pendingSearchQuery, app.searchSeq)()
	app.Update(msg)
	require.NotEmpty(t, app.searchList.Items())
	first := app.searchList.Items()[0].(searchResultItem)
	assert.Equal(t, "Balances/Calls/transfer_allow_death", first.result.SectionID)

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewExplorer, app.view)
	assert.Equal(t, FocusTree, app.focus)
	assert.True(t, app.expanded["Balances"])
	assert.True(t, app.expanded["Balances/Calls"])
	assert.Equal(t, "Balances/Calls/transfer_allow_death", app.currentSection().ID)
	assert.Empty(t, app.searchList.Items())
}

func TestKeyHandler_StaleSearchResultsIgnored(t *testing.T) {
	app, bridge, _ := newTestApp(t)
	loadTree(t, app, bridge)
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	app.Update(runes("re"))
	stale := app.performSearch("remark", app.searchSeq)()
	app.Update(runes("m"))

	app.Update(stale)
	assert.Empty(t, app.searchList.Items())
}

func TestKeyHandler_EscLeavesSearch(t *testing.T) {
	app, bridge, _ := newTestApp(t)
	loadTree(t, app, bridge)
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	app.Update(runes("sys"))

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewExplorer, app.view)
	assert.Equal(t, "", app.searchInput.Value())
}

func TestKeyHandler_PresetsFillURL(t *testing.T) {
	reg, err := endpoints.NewRegistry("")
	require.NoError(t, err)

	app := NewApp(config.TestConfig(), fetch.NewBridge(4), nil, reg)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	require.Equal(t, ViewPresets, app.view)

	want := reg.List()[0]
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewExplorer, app.view)
	assert.Equal(t, want.URL, app.URL())
	assert.Equal(t, FocusURL, app.focus)
	assert.True(t, app.CanFetch())
}

func TestKeyHandler_NoPresets(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, ViewExplorer, app.view)
	assert.Equal(t, MsgNoPresets, app.status)
}

func TestKeyHandler_HelpForCurrentView(t *testing.T) {
	app, _, _ := newTestApp(t)

	assert.Contains(t, app.keyHandler.GetHelpForCurrentView(), "enter: fetch")

	app.setFocus(FocusTree)
	help := app.keyHandler.GetHelpForCurrentView()
	assert.Contains(t, help, "ctrl+r: fetch")
	assert.Contains(t, help, "ctrl+e: expand all")

	app.Update(runes("?"))
	assert.True(t, app.help.ShowAll)
}

func TestKeyHandler_SanitizeSearchInput(t *testing.T) {
	kh := &KeyHandler{}
	assert.Equal(t, "a b", kh.sanitizeSearchInput("  a \t\n b  "))
	assert.Len(t, kh.sanitizeSearchInput(string(make([]byte, 300))), 256)
}
