package tui

type View int

const (
	ViewExplorer View = iota
	ViewSearch
	ViewPresets
)

// Focus is the explorer pane receiving keys.
type Focus int

const (
	FocusURL Focus = iota
	FocusTree
)
