package search

import "github.com/pders01/subex/internal/render"

// Searcher defines the minimal search API used by the TUI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Indexer replaces the searchable content with a new outline.
type Indexer interface {
	IndexSections(sections []*render.Section) error
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
