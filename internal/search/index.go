package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/subex/internal/debuglog"
	"github.com/pders01/subex/internal/render"
)

// Kinds of indexed documents.
const (
	KindPallet   = "pallet"
	KindStorage  = "storage"
	KindCall     = "call"
	KindEvent    = "event"
	KindError    = "error"
	KindConstant = "constant"
)

// ErrClosed is returned by an Index after Close.
var ErrClosed = errors.New("search index closed")

// MinQueryLength is the shortest query that is searched at all.
const MinQueryLength = 2

// Result is one matching outline section.
type Result struct {
	SectionID string
	Pallet    string
	Kind      string
	Name      string
	Score     float64
}

// Index is an in-memory bleve index over a metadata outline. It is safe for
// concurrent use; IndexSections swaps the whole index.
type Index struct {
	mu  sync.RWMutex
	idx bleve.Index

	// gen is the last generation handed out, live the one installed.
	gen    uint64
	live   uint64
	closed bool
}

func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = standard.Name
	name.Store = true
	name.IncludeTermVectors = true

	words := bleve.NewTextFieldMapping()
	words.Analyzer = standard.Name
	words.Store = false

	pallet := bleve.NewTextFieldMapping()
	pallet.Analyzer = standard.Name
	pallet.Store = true

	docs := bleve.NewTextFieldMapping()
	docs.Analyzer = standard.Name
	docs.Store = false

	kind := bleve.NewTextFieldMapping()
	kind.Analyzer = keyword.Name
	kind.Store = true

	dm.AddFieldMappingsAt("name", name)
	dm.AddFieldMappingsAt("words", words)
	dm.AddFieldMappingsAt("pallet", pallet)
	dm.AddFieldMappingsAt("docs", docs)
	dm.AddFieldMappingsAt("kind", kind)

	im.DefaultMapping = dm
	return im
}

// IndexSections replaces the indexed content with the pallets and items of
// sections. Group headers are not indexed. When calls overlap, the one that
// started last wins and older builds are discarded.
func (x *Index) IndexSections(sections []*render.Section) error {
	gen, err := x.nextGeneration()
	if err != nil {
		return err
	}
	fresh, err := buildIndex(sections)
	if err != nil {
		return err
	}
	return x.install(gen, fresh)
}

func (x *Index) nextGeneration() (uint64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return 0, ErrClosed
	}
	x.gen++
	return x.gen, nil
}

func buildIndex(sections []*render.Section) (bleve.Index, error) {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	batch := fresh.NewBatch()
	render.Walk(sections, func(s *render.Section) {
		kind := kindOf(s)
		if kind == "" {
			return
		}
		if err := batch.Index(s.ID, map[string]any{
			"name":   s.Title,
			"words":  splitIdentifier(s.Title),
			"pallet": s.Pallet,
			"docs":   s.Docs,
			"kind":   kind,
		}); err != nil {
			debuglog.Warnf("Indexing %s: %v", s.ID, err)
		}
	})
	if err := fresh.Batch(batch); err != nil {
		_ = fresh.Close()
		return nil, fmt.Errorf("indexing sections: %w", err)
	}
	return fresh, nil
}

// install swaps fresh in unless a newer generation is already live or the
// index is closed. A rejected index is closed here.
func (x *Index) install(gen uint64, fresh bleve.Index) error {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		_ = fresh.Close()
		return ErrClosed
	}
	if gen < x.live {
		x.mu.Unlock()
		_ = fresh.Close()
		debuglog.Debugf("Dropping index generation %d, %d is live", gen, x.live)
		return nil
	}
	old := x.idx
	x.idx = fresh
	x.live = gen
	x.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

func kindOf(s *render.Section) string {
	switch s.Kind {
	case render.KindPallet:
		return KindPallet
	case render.KindItem:
		switch s.Group {
		case render.GroupStorage:
			return KindStorage
		case render.GroupCalls:
			return KindCall
		case render.GroupEvents:
			return KindEvent
		case render.GroupErrors:
			return KindError
		case render.GroupConstants:
			return KindConstant
		}
	}
	return ""
}

// Search returns up to limit sections matching query, best first. Queries
// shorter than MinQueryLength return no results.
func (x *Index) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < MinQueryLength || limit <= 0 {
		return []*Result{}, nil
	}

	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qs = append(qs, fieldQueries(tok, "name", 4.0, 3.5)...)
		qs = append(qs, fieldQueries(tok, "words", 3.0, 2.5)...)
		qs = append(qs, fieldQueries(tok, "pallet", 2.0, 1.5)...)
		qs = append(qs, fieldQueries(tok, "docs", 1.0, 0.8)...)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	q := bleve.NewDisjunctionQuery(qs...)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"name", "pallet", "kind"}

	x.mu.RLock()
	if x.idx == nil {
		x.mu.RUnlock()
		return nil, ErrClosed
	}
	res, err := x.idx.Search(req)
	x.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		r := &Result{SectionID: h.ID, Score: h.Score}
		if v, ok := h.Fields["name"].(string); ok {
			r.Name = v
		}
		if v, ok := h.Fields["pallet"].(string); ok {
			r.Pallet = v
		}
		if v, ok := h.Fields["kind"].(string); ok {
			r.Kind = v
		}
		out = append(out, r)
	}
	return out, nil
}

func fieldQueries(tok, field string, matchBoost, prefixBoost float64) []bleveQuery.Query {
	m := bleve.NewMatchQuery(tok)
	m.SetField(field)
	m.SetBoost(matchBoost)

	p := bleve.NewPrefixQuery(strings.ToLower(tok))
	p.SetField(field)
	p.SetBoost(prefixBoost)

	return []bleveQuery.Query{m, p}
}

// DocCount reports total documents in the index.
func (x *Index) DocCount() (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.idx == nil {
		return 0, ErrClosed
	}
	n, err := x.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close releases the index. Later calls to IndexSections fail with ErrClosed.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true
	if x.idx == nil {
		return nil
	}
	err := x.idx.Close()
	x.idx = nil
	return err
}
