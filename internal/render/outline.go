package render

import (
	"strings"

	"github.com/pders01/subex/internal/chain"
)

// Kind tells headers apart from leaf items.
type Kind int

const (
	KindPallet Kind = iota
	KindGroup
	KindItem
)

// Group titles, in display order.
const (
	GroupStorage   = "Storage"
	GroupCalls     = "Calls"
	GroupEvents    = "Events"
	GroupErrors    = "Errors"
	GroupConstants = "Constants"
)

// Section is one node of the rendered outline. IDs are slash-joined paths
// and are stable across fetches of the same runtime.
type Section struct {
	ID       string
	Kind     Kind
	Title    string
	Code     string
	Docs     string
	Pallet   string
	Group    string
	Children []*Section
}

// Collapsible reports whether the section has something to expand.
func (s *Section) Collapsible() bool {
	return s.Kind != KindItem
}

// Outline builds the section tree for a metadata tree. It does not modify
// tree and returns the same structure for the same input.
func Outline(tree *chain.Tree) []*Section {
	if tree == nil {
		return nil
	}
	out := make([]*Section, 0, len(tree.Pallets))
	for i := range tree.Pallets {
		out = append(out, palletSection(&tree.Pallets[i]))
	}
	return out
}

func palletSection(p *chain.Pallet) *Section {
	s := &Section{
		ID:     p.Name,
		Kind:   KindPallet,
		Title:  p.Name,
		Docs:   chain.JoinDocs(p.Docs),
		Pallet: p.Name,
	}

	if p.Storage != nil {
		g := groupSection(p.Name, GroupStorage)
		for _, e := range p.Storage.Entries {
			g.Children = append(g.Children, itemSection(g, e.Name, e.Name, e.Docs))
		}
		s.Children = append(s.Children, g)
	}

	for _, vg := range []struct {
		title    string
		variants []chain.Variant
	}{
		{GroupCalls, p.Calls},
		{GroupEvents, p.Events},
		{GroupErrors, p.Errors},
	} {
		if vg.variants == nil {
			continue
		}
		g := groupSection(p.Name, vg.title)
		for _, v := range vg.variants {
			g.Children = append(g.Children, itemSection(g, v.Name, v.Signature(), v.Docs))
		}
		s.Children = append(s.Children, g)
	}

	if p.Constants != nil {
		g := groupSection(p.Name, GroupConstants)
		for _, c := range p.Constants {
			g.Children = append(g.Children, itemSection(g, c.Name, c.Name, c.Docs))
		}
		s.Children = append(s.Children, g)
	}

	return s
}

func groupSection(pallet, title string) *Section {
	return &Section{
		ID:     pallet + "/" + title,
		Kind:   KindGroup,
		Title:  title,
		Pallet: pallet,
		Group:  title,
	}
}

func itemSection(group *Section, name, code string, docs []string) *Section {
	return &Section{
		ID:     group.ID + "/" + name,
		Kind:   KindItem,
		Title:  name,
		Code:   code,
		Docs:   chain.JoinDocs(docs),
		Pallet: group.Pallet,
		Group:  group.Group,
	}
}

// Ancestors returns the IDs of every section enclosing id, outermost first.
func Ancestors(id string) []string {
	parts := strings.Split(id, "/")
	out := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		out = append(out, strings.Join(parts[:i], "/"))
	}
	return out
}

// Row is a visible section at a nesting depth.
type Row struct {
	Section *Section
	Depth   int
}

// Flatten lists the rows visible when exactly the sections in expanded are
// open.
func Flatten(sections []*Section, expanded map[string]bool) []Row {
	var rows []Row
	var walk func(list []*Section, depth int)
	walk = func(list []*Section, depth int) {
		for _, s := range list {
			rows = append(rows, Row{Section: s, Depth: depth})
			if s.Collapsible() && expanded[s.ID] {
				walk(s.Children, depth+1)
			}
		}
	}
	walk(sections, 0)
	return rows
}

// Walk visits every section depth first.
func Walk(sections []*Section, fn func(*Section)) {
	for _, s := range sections {
		fn(s)
		Walk(s.Children, fn)
	}
}
