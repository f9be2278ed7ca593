package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles used to draw an outline.
type Theme struct {
	Pallet lipgloss.Style
	Group  lipgloss.Style
	Code   lipgloss.Style
	Muted  lipgloss.Style
	Cursor lipgloss.Style
}

// PlainTheme draws without colors; used in tests and for dumb terminals.
func PlainTheme() Theme {
	s := lipgloss.NewStyle()
	return Theme{Pallet: s, Group: s, Code: s, Muted: s, Cursor: s}
}

// MarkdownRenderer turns documentation markup into terminal text.
// *glamour.TermRenderer satisfies it.
type MarkdownRenderer interface {
	Render(in string) (string, error)
}

// Docs renders doc blocks through glamour and memoizes the output, since
// the same blocks are drawn on every frame.
type Docs struct {
	renderer MarkdownRenderer
	width    int
	cache    map[string]string
	newFn    func(width int) (MarkdownRenderer, error)
}

// NewDocs returns a glamour-backed doc renderer that picks a style from the
// terminal background.
func NewDocs() *Docs {
	return NewDocsWith(func(width int) (MarkdownRenderer, error) {
		return glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
	})
}

// NewDocsWith builds Docs on a custom renderer constructor.
func NewDocsWith(newFn func(width int) (MarkdownRenderer, error)) *Docs {
	return &Docs{newFn: newFn, cache: make(map[string]string)}
}

// NewPlainDocs returns Docs that print doc text unchanged.
func NewPlainDocs() *Docs {
	return &Docs{cache: make(map[string]string)}
}

// SetWidth sizes the word wrap. The renderer is rebuilt only when the width
// moved by more than a few columns.
func (d *Docs) SetWidth(width int) {
	if d.newFn == nil {
		return
	}
	if width < 20 {
		width = 20
	}
	if d.renderer != nil && abs(d.width-width) <= 10 {
		return
	}
	r, err := d.newFn(width)
	if err != nil {
		d.renderer = nil
		return
	}
	d.renderer = r
	d.width = width
	d.cache = make(map[string]string)
}

// Render returns the rendered block, falling back to the raw text when no
// renderer is available or rendering fails.
func (d *Docs) Render(markdown string) string {
	if markdown == "" {
		return ""
	}
	if out, ok := d.cache[markdown]; ok {
		return out
	}
	out := strings.TrimRight(markdown, "\n")
	if d.renderer != nil {
		if rendered, err := d.renderer.Render(markdown); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	d.cache[markdown] = out
	return out
}

// View draws rows and reports the line at which the cursor row begins, so
// the caller can keep it in view.
func View(rows []Row, cursor int, expanded map[string]bool, theme Theme, docs *Docs) (string, int) {
	var lines []string
	cursorLine := 0

	for i, row := range rows {
		s := row.Section
		indent := strings.Repeat("  ", row.Depth)
		if i == cursor {
			cursorLine = len(lines)
		}

		var head string
		switch s.Kind {
		case KindPallet, KindGroup:
			marker := "▸ "
			if expanded[s.ID] {
				marker = "▾ "
			}
			style := theme.Pallet
			if s.Kind == KindGroup {
				style = theme.Group
			}
			head = marker + style.Render(s.Title)
			if s.Kind == KindGroup {
				head += theme.Muted.Render(" (" + strconv.Itoa(len(s.Children)) + ")")
			}
		case KindItem:
			head = "• " + theme.Code.Render(s.Code)
		}
		if i == cursor {
			head = theme.Cursor.Render(head)
		}
		lines = append(lines, indent+head)

		showDocs := s.Docs != "" && (s.Kind == KindItem || expanded[s.ID])
		if showDocs && docs != nil {
			for _, l := range strings.Split(docs.Render(s.Docs), "\n") {
				lines = append(lines, indent+"    "+l)
			}
		}
		if s.Kind == KindItem && showDocs {
			lines = append(lines, "")
		}
	}

	return strings.Join(lines, "\n"), cursorLine
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
