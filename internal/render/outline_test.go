package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/subex/internal/chain"
)

func sampleTree() *chain.Tree {
	return &chain.Tree{
		Version: 14,
		Pallets: []chain.Pallet{
			{
				Name: "System",
				Docs: []string{"Low-level types."},
				Storage: &chain.StorageGroup{
					Prefix: "System",
					Entries: []chain.StorageEntry{
						{Name: "Account", Kind: "map", Docs: []string{"The full account information."}},
						{Name: "Number", Kind: "plain"},
					},
				},
				Calls: []chain.Variant{{Name: "remark", Fields: []chain.Field{{Name: "remark", TypeName: "Vec<u8>"}}}},
			},
			{
				Name: "Balances",
				Calls: []chain.Variant{
					{
						Name:   "transfer",
						Fields: []chain.Field{{Name: "dest", TypeName: "AccountId"}, {Name: "value", TypeName: "Balance"}},
						Docs:   []string{"Transfer some **free** balance.", "", "Fails if broke."},
					},
				},
				Events:    []chain.Variant{{Name: "Transfer"}},
				Errors:    []chain.Variant{},
				Constants: []chain.Constant{{Name: "ExistentialDeposit"}},
			},
			{Name: "Empty"},
		},
	}
}

func titles(sections []*Section) []string {
	var out []string
	for _, s := range sections {
		out = append(out, s.Title)
	}
	return out
}

func TestOutline_Structure(t *testing.T) {
	sections := Outline(sampleTree())
	require.Equal(t, []string{"System", "Balances", "Empty"}, titles(sections))

	system := sections[0]
	assert.Equal(t, KindPallet, system.Kind)
	assert.Equal(t, "Low-level types.\n", system.Docs)
	require.Equal(t, []string{GroupStorage, GroupCalls}, titles(system.Children))

	storage := system.Children[0]
	assert.Equal(t, "System/Storage", storage.ID)
	require.Len(t, storage.Children, 2)
	assert.Equal(t, "System/Storage/Account", storage.Children[0].ID)
	assert.Equal(t, "Account", storage.Children[0].Code)
	assert.Equal(t, "The full account information.\n", storage.Children[0].Docs)
	assert.Equal(t, "", storage.Children[1].Docs)

	calls := system.Children[1]
	assert.Equal(t, "remark(remark: Vec<u8>)", calls.Children[0].Code)

	balances := sections[1]
	assert.Equal(t, []string{GroupCalls, GroupEvents, GroupErrors, GroupConstants}, titles(balances.Children))
	transfer := balances.Children[0].Children[0]
	assert.Equal(t, "Balances/Calls/transfer", transfer.ID)
	assert.Equal(t, "transfer(dest: AccountId, value: Balance)", transfer.Code)
	assert.Equal(t, "Transfer some **free** balance.\n\nFails if broke.\n", transfer.Docs)
	assert.Equal(t, "Balances", transfer.Pallet)
	assert.Equal(t, GroupCalls, transfer.Group)

	// An empty but present group keeps its header.
	assert.Empty(t, balances.Children[2].Children)

	// Absent data draws no headers at all.
	assert.Empty(t, sections[2].Children)
}

func TestOutline_Deterministic(t *testing.T) {
	tree := sampleTree()
	first := Outline(tree)
	second := Outline(tree)
	assert.Equal(t, first, second)

	expanded := map[string]bool{"System": true, "System/Storage": true, "Balances": true, "Balances/Calls": true}
	a, _ := View(Flatten(first, expanded), 0, expanded, PlainTheme(), NewDocsWith(plainRenderer))
	b, _ := View(Flatten(second, expanded), 0, expanded, PlainTheme(), NewDocsWith(plainRenderer))
	assert.Equal(t, a, b)
}

func TestOutline_DoesNotMutateTree(t *testing.T) {
	tree := sampleTree()
	Outline(tree)
	assert.Equal(t, sampleTree(), tree)
}

func TestOutline_Nil(t *testing.T) {
	assert.Nil(t, Outline(nil))
}

func TestFlatten(t *testing.T) {
	sections := Outline(sampleTree())

	rows := Flatten(sections, nil)
	require.Len(t, rows, 3)

	rows = Flatten(sections, map[string]bool{"System": true})
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.Section.ID)
	}
	assert.Equal(t, []string{"System", "System/Storage", "System/Calls", "Balances", "Empty"}, ids)
	assert.Equal(t, 1, rows[1].Depth)

	// Expanding a child of a collapsed parent shows nothing extra.
	rows = Flatten(sections, map[string]bool{"System/Storage": true})
	assert.Len(t, rows, 3)

	rows = Flatten(sections, map[string]bool{"System": true, "System/Storage": true})
	assert.Len(t, rows, 7)
	assert.Equal(t, 2, rows[2].Depth)
}

func TestAncestors(t *testing.T) {
	assert.Equal(t, []string{"Balances", "Balances/Calls"}, Ancestors("Balances/Calls/transfer"))
	assert.Empty(t, Ancestors("Balances"))
}

func TestWalk(t *testing.T) {
	count := 0
	Walk(Outline(sampleTree()), func(*Section) { count++ })
	// 3 pallets, 6 groups, 6 items.
	assert.Equal(t, 15, count)
}

func plainRenderer(int) (MarkdownRenderer, error) {
	return upperRenderer{}, nil
}

type upperRenderer struct{}

func (upperRenderer) Render(in string) (string, error) {
	return "\n" + strings.ToUpper(in) + "\n", nil
}

func TestView(t *testing.T) {
	sections := Outline(sampleTree())
	expanded := map[string]bool{"Balances": true, "Balances/Calls": true}
	rows := Flatten(sections, expanded)

	docs := NewDocsWith(plainRenderer)
	docs.SetWidth(80)
	out, cursorLine := View(rows, 3, expanded, PlainTheme(), docs)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "▸ System", lines[0])
	assert.Equal(t, "▾ Balances", lines[1])
	assert.Equal(t, "  ▾ Calls (1)", lines[2])
	assert.Equal(t, "    • transfer(dest: AccountId, value: Balance)", lines[3])
	assert.Equal(t, "        TRANSFER SOME **FREE** BALANCE.", lines[4])
	assert.Equal(t, 3, cursorLine)
	assert.Contains(t, out, "  ▸ Events (1)")
	assert.Contains(t, out, "  ▸ Errors (0)")
	assert.Contains(t, out, "  ▸ Constants (1)")
	assert.True(t, strings.HasSuffix(out, "▸ Empty"))
}

func TestDocs_FallbackAndCache(t *testing.T) {
	calls := 0
	docs := NewDocsWith(func(int) (MarkdownRenderer, error) {
		calls++
		return nil, errors.New("no renderer")
	})
	docs.SetWidth(80)
	assert.Equal(t, "raw *text*", docs.Render("raw *text*\n"))
	assert.Equal(t, "", docs.Render(""))

	docs = NewDocsWith(plainRenderer)
	docs.SetWidth(80)
	docs.SetWidth(85) // within tolerance, no rebuild
	assert.Equal(t, 80, docs.width)
	docs.SetWidth(120)
	assert.Equal(t, 120, docs.width)
	assert.Equal(t, "HELLO", docs.Render("hello"))
	assert.Equal(t, 1, calls)
}

func TestPlainDocs(t *testing.T) {
	docs := NewPlainDocs()
	docs.SetWidth(80)
	assert.Equal(t, "Keep **bold** as written.", docs.Render("Keep **bold** as written.\n"))
}
