package chain

import "strings"

// Tree is the display model of a chain's runtime metadata. It is built once
// per fetch and never mutated afterwards.
type Tree struct {
	Version uint8
	Pallets []Pallet
}

// Pallet is one runtime module. Nil groups mean the pallet does not declare
// that kind of item at all.
type Pallet struct {
	Name      string
	Index     uint8
	Docs      []string
	Storage   *StorageGroup
	Calls     []Variant
	Events    []Variant
	Errors    []Variant
	Constants []Constant
}

type StorageGroup struct {
	Prefix  string
	Entries []StorageEntry
}

type StorageEntry struct {
	Name string
	Kind string // "plain" or "map"
	Docs []string
}

// Variant is one case of a call, event or error enum.
type Variant struct {
	Name   string
	Index  uint8
	Fields []Field
	Docs   []string
}

type Field struct {
	Name     string
	TypeName string
}

type Constant struct {
	Name string
	Docs []string
}

// Signature formats the variant as name(field: Type, ...). Fields missing
// either a name or a type name are left out; with no remaining fields only
// the name is returned.
func (v Variant) Signature() string {
	var parts []string
	for _, f := range v.Fields {
		if f.Name == "" || f.TypeName == "" {
			continue
		}
		parts = append(parts, f.Name+": "+f.TypeName)
	}
	if len(parts) == 0 {
		return v.Name
	}
	return v.Name + "(" + strings.Join(parts, ", ") + ")"
}

// JoinDocs joins documentation lines with line breaks.
func JoinDocs(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
