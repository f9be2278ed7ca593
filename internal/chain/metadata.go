package chain

import (
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// ErrUnsupportedVersion is returned for metadata older than V14, which has no
// portable type registry to resolve variant shapes from.
var ErrUnsupportedVersion = errors.New("unsupported metadata version")

// DecodeMetadata SCALE-decodes the hex string returned by state_getMetadata.
func DecodeMetadata(hexData string) (*Tree, error) {
	var meta types.Metadata
	if err := codec.DecodeFromHex(hexData, &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return FromMetadata(&meta)
}

// FromMetadata converts decoded runtime metadata into a display tree.
func FromMetadata(meta *types.Metadata) (*Tree, error) {
	if meta == nil {
		return nil, errors.New("metadata is nil")
	}
	if meta.Version != 14 {
		return nil, fmt.Errorf("%w: v%d", ErrUnsupportedVersion, meta.Version)
	}
	return fromV14(&meta.AsMetadataV14), nil
}

func fromV14(m *types.MetadataV14) *Tree {
	lookup := make(map[int64]*types.Si1Type, len(m.Lookup.Types))
	for i := range m.Lookup.Types {
		pt := &m.Lookup.Types[i]
		lookup[pt.ID.Int64()] = &pt.Type
	}

	tree := &Tree{Version: 14, Pallets: make([]Pallet, 0, len(m.Pallets))}
	for i := range m.Pallets {
		p := &m.Pallets[i]
		// Docs stay empty: pallet docs first appear in V15.
		pallet := Pallet{
			Name:  string(p.Name),
			Index: uint8(p.Index),
		}

		if p.HasStorage {
			group := &StorageGroup{
				Prefix:  string(p.Storage.Prefix),
				Entries: make([]StorageEntry, 0, len(p.Storage.Items)),
			}
			for _, item := range p.Storage.Items {
				kind := "plain"
				if item.Type.IsMap {
					kind = "map"
				}
				group.Entries = append(group.Entries, StorageEntry{
					Name: string(item.Name),
					Kind: kind,
					Docs: texts(item.Documentation),
				})
			}
			pallet.Storage = group
		}

		if p.HasCalls {
			pallet.Calls = resolveVariants(lookup, p.Calls.Type)
		}
		if p.HasEvents {
			pallet.Events = resolveVariants(lookup, p.Events.Type)
		}
		if p.HasErrors {
			pallet.Errors = resolveVariants(lookup, p.Errors.Type)
		}

		if len(p.Constants) > 0 {
			pallet.Constants = make([]Constant, 0, len(p.Constants))
			for _, c := range p.Constants {
				pallet.Constants = append(pallet.Constants, Constant{
					Name: string(c.Name),
					Docs: texts(c.Docs),
				})
			}
		}

		tree.Pallets = append(tree.Pallets, pallet)
	}
	return tree
}

// resolveVariants returns nil when the id does not point at a variant type,
// so a malformed registry hides the group instead of failing the fetch.
func resolveVariants(lookup map[int64]*types.Si1Type, id types.Si1LookupTypeID) []Variant {
	t, ok := lookup[id.Int64()]
	if !ok || !t.Def.IsVariant {
		return nil
	}

	out := make([]Variant, 0, len(t.Def.Variant.Variants))
	for _, v := range t.Def.Variant.Variants {
		variant := Variant{
			Name:  string(v.Name),
			Index: uint8(v.Index),
			Docs:  texts(v.Docs),
		}
		for _, f := range v.Fields {
			field := Field{}
			if f.HasName {
				field.Name = string(f.Name)
			}
			if f.HasTypeName {
				field.TypeName = string(f.TypeName)
			}
			variant.Fields = append(variant.Fields, field)
		}
		out = append(out, variant)
	}
	return out
}

func texts(in []types.Text) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = string(t)
	}
	return out
}
