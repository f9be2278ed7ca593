package tui

import (
	"fmt"

	"github.com/pders01/subex/internal/endpoints"
	"github.com/pders01/subex/internal/search"
)

type searchResultItem struct {
	result *search.Result
}

func (i searchResultItem) FilterValue() string {
	if i.result == nil {
		return ""
	}
	return i.result.Name
}

func (i searchResultItem) Title() string {
	if i.result == nil {
		return ""
	}
	if i.result.Kind == search.KindPallet {
		return "▸ " + i.result.Name
	}
	return fmt.Sprintf("%s::%s", i.result.Pallet, i.result.Name)
}

func (i searchResultItem) Description() string {
	if i.result == nil {
		return ""
	}
	return i.result.Kind
}

type presetItem struct {
	endpoint endpoints.Endpoint
}

func (i presetItem) FilterValue() string {
	return i.endpoint.Name + " " + i.endpoint.URL
}

func (i presetItem) Title() string {
	return i.endpoint.Name
}

func (i presetItem) Description() string {
	desc := i.endpoint.URL
	if i.endpoint.Description != "" {
		desc += " • " + i.endpoint.Description
	}
	return desc + localHint(i.endpoint.URL)
}
