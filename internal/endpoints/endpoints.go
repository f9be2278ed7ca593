package endpoints

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/subex/internal/debuglog"
	"github.com/pders01/subex/internal/validation"
)

//go:embed endpoints.toml
var builtinTOML []byte

// Endpoint is a named RPC endpoint the user can pick instead of typing a URL.
type Endpoint struct {
	ID          string `toml:"-"`
	Name        string `toml:"name"`
	URL         string `toml:"url"`
	Description string `toml:"description,omitempty"`
	Order       int    `toml:"order,omitempty"`
	// Disabled hides a built-in entry when set from the user file.
	Disabled bool `toml:"disabled,omitempty"`
}

type File struct {
	Endpoints map[string]Endpoint `toml:"endpoints"`
}

// Registry holds the merged endpoint presets.
type Registry struct {
	endpoints map[string]Endpoint
}

// NewRegistry parses the built-in presets and merges userPath over them.
// A missing user file is not an error.
func NewRegistry(userPath string) (*Registry, error) {
	var builtin File
	if err := toml.Unmarshal(builtinTOML, &builtin); err != nil {
		return nil, fmt.Errorf("parsing endpoints.toml: %w", err)
	}

	r := &Registry{endpoints: make(map[string]Endpoint, len(builtin.Endpoints))}
	r.merge(builtin)

	if userPath == "" {
		return r, nil
	}

	data, err := os.ReadFile(userPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return r, fmt.Errorf("reading %s: %w", userPath, err)
	}

	var user File
	if err := toml.Unmarshal(data, &user); err != nil {
		return r, fmt.Errorf("parsing %s: %w", userPath, err)
	}
	r.merge(user)

	return r, nil
}

func (r *Registry) merge(f File) {
	v := validation.NewEndpointURLValidator()
	for id, ep := range f.Endpoints {
		ep.ID = id
		if ep.Disabled {
			delete(r.endpoints, id)
			continue
		}
		if existing, ok := r.endpoints[id]; ok {
			ep = overlay(existing, ep)
		}
		if ep.Name == "" {
			ep.Name = id
		}
		if _, err := v.Validate(ep.URL); err != nil {
			debuglog.WithFields(map[string]interface{}{
				"endpoint": id,
				"url":      ep.URL,
			}).Warnf("Skipping endpoint preset: %v", err)
			continue
		}
		r.endpoints[id] = ep
	}
}

// overlay fills unset fields of override from base.
func overlay(base, override Endpoint) Endpoint {
	if override.Name == "" {
		override.Name = base.Name
	}
	if override.URL == "" {
		override.URL = base.URL
	}
	if override.Description == "" {
		override.Description = base.Description
	}
	if override.Order == 0 {
		override.Order = base.Order
	}
	return override
}

// List returns the endpoints ordered by Order, then by Name.
func (r *Registry) List() []Endpoint {
	list := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		list = append(list, ep)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Order != list[j].Order {
			return list[i].Order < list[j].Order
		}
		return list[i].Name < list[j].Name
	})
	return list
}

// Lookup finds an endpoint by its ID.
func (r *Registry) Lookup(id string) (Endpoint, bool) {
	if r == nil {
		return Endpoint{}, false
	}
	ep, ok := r.endpoints[id]
	return ep, ok
}
