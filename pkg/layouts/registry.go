package layouts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/view"
)

// Type names a view layout.
type Type string

const (
	TypeTable Type = "table"
	TypeGrid  Type = "grid"
	TypeList  Type = "list"
)

// ErrUnknownLayout is returned by Get for unregistered layout types.
var ErrUnknownLayout = errors.New("layouts: unknown layout")

// Component renders one page of items for a layout.
type Component interface {
	Render(ctx context.Context, v view.View, items []field.Item, fields []field.Field) ([]byte, error)
}

// ComponentFunc adapts a function into a Component.
type ComponentFunc func(ctx context.Context, v view.View, items []field.Item, fields []field.Field) ([]byte, error)

// Render calls fn.
func (fn ComponentFunc) Render(ctx context.Context, v view.View, items []field.Item, fields []field.Field) ([]byte, error) {
	return fn(ctx, v, items, fields)
}

// ConfigOption is one setting a layout exposes in its configuration panel.
type ConfigOption struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Choices []string `json:"choices,omitempty"`
	Default string   `json:"default,omitempty"`
}

// ConfigComponent lists the configurable options of a layout for a field set.
type ConfigComponent interface {
	Options(fields []field.Field) []ConfigOption
}

// ConfigFunc adapts a function into a ConfigComponent.
type ConfigFunc func(fields []field.Field) []ConfigOption

// Options calls fn.
func (fn ConfigFunc) Options(fields []field.Field) []ConfigOption {
	return fn(fields)
}

// Entry describes one registered layout.
type Entry struct {
	Type          Type
	Label         string
	Component     Component
	Icon          string
	ConfigOptions ConfigComponent
}

// Registry maps layout types to entries. It is built once by NewRegistry
// and never mutated, so it is safe for concurrent use without locking.
type Registry struct {
	entries map[Type]Entry
}

// NewRegistry validates entries and builds an immutable registry. Empty or
// duplicate types and missing components fail; icon markup is sanitized.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[Type]Entry, len(entries))}
	for _, entry := range entries {
		entry.Type = Type(strings.TrimSpace(string(entry.Type)))
		if entry.Type == "" {
			return nil, fmt.Errorf("layouts: layout type is required")
		}
		if entry.Component == nil {
			return nil, fmt.Errorf("layouts: layout %q has no component", entry.Type)
		}
		if _, exists := r.entries[entry.Type]; exists {
			return nil, fmt.Errorf("layouts: layout %q already registered", entry.Type)
		}
		if entry.Label == "" {
			entry.Label = field.DefaultLabeler(string(entry.Type))
		}
		if entry.Icon != "" {
			icon := sanitizeIcon(entry.Icon)
			if icon == "" {
				return nil, fmt.Errorf("layouts: icon for %q contains no allowed markup", entry.Type)
			}
			entry.Icon = icon
		}
		r.entries[entry.Type] = entry
	}
	return r, nil
}

// MustNewRegistry panics on construction failure. Useful for init-time wiring.
func MustNewRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get retrieves the entry for t.
func (r *Registry) Get(t Type) (Entry, error) {
	if r != nil {
		if entry, ok := r.entries[t]; ok {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrUnknownLayout, t)
}

// MustGet panics if t is not registered.
func (r *Registry) MustGet(t Type) Entry {
	entry, err := r.Get(t)
	if err != nil {
		panic(err)
	}
	return entry
}

// Types returns the registered layout types sorted by name.
func (r *Registry) Types() []Type {
	if r == nil {
		return nil
	}
	types := make([]Type, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Has reports whether t is registered.
func (r *Registry) Has(t Type) bool {
	if r == nil {
		return false
	}
	_, ok := r.entries[t]
	return ok
}
