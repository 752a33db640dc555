package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dataviews/pkg/field"
)

// LayoutType selects how a form is presented.
type LayoutType string

const (
	LayoutRegular LayoutType = "regular"
	LayoutPanel   LayoutType = "panel"
)

// Direction arranges the children of a group.
type Direction string

const (
	DirectionVertical   Direction = "vertical"
	DirectionHorizontal Direction = "horizontal"
)

// Form declares which fields an edit form shows, in which order and grouping.
type Form struct {
	Type   LayoutType `json:"type,omitempty" yaml:"type,omitempty"`
	Fields []Ref      `json:"fields" yaml:"fields"`
}

// Ref points at a field id or, when Children is set, groups other refs under
// a label. Documents may write a plain string for a field reference.
type Ref struct {
	ID        string    `json:"id" yaml:"id"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	Children  []Ref     `json:"children,omitempty" yaml:"children,omitempty"`
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// IsGroup reports whether the ref combines other refs.
func (r Ref) IsGroup() bool {
	return len(r.Children) > 0
}

// Fields builds a form referencing ids in order.
func Fields(ids ...string) Form {
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = Ref{ID: id}
	}
	return Form{Fields: refs}
}

// Group builds a combined ref.
func Group(id, label string, children ...string) Ref {
	refs := make([]Ref, len(children))
	for i, child := range children {
		refs[i] = Ref{ID: child}
	}
	return Ref{ID: id, Label: label, Children: refs}
}

type refAlias Ref

// UnmarshalJSON accepts either "id" or a full object.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref{ID: strings.TrimSpace(id)}
		return nil
	}
	var alias refAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("form: field reference: %w", err)
	}
	*r = Ref(alias)
	r.ID = strings.TrimSpace(r.ID)
	return nil
}

// UnmarshalYAML accepts either a scalar id or a mapping.
func (r *Ref) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*r = Ref{ID: strings.TrimSpace(value.Value)}
		return nil
	}
	var alias refAlias
	if err := value.Decode(&alias); err != nil {
		return fmt.Errorf("form: field reference: %w", err)
	}
	*r = Ref(alias)
	r.ID = strings.TrimSpace(r.ID)
	return nil
}

// NodeKind tells control nodes from group nodes.
type NodeKind int

const (
	KindControl NodeKind = iota
	KindGroup
)

// Node is one entry of a dispatched layout.
type Node struct {
	Kind NodeKind

	// Control nodes.
	Field    field.Field
	Control  string
	Value    any
	Display  string
	Errors   []string
	OnChange func(value any)

	// Group nodes.
	ID        string
	Label     string
	Direction Direction
	Children  []Node
}

// Layout is the view tree produced by Dispatch.
type Layout struct {
	Type  LayoutType
	Nodes []Node
}

// Empty reports whether nothing would be rendered.
func (l Layout) Empty() bool {
	return len(l.Nodes) == 0
}

// Controls flattens the layout into control nodes in render order.
func (l Layout) Controls() []Node {
	var out []Node
	var walk func([]Node)
	walk = func(nodes []Node) {
		for _, node := range nodes {
			if node.Kind == KindGroup {
				walk(node.Children)
				continue
			}
			out = append(out, node)
		}
	}
	walk(l.Nodes)
	return out
}
