package form

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/field"
)

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithValidation attaches field validation messages to control nodes.
func WithValidation(enabled bool) Option {
	return func(d *Dispatcher) {
		d.validate = enabled
	}
}

// Dispatcher resolves a form against normalized fields and the current item.
type Dispatcher struct {
	logger   *zap.Logger
	validate bool
}

// New constructs a Dispatcher.
func New(options ...Option) *Dispatcher {
	d := &Dispatcher{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

var defaultDispatcher = New()

// Dispatch runs the default dispatcher.
func Dispatch(data field.Item, form Form, fields []field.Field, onChange func(field.Edits)) (Layout, error) {
	return defaultDispatcher.Dispatch(data, form, fields, onChange)
}

// Dispatch walks form.Fields in order. Hidden fields and unknown references
// contribute nothing; every visible field yields a control node whose
// OnChange forwards a partial update scoped to that field to onChange. A form
// without fields produces an empty layout.
func (d *Dispatcher) Dispatch(data field.Item, form Form, fields []field.Field, onChange func(field.Edits)) (Layout, error) {
	layout := Layout{Type: form.Type}
	if layout.Type == "" {
		layout.Type = LayoutRegular
	}
	if len(form.Fields) == 0 {
		return layout, nil
	}

	index := make(map[string]field.Field, len(fields))
	for _, f := range fields {
		index[f.ID] = f
	}

	nodes, err := d.dispatchRefs(data, form.Fields, index, onChange)
	if err != nil {
		return Layout{}, err
	}
	layout.Nodes = nodes
	return layout, nil
}

func (d *Dispatcher) dispatchRefs(data field.Item, refs []Ref, index map[string]field.Field, onChange func(field.Edits)) ([]Node, error) {
	nodes := make([]Node, 0, len(refs))
	for _, ref := range refs {
		if ref.IsGroup() {
			children, err := d.dispatchRefs(data, ref.Children, index, onChange)
			if err != nil {
				return nil, err
			}
			if len(children) == 0 {
				continue
			}
			direction := ref.Direction
			if direction == "" {
				direction = DirectionVertical
			}
			nodes = append(nodes, Node{
				Kind:      KindGroup,
				ID:        ref.ID,
				Label:     ref.Label,
				Direction: direction,
				Children:  children,
			})
			continue
		}

		f, ok := index[ref.ID]
		if !ok {
			d.logger.Debug("form: skipping unknown field reference", zap.String("id", ref.ID))
			continue
		}
		visible, err := f.Visible(data)
		if err != nil {
			return nil, fmt.Errorf("form: visibility of %q: %w", f.ID, err)
		}
		if !visible {
			continue
		}
		nodes = append(nodes, d.controlNode(data, f, onChange))
	}
	return nodes, nil
}

func (d *Dispatcher) controlNode(data field.Item, f field.Field, onChange func(field.Edits)) Node {
	node := Node{
		Kind:    KindControl,
		Field:   f,
		Control: f.Edit,
		Value:   f.GetValue(data),
		Display: f.Render(data),
		OnChange: func(value any) {
			if onChange == nil {
				return
			}
			onChange(f.SetValue(data, value))
		},
	}
	if d.validate {
		if err := f.Validate(data); err != nil {
			node.Errors = []string{err.Error()}
		}
	}
	return node
}
