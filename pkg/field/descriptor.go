package field

import (
	"github.com/goliatone/go-dataviews/pkg/visibility"
)

// Item is one data record, for example a post decoded from JSON.
type Item = map[string]any

// Edits is a partial update keyed by field id.
type Edits = map[string]any

// Direction orders a sort.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// Element is one allowed value for a field with a closed value set.
type Element struct {
	Value       any    `json:"value" yaml:"value"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// FilterBy configures how a field participates in view filters. An empty
// Operators list disables filtering.
type FilterBy struct {
	Operators []Operator `json:"operators" yaml:"operators"`
	IsPrimary bool       `json:"isPrimary,omitempty" yaml:"isPrimary,omitempty"`
}

// Descriptor is a partially specified field. Only ID and Type are required;
// Normalize resolves everything else. Function members cannot be decoded
// from documents, VisibleWhen is their declarative counterpart.
type Descriptor struct {
	ID                 string    `json:"id" yaml:"id"`
	Type               Type      `json:"type" yaml:"type"`
	Label              string    `json:"label,omitempty" yaml:"label,omitempty"`
	Header             string    `json:"header,omitempty" yaml:"header,omitempty"`
	Description        string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required           bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Elements           []Element `json:"elements,omitempty" yaml:"elements,omitempty"`
	FilterBy           *FilterBy `json:"filterBy,omitempty" yaml:"filterBy,omitempty"`
	EnableSorting      *bool     `json:"enableSorting,omitempty" yaml:"enableSorting,omitempty"`
	EnableHiding       *bool     `json:"enableHiding,omitempty" yaml:"enableHiding,omitempty"`
	EnableGlobalSearch *bool     `json:"enableGlobalSearch,omitempty" yaml:"enableGlobalSearch,omitempty"`
	Edit               string    `json:"edit,omitempty" yaml:"edit,omitempty"`
	VisibleWhen        string    `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`

	GetValue  func(item Item) any                `json:"-" yaml:"-"`
	SetValue  func(item Item, value any) Edits   `json:"-" yaml:"-"`
	IsVisible func(item Item) bool               `json:"-" yaml:"-"`
	Render    func(item Item) string             `json:"-" yaml:"-"`
	Sort      func(a, b Item, dir Direction) int `json:"-" yaml:"-"`
	IsValid   func(item Item) error              `json:"-" yaml:"-"`
}

// Field is a normalized descriptor. Every function member is non-nil and
// every flag is concrete. Treat it as immutable.
type Field struct {
	ID                 string    `json:"id"`
	Type               Type      `json:"type"`
	Label              string    `json:"label"`
	Header             string    `json:"header"`
	Description        string    `json:"description,omitempty"`
	Required           bool      `json:"required,omitempty"`
	Elements           []Element `json:"elements,omitempty"`
	FilterBy           FilterBy  `json:"filterBy"`
	EnableSorting      bool      `json:"enableSorting"`
	EnableHiding       bool      `json:"enableHiding"`
	EnableGlobalSearch bool      `json:"enableGlobalSearch"`
	Edit               string    `json:"edit"`
	VisibleWhen        string    `json:"visibleWhen,omitempty"`

	GetValue  func(item Item) any                `json:"-"`
	SetValue  func(item Item, value any) Edits   `json:"-"`
	IsVisible func(item Item) bool               `json:"-"`
	Render    func(item Item) string             `json:"-"`
	Sort      func(a, b Item, dir Direction) int `json:"-"`
	IsValid   func(item Item) error              `json:"-"`

	rule       visibility.Program
	definition TypeDefinition
}

// Compare orders two raw values with the field type's comparator. Nil sorts
// after everything else.
func (f Field) Compare(a, b any) int {
	if f.definition.Compare == nil {
		return 0
	}
	return f.definition.Compare(a, b)
}

// Filterable reports whether the field exposes any filter operator.
func (f Field) Filterable() bool {
	return len(f.FilterBy.Operators) > 0
}

// Visible evaluates the predicate and then the compiled VisibleWhen rule.
// Rule evaluation errors are returned to the caller.
func (f Field) Visible(item Item) (bool, error) {
	if f.IsVisible != nil && !f.IsVisible(item) {
		return false, nil
	}
	if f.rule == nil {
		return true, nil
	}
	return f.rule.Eval(visibility.Context{Values: item})
}

// Validate checks the item's value for this field: required, then the type
// definition, then element membership, then the custom IsValid.
func (f Field) Validate(item Item) error {
	value := f.GetValue(item)
	if isEmpty(value) {
		if f.Required {
			return valueError(f.ID, ErrRequired, "")
		}
		return nil
	}
	if f.definition.Check != nil {
		if err := f.definition.Check(value); err != nil {
			return valueError(f.ID, ErrInvalidValue, err.Error())
		}
	}
	if len(f.Elements) > 0 {
		if err := checkElements(f, value); err != nil {
			return err
		}
	}
	if f.IsValid != nil {
		if err := f.IsValid(item); err != nil {
			return valueError(f.ID, ErrInvalidValue, err.Error())
		}
	}
	return nil
}

// ElementLabel returns the label of the element matching value.
func (f Field) ElementLabel(value any) (string, bool) {
	for _, el := range f.Elements {
		if EqualValues(el.Value, value) {
			return el.Label, true
		}
	}
	return "", false
}

// Descriptor converts the field back into a fully specified descriptor.
// Normalizing the result yields an equivalent field.
func (f Field) Descriptor() Descriptor {
	sorting, hiding, search := f.EnableSorting, f.EnableHiding, f.EnableGlobalSearch
	filterBy := FilterBy{
		Operators: append([]Operator{}, f.FilterBy.Operators...),
		IsPrimary: f.FilterBy.IsPrimary,
	}
	return Descriptor{
		ID:                 f.ID,
		Type:               f.Type,
		Label:              f.Label,
		Header:             f.Header,
		Description:        f.Description,
		Required:           f.Required,
		Elements:           cloneElements(f.Elements),
		FilterBy:           &filterBy,
		EnableSorting:      &sorting,
		EnableHiding:       &hiding,
		EnableGlobalSearch: &search,
		Edit:               f.Edit,
		VisibleWhen:        f.VisibleWhen,
		GetValue:           f.GetValue,
		SetValue:           f.SetValue,
		IsVisible:          f.IsVisible,
		Render:             f.Render,
		Sort:               f.Sort,
		IsValid:            f.IsValid,
	}
}

// Descriptors converts normalized fields back into descriptors.
func Descriptors(fields []Field) []Descriptor {
	out := make([]Descriptor, len(fields))
	for i, f := range fields {
		out[i] = f.Descriptor()
	}
	return out
}

// Lookup finds a field by id.
func Lookup(fields []Field, id string) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func checkElements(f Field, value any) error {
	if f.Type == TypeArray {
		values, _ := ToSlice(value)
		for _, v := range values {
			if _, ok := f.ElementLabel(v); !ok {
				return valueError(f.ID, ErrInvalidValue, "value "+ToString(v)+" is not one of the allowed elements")
			}
		}
		return nil
	}
	if _, ok := f.ElementLabel(value); !ok {
		return valueError(f.ID, ErrInvalidValue, "value "+ToString(value)+" is not one of the allowed elements")
	}
	return nil
}

func cloneElements(in []Element) []Element {
	if len(in) == 0 {
		return nil
	}
	return append([]Element(nil), in...)
}
