package view

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/goliatone/go-dataviews/pkg/field"
)

var (
	// ErrUnknownField is returned when a filter or sort names a missing field.
	ErrUnknownField = errors.New("view: unknown field")
	// ErrUnsupportedOperator is returned when a field does not allow an operator.
	ErrUnsupportedOperator = errors.New("view: unsupported operator")
	// ErrNotSortable is returned when sorting by a field with sorting disabled.
	ErrNotSortable = errors.New("view: field is not sortable")
)

// Filter restricts items by one field.
type Filter struct {
	Field    string         `json:"field" yaml:"field"`
	Operator field.Operator `json:"operator" yaml:"operator"`
	Value    any            `json:"value" yaml:"value"`
}

// Sort orders items by one field.
type Sort struct {
	Field     string          `json:"field" yaml:"field"`
	Direction field.Direction `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// View is the presentation state of an item collection: which layout, which
// rows and in what order.
type View struct {
	Type    string         `json:"type" yaml:"type"`
	Search  string         `json:"search,omitempty" yaml:"search,omitempty"`
	Filters []Filter       `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sort    *Sort          `json:"sort,omitempty" yaml:"sort,omitempty"`
	Page    int            `json:"page,omitempty" yaml:"page,omitempty"`
	PerPage int            `json:"perPage,omitempty" yaml:"perPage,omitempty"`
	Fields  []string       `json:"fields,omitempty" yaml:"fields,omitempty"`
	Hidden  []string       `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Layout  map[string]any `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// Result is one page of processed items.
type Result struct {
	Items      []field.Item
	TotalItems int
	TotalPages int
}

// Apply searches, filters, sorts and paginates items. The input slice is not
// reordered.
func Apply(items []field.Item, fields []field.Field, v View) (Result, error) {
	filtered := make([]field.Item, 0, len(items))

	search := normalizeSearch(v.Search)
	var searchable []field.Field
	if search != "" {
		for _, f := range fields {
			if f.EnableGlobalSearch {
				searchable = append(searchable, f)
			}
		}
	}

	type boundFilter struct {
		field  field.Field
		filter Filter
	}
	bound := make([]boundFilter, 0, len(v.Filters))
	for _, filter := range v.Filters {
		f, ok := field.Lookup(fields, filter.Field)
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownField, filter.Field)
		}
		if !slices.Contains(f.FilterBy.Operators, filter.Operator) {
			return Result{}, fmt.Errorf("%w: %q on %q", ErrUnsupportedOperator, filter.Operator, f.ID)
		}
		bound = append(bound, boundFilter{field: f, filter: filter})
	}

	for _, item := range items {
		if search != "" && !matchesSearch(item, searchable, search) {
			continue
		}
		keep := true
		for _, b := range bound {
			if !matches(b.field, b.filter, item) {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, item)
		}
	}

	if v.Sort != nil && v.Sort.Field != "" {
		f, ok := field.Lookup(fields, v.Sort.Field)
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownField, v.Sort.Field)
		}
		if !f.EnableSorting {
			return Result{}, fmt.Errorf("%w: %q", ErrNotSortable, f.ID)
		}
		dir := v.Sort.Direction
		if dir == "" {
			dir = field.DirectionAsc
		}
		slices.SortStableFunc(filtered, func(a, b field.Item) int {
			return f.Sort(a, b, dir)
		})
	}

	return paginate(filtered, v.Page, v.PerPage), nil
}

func paginate(items []field.Item, page, perPage int) Result {
	result := Result{TotalItems: len(items)}
	if perPage <= 0 {
		result.Items = items
		if len(items) > 0 {
			result.TotalPages = 1
		}
		return result
	}
	result.TotalPages = (len(items) + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		result.Items = []field.Item{}
		return result
	}
	end := min(start+perPage, len(items))
	result.Items = items[start:end]
	return result
}

func matchesSearch(item field.Item, searchable []field.Field, search string) bool {
	for _, f := range searchable {
		if strings.Contains(normalizeSearch(field.ToString(f.GetValue(item))), search) {
			return true
		}
		if strings.Contains(normalizeSearch(f.Render(item)), search) {
			return true
		}
	}
	return false
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeSearch lower-cases, trims and strips diacritics so "Café" matches
// "cafe".
func normalizeSearch(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	folded, _, err := transform.String(foldAccents, trimmed)
	if err != nil {
		folded = trimmed
	}
	return strings.ToLower(folded)
}

func matches(f field.Field, filter Filter, item field.Item) bool {
	value := f.GetValue(item)
	switch filter.Operator {
	case field.OperatorIs:
		return field.EqualValues(value, filter.Value)
	case field.OperatorIsNot:
		return !field.EqualValues(value, filter.Value)
	case field.OperatorIsAny:
		return intersects(value, filter.Value)
	case field.OperatorIsNone:
		return !intersects(value, filter.Value)
	case field.OperatorIsAll:
		return containsAll(value, filter.Value)
	case field.OperatorIsNotAll:
		return !containsAll(value, filter.Value)
	case field.OperatorLessThan:
		return value != nil && f.Compare(value, filter.Value) < 0
	case field.OperatorGreaterThan:
		return value != nil && f.Compare(value, filter.Value) > 0
	case field.OperatorContains:
		needle := normalizeSearch(field.ToString(filter.Value))
		return strings.Contains(normalizeSearch(field.ToString(value)), needle)
	}
	return false
}

// asList treats scalars as one-element lists.
func asList(v any) []any {
	if v == nil {
		return nil
	}
	if list, ok := field.ToSlice(v); ok {
		return list
	}
	return []any{v}
}

func intersects(value, wanted any) bool {
	for _, have := range asList(value) {
		for _, want := range asList(wanted) {
			if field.EqualValues(have, want) {
				return true
			}
		}
	}
	return false
}

func containsAll(value, wanted any) bool {
	have := asList(value)
	for _, want := range asList(wanted) {
		if !slices.ContainsFunc(have, func(h any) bool { return field.EqualValues(h, want) }) {
			return false
		}
	}
	return true
}

// VisibleFields returns the fields a view shows, in view order. An empty
// View.Fields shows every field. Fields with EnableHiding false ignore
// View.Hidden.
func VisibleFields(fields []field.Field, v View) []field.Field {
	ordered := fields
	if len(v.Fields) > 0 {
		ordered = make([]field.Field, 0, len(v.Fields))
		for _, id := range v.Fields {
			if f, ok := field.Lookup(fields, id); ok {
				ordered = append(ordered, f)
			}
		}
	}
	out := make([]field.Field, 0, len(ordered))
	for _, f := range ordered {
		if f.EnableHiding && slices.Contains(v.Hidden, f.ID) {
			continue
		}
		out = append(out, f)
	}
	return out
}
