package form

import (
	"strings"

	"github.com/goliatone/go-dataviews/pkg/field"
)

// Apply returns a copy of item with edits merged in. Dotted keys update
// nested maps when the parent path already holds a map, otherwise they are
// stored verbatim. The input item is never modified.
func Apply(item field.Item, edits field.Edits) field.Item {
	out := make(field.Item, len(item)+len(edits))
	for k, v := range item {
		out[k] = v
	}
	for key, value := range edits {
		if _, flat := out[key]; flat || !strings.Contains(key, ".") {
			out[key] = value
			continue
		}
		if !setNested(out, strings.Split(key, "."), value) {
			out[key] = value
		}
	}
	return out
}

// setNested copies every map on the path before writing so shared nested
// maps in the source item stay untouched.
func setNested(target map[string]any, parts []string, value any) bool {
	head := parts[0]
	if len(parts) == 1 {
		target[head] = value
		return true
	}
	child, ok := target[head].(map[string]any)
	if !ok {
		return false
	}
	cloned := make(map[string]any, len(child)+1)
	for k, v := range child {
		cloned[k] = v
	}
	if !setNested(cloned, parts[1:], value) {
		return false
	}
	target[head] = cloned
	return true
}

// Validate runs every visible field's validator against item and returns
// messages keyed by field id. Fields hidden for this item are skipped.
func Validate(item field.Item, form Form, fields []field.Field) (map[string][]string, error) {
	layout, err := Dispatch(item, form, fields, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string)
	for _, node := range layout.Controls() {
		if err := node.Field.Validate(item); err != nil {
			out[node.Field.ID] = append(out[node.Field.ID], err.Error())
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
