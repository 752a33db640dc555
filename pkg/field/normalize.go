package field

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/controls"
	"github.com/goliatone/go-dataviews/pkg/visibility"
	"github.com/goliatone/go-dataviews/pkg/visibility/expr"
)

// DuplicatePolicy decides what happens when two descriptors share an id.
type DuplicatePolicy int

const (
	// DuplicateLastWins keeps the last descriptor at the position of the
	// first one and logs a warning. Type changes are still rejected.
	DuplicateLastWins DuplicatePolicy = iota
	// DuplicateReject fails on any repeated id.
	DuplicateReject
)

// Option customises normalization.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	duplicates DuplicatePolicy
	controls   *controls.Registry
	evaluator  visibility.Evaluator
	labeler    func(string) string
}

// WithLogger routes duplicate warnings and debug output to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDuplicatePolicy overrides the DuplicateLastWins default.
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(o *options) {
		o.duplicates = policy
	}
}

// WithControls overrides the registry used to pick edit controls.
func WithControls(registry *controls.Registry) Option {
	return func(o *options) {
		if registry != nil {
			o.controls = registry
		}
	}
}

// WithEvaluator overrides the evaluator used for VisibleWhen rules.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(o *options) {
		if evaluator != nil {
			o.evaluator = evaluator
		}
	}
}

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler func(string) string) Option {
	return func(o *options) {
		if labeler != nil {
			o.labeler = labeler
		}
	}
}

var (
	defaultControls  = controls.NewRegistry()
	defaultEvaluator = expr.New()
)

func newOptions(opts []Option) options {
	cfg := options{
		logger:    zap.NewNop(),
		controls:  defaultControls,
		evaluator: defaultEvaluator,
		labeler:   DefaultLabeler,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Normalize resolves descriptors into fields. The output keeps the first-seen
// order of distinct ids. Normalizing the Descriptors of the output again
// yields equivalent fields.
func Normalize(descriptors []Descriptor, opts ...Option) ([]Field, error) {
	cfg := newOptions(opts)
	if len(descriptors) == 0 {
		return []Field{}, nil
	}

	positions := make(map[string]int, len(descriptors))
	fields := make([]Field, 0, len(descriptors))

	for idx, desc := range descriptors {
		normalized, err := normalizeOne(idx, desc, cfg)
		if err != nil {
			return nil, err
		}

		pos, seen := positions[normalized.ID]
		if !seen {
			positions[normalized.ID] = len(fields)
			fields = append(fields, normalized)
			continue
		}

		previous := fields[pos]
		if previous.Type != normalized.Type {
			return nil, descriptorError(idx, normalized.ID, ErrIncompatibleDuplicate,
				fmt.Sprintf("type %q redeclared as %q", previous.Type, normalized.Type))
		}
		if cfg.duplicates == DuplicateReject {
			return nil, descriptorError(idx, normalized.ID, ErrDuplicateID, "")
		}
		cfg.logger.Warn("field: duplicate id overrides earlier descriptor",
			zap.String("id", normalized.ID),
			zap.Int("index", idx),
		)
		fields[pos] = normalized
	}

	return fields, nil
}

// MustNormalize panics when Normalize fails. Useful for package-level field
// sets built from literals.
func MustNormalize(descriptors []Descriptor, opts ...Option) []Field {
	fields, err := Normalize(descriptors, opts...)
	if err != nil {
		panic(err)
	}
	return fields
}

func normalizeOne(idx int, desc Descriptor, cfg options) (Field, error) {
	id := strings.TrimSpace(desc.ID)
	if id == "" {
		return Field{}, descriptorError(idx, "", ErrInvalidDescriptor, "id is required")
	}
	if desc.Type == "" {
		return Field{}, descriptorError(idx, id, ErrInvalidDescriptor, "type is required")
	}
	def, ok := Definition(desc.Type)
	if !ok {
		return Field{}, descriptorError(idx, id, ErrUnknownType, fmt.Sprintf("type %q", desc.Type))
	}

	f := Field{
		ID:          id,
		Type:        desc.Type,
		Label:       desc.Label,
		Header:      desc.Header,
		Description: desc.Description,
		Required:    desc.Required,
		Elements:    cloneElements(desc.Elements),
		Edit:        strings.TrimSpace(desc.Edit),
		VisibleWhen: strings.TrimSpace(desc.VisibleWhen),
		definition:  def,
	}
	if f.Label == "" {
		f.Label = cfg.labeler(id)
	}
	if f.Header == "" {
		f.Header = f.Label
	}

	f.FilterBy = resolveFilterBy(desc.FilterBy, def, len(f.Elements) > 0)
	f.EnableSorting = boolOr(desc.EnableSorting, def.Sortable && !(desc.FilterBy != nil && len(desc.FilterBy.Operators) == 0))
	f.EnableHiding = boolOr(desc.EnableHiding, true)
	f.EnableGlobalSearch = boolOr(desc.EnableGlobalSearch, false)

	f.GetValue = desc.GetValue
	if f.GetValue == nil {
		f.GetValue = valueGetter(id)
	}
	f.SetValue = desc.SetValue
	if f.SetValue == nil {
		f.SetValue = valueSetter(id)
	}
	f.IsVisible = desc.IsVisible
	if f.IsVisible == nil {
		f.IsVisible = alwaysVisible
	}
	f.IsValid = desc.IsValid
	if f.IsValid == nil {
		f.IsValid = alwaysValid
	}
	f.Render = desc.Render
	if f.Render == nil {
		f.Render = renderer(f.GetValue, f.Elements, def)
	}
	f.Sort = desc.Sort
	if f.Sort == nil {
		f.Sort = sorter(f.GetValue, def)
	}

	if f.VisibleWhen != "" {
		rule, err := compileRule(f.ID, f.VisibleWhen, cfg.evaluator)
		if err != nil {
			return Field{}, descriptorError(idx, id, ErrInvalidRule, err.Error())
		}
		f.rule = rule
	}

	if f.Edit == "" {
		control, ok := cfg.controls.Resolve(controls.Subject{
			ID:       id,
			Type:     string(f.Type),
			Elements: len(f.Elements),
		})
		if !ok {
			return Field{}, descriptorError(idx, id, ErrInvalidDescriptor, "no edit control matches")
		}
		f.Edit = control
	}

	return f, nil
}

func resolveFilterBy(in *FilterBy, def TypeDefinition, hasElements bool) FilterBy {
	if in != nil {
		return FilterBy{
			Operators: append([]Operator{}, in.Operators...),
			IsPrimary: in.IsPrimary,
		}
	}
	if hasElements && def.Type != TypeArray {
		return FilterBy{Operators: []Operator{OperatorIsAny, OperatorIsNone}}
	}
	return FilterBy{Operators: append([]Operator{}, def.Operators...)}
}

func compileRule(id, rule string, evaluator visibility.Evaluator) (visibility.Program, error) {
	if compiler, ok := evaluator.(visibility.Compiler); ok {
		return compiler.Compile(rule)
	}
	return visibility.ProgramFunc(func(ctx visibility.Context) (bool, error) {
		return evaluator.Eval(id, rule, ctx)
	}), nil
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func alwaysVisible(Item) bool { return true }

func alwaysValid(Item) error { return nil }

func valueGetter(id string) func(Item) any {
	return func(item Item) any {
		value, _ := expr.LookupPath(item, id)
		return value
	}
}

func valueSetter(id string) func(Item, any) Edits {
	return func(_ Item, value any) Edits {
		return Edits{id: value}
	}
}

func renderer(get func(Item) any, elements []Element, def TypeDefinition) func(Item) string {
	return func(item Item) string {
		value := get(item)
		if value == nil {
			return ""
		}
		if len(elements) == 0 {
			return def.Format(value)
		}
		labelFor := func(v any) string {
			for _, el := range elements {
				if EqualValues(el.Value, v) {
					return el.Label
				}
			}
			return def.Format(v)
		}
		if values, ok := ToSlice(value); ok {
			labels := make([]string, 0, len(values))
			for _, v := range values {
				labels = append(labels, labelFor(v))
			}
			return strings.Join(labels, ", ")
		}
		return labelFor(value)
	}
}

func sorter(get func(Item) any, def TypeDefinition) func(a, b Item, dir Direction) int {
	return func(a, b Item, dir Direction) int {
		left, right := get(a), get(b)
		if left == nil || right == nil {
			// nil stays last regardless of direction
			return def.Compare(left, right)
		}
		c := def.Compare(left, right)
		if dir == DirectionDesc {
			return -c
		}
		return c
	}
}
