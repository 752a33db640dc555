package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/controls"
	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/form"
	"github.com/goliatone/go-dataviews/pkg/visibility/expr"
)

// ErrAborted signals the user aborted input (Ctrl+C).
var ErrAborted = errors.New("tui: aborted")

const noneOption = "(none)"

// Option configures an Editor.
type Option func(*Editor)

// WithPromptDriver overrides the terminal driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(e *Editor) {
		if driver != nil {
			e.driver = driver
		}
	}
}

// WithDispatcher overrides the form dispatcher.
func WithDispatcher(d *form.Dispatcher) Option {
	return func(e *Editor) {
		if d != nil {
			e.dispatcher = d
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOutput sets where the default driver prints messages.
func WithOutput(w io.Writer) Option {
	return func(e *Editor) {
		e.out = w
	}
}

// Editor edits one item interactively, prompting for every visible control
// of a form.
type Editor struct {
	driver     PromptDriver
	dispatcher *form.Dispatcher
	logger     *zap.Logger
	out        io.Writer
}

// New constructs an Editor. Without a driver it prompts on the terminal.
func New(options ...Option) *Editor {
	e := &Editor{
		dispatcher: form.New(),
		logger:     zap.NewNop(),
		out:        os.Stdout,
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	if e.driver == nil {
		e.driver = &SurveyDriver{Out: e.out}
	}
	return e
}

// Run prompts for each visible control in form order and returns the edits
// whose values differ from item. The layout is dispatched again after every
// answer so fields revealed by earlier answers are asked too.
func (e *Editor) Run(ctx context.Context, item field.Item, f form.Form, fields []field.Field) (field.Edits, error) {
	working := form.Apply(item, nil)
	edits := field.Edits{}
	asked := make(map[string]bool)

	for {
		layout, err := e.dispatcher.Dispatch(working, f, fields, func(change field.Edits) {
			for key, value := range change {
				original, _ := expr.LookupPath(item, key)
				if field.EqualValues(original, value) {
					delete(edits, key)
				} else {
					edits[key] = value
				}
			}
			working = form.Apply(working, change)
		})
		if err != nil {
			return nil, err
		}

		next, group, ok := nextControl(layout.Nodes, asked, "")
		if !ok {
			break
		}
		asked[next.Field.ID] = true
		if group != "" {
			if err := e.driver.Info(ctx, group); err != nil {
				return nil, err
			}
		}

		value, err := e.prompt(ctx, next, working)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("tui: answered", zap.String("field", next.Field.ID), zap.String("control", next.Control))
		next.OnChange(value)
	}

	for id := range edits {
		if f, ok := field.Lookup(fields, id); ok {
			if visible, err := f.Visible(working); err == nil && !visible {
				delete(edits, id)
			}
		}
	}
	return edits, nil
}

// nextControl finds the first unasked control and the label of the group it
// sits in, if the group is being entered for the first time.
func nextControl(nodes []form.Node, asked map[string]bool, group string) (form.Node, string, bool) {
	for _, node := range nodes {
		if node.Kind == form.KindGroup {
			label := ""
			if !anyAsked(node.Children, asked) {
				label = node.Label
			}
			if found, g, ok := nextControl(node.Children, asked, label); ok {
				return found, g, true
			}
			continue
		}
		if !asked[node.Field.ID] {
			return node, group, true
		}
	}
	return form.Node{}, "", false
}

func anyAsked(nodes []form.Node, asked map[string]bool) bool {
	for _, node := range (form.Layout{Nodes: nodes}).Controls() {
		if asked[node.Field.ID] {
			return true
		}
	}
	return false
}

func (e *Editor) prompt(ctx context.Context, node form.Node, item field.Item) (any, error) {
	f := node.Field
	switch node.Control {
	case controls.ControlToggle:
		current, _ := node.Value.(bool)
		return e.driver.Confirm(ctx, ConfirmConfig{Message: f.Label, Default: current, Help: f.Description})
	case controls.ControlSelect, controls.ControlRadio:
		return e.promptElement(ctx, f, node.Value, item)
	case controls.ControlArray:
		if len(f.Elements) > 0 {
			return e.promptElements(ctx, f, node.Value)
		}
		return e.promptText(ctx, f, node.Value, item, parseList)
	case controls.ControlInteger:
		return e.promptText(ctx, f, node.Value, item, parseInteger)
	case controls.ControlNumber:
		return e.promptText(ctx, f, node.Value, item, parseNumber)
	case controls.ControlDatetime:
		return e.promptText(ctx, f, node.Value, item, parseDatetime)
	default:
		return e.promptText(ctx, f, node.Value, item, parseString)
	}
}

type parser func(string) (any, error)

// promptText asks until the answer parses and passes the field validator.
func (e *Editor) promptText(ctx context.Context, f field.Field, current any, item field.Item, parse parser) (any, error) {
	def := field.ToString(current)
	if list, ok := field.ToSlice(current); ok {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, field.ToString(v))
		}
		def = strings.Join(parts, ", ")
	}
	for {
		answer, err := e.driver.Input(ctx, InputConfig{Message: f.Label, Default: def, Help: f.Description})
		if err != nil {
			return nil, err
		}
		value, err := parse(strings.TrimSpace(answer))
		if err == nil {
			err = f.Validate(form.Apply(item, f.SetValue(item, value)))
		}
		if err != nil {
			if infoErr := e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", f.Label, err)); infoErr != nil {
				return nil, infoErr
			}
			continue
		}
		return value, nil
	}
}

func (e *Editor) promptElement(ctx context.Context, f field.Field, current any, item field.Item) (any, error) {
	options := make([]string, 0, len(f.Elements)+1)
	for _, el := range f.Elements {
		options = append(options, el.Label)
	}
	if !f.Required {
		options = append(options, noneOption)
	}
	def := -1
	for i, el := range f.Elements {
		if field.EqualValues(el.Value, current) {
			def = i
		}
	}
	for {
		idx, err := e.driver.Select(ctx, SelectConfig{Message: f.Label, Options: options, DefaultIndex: def, Help: f.Description})
		if err != nil {
			return nil, err
		}
		if idx >= 0 && idx < len(f.Elements) {
			return f.Elements[idx].Value, nil
		}
		if idx == len(f.Elements) && !f.Required {
			return nil, nil
		}
		if infoErr := e.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", f.Label)); infoErr != nil {
			return nil, infoErr
		}
	}
}

func (e *Editor) promptElements(ctx context.Context, f field.Field, current any) (any, error) {
	options := make([]string, 0, len(f.Elements))
	var defaults []int
	have, _ := field.ToSlice(current)
	for i, el := range f.Elements {
		options = append(options, el.Label)
		for _, v := range have {
			if field.EqualValues(el.Value, v) {
				defaults = append(defaults, i)
				break
			}
		}
	}
	for {
		indices, err := e.driver.MultiSelect(ctx, SelectConfig{Message: f.Label, Options: options, Defaults: defaults, Help: f.Description})
		if err != nil {
			return nil, err
		}
		values := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(f.Elements) {
				values = append(values, f.Elements[idx].Value)
			}
		}
		if f.Required && len(values) == 0 {
			if infoErr := e.driver.Info(ctx, fmt.Sprintf("Invalid %s: required", f.Label)); infoErr != nil {
				return nil, infoErr
			}
			continue
		}
		return values, nil
	}
}

func parseString(input string) (any, error) {
	if input == "" {
		return nil, nil
	}
	return input, nil
}

func parseInteger(input string) (any, error) {
	if input == "" {
		return nil, nil
	}
	return strconv.ParseInt(input, 10, 64)
}

func parseNumber(input string) (any, error) {
	if input == "" {
		return nil, nil
	}
	return strconv.ParseFloat(input, 64)
}

func parseDatetime(input string) (any, error) {
	if input == "" {
		return nil, nil
	}
	ts, ok := field.ToTime(input)
	if !ok {
		return nil, fmt.Errorf("expected a date like 2006-01-02 or 2006-01-02T15:04:05Z")
	}
	return ts.UTC().Format(time.RFC3339), nil
}

func parseList(input string) (any, error) {
	if input == "" {
		return []any{}, nil
	}
	parts := strings.Split(input, ",")
	out := make([]any, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}
