// Package visibility defines how declarative visibility rules attached to
// fields are evaluated against the item being edited or displayed.
package visibility

// Evaluator determines whether a field should be visible based on a rule
// string and a context built from the current item.
type Evaluator interface {
	Eval(fieldID, rule string, ctx Context) (bool, error)
}

// Compiler is implemented by evaluators that can parse a rule once and
// evaluate it many times. Normalization prefers it so malformed rules fail
// when fields are built instead of when they are rendered.
type Compiler interface {
	Compile(rule string) (Program, error)
}

// Program is a parsed rule ready for repeated evaluation.
type Program interface {
	Eval(ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the item fields while
// Extras carries caller supplied facts such as the current user's role.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldID, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldID, rule string, ctx Context) (bool, error) {
	return fn(fieldID, rule, ctx)
}

// ProgramFunc adapts a function into a Program.
type ProgramFunc func(ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn ProgramFunc) Eval(ctx Context) (bool, error) {
	return fn(ctx)
}
