package field

import (
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Type is the tagged variant every descriptor declares.
type Type string

const (
	TypeText     Type = "text"
	TypeInteger  Type = "integer"
	TypeNumber   Type = "number"
	TypeDatetime Type = "datetime"
	TypeBoolean  Type = "boolean"
	TypeEmail    Type = "email"
	TypeArray    Type = "array"
	TypeMedia    Type = "media"
)

// Types lists the supported field types in declaration order.
func Types() []Type {
	return []Type{TypeText, TypeInteger, TypeNumber, TypeDatetime, TypeBoolean, TypeEmail, TypeArray, TypeMedia}
}

// Operator names a filter comparison.
type Operator string

const (
	OperatorIs          Operator = "is"
	OperatorIsNot       Operator = "isNot"
	OperatorIsAny       Operator = "isAny"
	OperatorIsNone      Operator = "isNone"
	OperatorIsAll       Operator = "isAll"
	OperatorIsNotAll    Operator = "isNotAll"
	OperatorLessThan    Operator = "lessThan"
	OperatorGreaterThan Operator = "greaterThan"
	OperatorContains    Operator = "contains"
)

// TypeDefinition holds the behaviour shared by every field of one Type.
type TypeDefinition struct {
	Type Type
	// Sortable is the EnableSorting default.
	Sortable bool
	// Operators is the FilterBy default when the field has no elements.
	Operators []Operator
	// Compare orders two raw values. Nil values sort last.
	Compare func(a, b any) int
	// Check validates a non-empty raw value.
	Check func(value any) error
	// Format renders a non-nil raw value as text.
	Format func(value any) string
}

// Definition returns the behaviour for t. Unknown types report false.
func Definition(t Type) (TypeDefinition, bool) {
	switch t {
	case TypeText:
		return TypeDefinition{
			Type:      t,
			Sortable:  true,
			Operators: []Operator{OperatorIs, OperatorIsNot, OperatorContains},
			Compare:   compareText,
			Check:     checkText,
			Format:    formatAny,
		}, true
	case TypeEmail:
		return TypeDefinition{
			Type:      t,
			Sortable:  true,
			Operators: []Operator{OperatorIs, OperatorIsNot, OperatorContains},
			Compare:   compareText,
			Check:     checkEmail,
			Format:    formatAny,
		}, true
	case TypeInteger:
		return TypeDefinition{
			Type:      t,
			Sortable:  true,
			Operators: []Operator{OperatorIs, OperatorIsNot, OperatorLessThan, OperatorGreaterThan},
			Compare:   compareNumber,
			Check:     checkInteger,
			Format:    formatNumber,
		}, true
	case TypeNumber:
		return TypeDefinition{
			Type:      t,
			Sortable:  true,
			Operators: []Operator{OperatorIs, OperatorIsNot, OperatorLessThan, OperatorGreaterThan},
			Compare:   compareNumber,
			Check:     checkNumber,
			Format:    formatNumber,
		}, true
	case TypeDatetime:
		return TypeDefinition{
			Type:      t,
			Sortable:  true,
			Operators: []Operator{OperatorIs, OperatorIsNot, OperatorLessThan, OperatorGreaterThan},
			Compare:   compareDatetime,
			Check:     checkDatetime,
			Format:    formatDatetime,
		}, true
	case TypeBoolean:
		return TypeDefinition{
			Type:      t,
			Sortable:  true,
			Operators: []Operator{OperatorIs, OperatorIsNot},
			Compare:   compareBool,
			Check:     checkBool,
			Format:    formatBool,
		}, true
	case TypeArray:
		return TypeDefinition{
			Type:      t,
			Sortable:  false,
			Operators: []Operator{OperatorIsAny, OperatorIsNone, OperatorIsAll, OperatorIsNotAll},
			Compare:   compareNone,
			Check:     checkArray,
			Format:    formatArray,
		}, true
	case TypeMedia:
		return TypeDefinition{
			Type:      t,
			Sortable:  false,
			Operators: []Operator{},
			Compare:   compareNone,
			Check:     func(any) error { return nil },
			Format:    formatAny,
		}, true
	}
	return TypeDefinition{}, false
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und, collate.IgnoreCase, collate.Loose)
)

func compareText(a, b any) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(ToString(a), ToString(b))
}

func compareNumber(a, b any) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	left, _ := ToFloat(a)
	right, _ := ToFloat(b)
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	default:
		return 0
	}
}

func compareDatetime(a, b any) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	left, lok := ToTime(a)
	right, rok := ToTime(b)
	switch {
	case !lok && !rok:
		return 0
	case !lok:
		return 1
	case !rok:
		return -1
	}
	return left.Compare(right)
}

func compareBool(a, b any) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	left, _ := a.(bool)
	right, _ := b.(bool)
	switch {
	case left == right:
		return 0
	case !left:
		return -1
	default:
		return 1
	}
}

func compareNone(any, any) int { return 0 }

// compareNil orders nil values after everything else.
func compareNil(a, b any) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return 1, true
	case b == nil:
		return -1, true
	}
	return 0, false
}

func checkText(value any) error {
	switch value.(type) {
	case string, fmt.Stringer:
		return nil
	}
	return fmt.Errorf("expected text, got %T", value)
}

func checkEmail(value any) error {
	text, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected an email address, got %T", value)
	}
	addr, err := mail.ParseAddress(text)
	if err != nil || addr.Address != strings.TrimSpace(text) {
		return fmt.Errorf("%q is not a valid email address", text)
	}
	return nil
}

func checkInteger(value any) error {
	f, ok := ToFloat(value)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%v is not an integer", value)
	}
	return nil
}

func checkNumber(value any) error {
	f, ok := ToFloat(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%v is not a number", value)
	}
	return nil
}

func checkDatetime(value any) error {
	if _, ok := ToTime(value); !ok {
		return fmt.Errorf("%v is not a valid date", value)
	}
	return nil
}

func checkBool(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected true or false, got %T", value)
	}
	return nil
}

func checkArray(value any) error {
	if _, ok := ToSlice(value); !ok {
		return fmt.Errorf("expected a list, got %T", value)
	}
	return nil
}

func formatAny(value any) string {
	return ToString(value)
}

func formatNumber(value any) string {
	if f, ok := ToFloat(value); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ToString(value)
}

func formatDatetime(value any) string {
	if ts, ok := ToTime(value); ok {
		return ts.UTC().Format(time.RFC3339)
	}
	return ToString(value)
}

func formatBool(value any) string {
	if b, ok := value.(bool); ok {
		if b {
			return "Yes"
		}
		return "No"
	}
	return ToString(value)
}

func formatArray(value any) string {
	values, ok := ToSlice(value)
	if !ok {
		return ToString(value)
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, ToString(v))
	}
	return strings.Join(parts, ", ")
}
