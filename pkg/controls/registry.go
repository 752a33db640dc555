package controls

import (
	"sort"
	"strings"
	"sync"
)

// Built-in edit control identifiers.
const (
	ControlText     = "text"
	ControlInteger  = "integer"
	ControlNumber   = "number"
	ControlDatetime = "datetime"
	ControlToggle   = "toggle"
	ControlEmail    = "email"
	ControlSelect   = "select"
	ControlRadio    = "radio"
	ControlArray    = "array"
	ControlMedia    = "media"
)

// RadioMaxElements is the largest element list rendered as radio buttons;
// longer lists fall back to a select.
const RadioMaxElements = 3

// Subject is the slice of a field the registry needs to pick a control. It is
// kept free of the field package so both can depend on it.
type Subject struct {
	ID       string
	Type     string
	Edit     string
	Elements int
}

// Matcher decides whether a control should handle the supplied subject.
type Matcher func(subject Subject) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects edit controls for fields based on an explicit Edit value or
// registered matchers. Higher priority wins; ties fall back to registration
// order.
type Registry struct {
	mu       sync.RWMutex
	rules    []rule
	fallback string
}

// NewRegistry constructs a registry with the built-in matchers registered and
// ControlText as the fallback.
func NewRegistry() *Registry {
	reg := &Registry{fallback: ControlText}
	reg.registerBuiltins()
	return reg
}

// NewEmptyRegistry constructs a registry without matchers. Resolve only
// honours explicit controls and the fallback.
func NewEmptyRegistry(fallback string) *Registry {
	return &Registry{fallback: strings.TrimSpace(fallback)}
}

// Register adds a matcher with the provided name and priority. Later
// registrations with the same name do not replace earlier ones; both are
// evaluated.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the control for a subject. An explicit Edit wins, then the
// highest priority matcher, then the fallback. The boolean is false only when
// nothing (not even a fallback) applies.
func (r *Registry) Resolve(subject Subject) (string, bool) {
	if explicit := strings.TrimSpace(subject.Edit); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	fallback := r.fallback
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(subject) {
			return entry.name, true
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// Names lists every control name the registry can produce, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.rules)+1)
	for _, entry := range r.rules {
		seen[entry.name] = struct{}{}
	}
	if r.fallback != "" {
		seen[r.fallback] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func typeIs(kind string) Matcher {
	return func(subject Subject) bool {
		return subject.Type == kind && subject.Elements == 0
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(ControlRadio, 100, func(subject Subject) bool {
		return subject.Type != "array" && subject.Elements > 0 && subject.Elements <= RadioMaxElements
	})
	r.Register(ControlSelect, 90, func(subject Subject) bool {
		return subject.Type != "array" && subject.Elements > RadioMaxElements
	})
	r.Register(ControlArray, 80, func(subject Subject) bool {
		return subject.Type == "array"
	})
	r.Register(ControlToggle, 70, typeIs("boolean"))
	r.Register(ControlInteger, 60, typeIs("integer"))
	r.Register(ControlNumber, 60, typeIs("number"))
	r.Register(ControlDatetime, 60, typeIs("datetime"))
	r.Register(ControlEmail, 60, typeIs("email"))
	r.Register(ControlMedia, 60, typeIs("media"))
}
