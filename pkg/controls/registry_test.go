package controls

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve_ExplicitControlWins(t *testing.T) {
	reg := NewRegistry()
	subject := Subject{ID: "sticky", Type: "boolean", Edit: "checkbox"}

	if got, ok := reg.Resolve(subject); !ok || got != "checkbox" {
		t.Fatalf("expected explicit control to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name    string
		subject Subject
		expect  string
	}{
		{name: "plain text", subject: Subject{Type: "text"}, expect: ControlText},
		{name: "boolean toggle", subject: Subject{Type: "boolean"}, expect: ControlToggle},
		{name: "integer", subject: Subject{Type: "integer"}, expect: ControlInteger},
		{name: "number", subject: Subject{Type: "number"}, expect: ControlNumber},
		{name: "datetime", subject: Subject{Type: "datetime"}, expect: ControlDatetime},
		{name: "email", subject: Subject{Type: "email"}, expect: ControlEmail},
		{name: "media", subject: Subject{Type: "media"}, expect: ControlMedia},
		{name: "few elements radio", subject: Subject{Type: "text", Elements: 2}, expect: ControlRadio},
		{name: "many elements select", subject: Subject{Type: "integer", Elements: 8}, expect: ControlSelect},
		{name: "array with elements", subject: Subject{Type: "array", Elements: 8}, expect: ControlArray},
		{name: "unknown type falls back", subject: Subject{Type: "color"}, expect: ControlText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := reg.Resolve(tc.subject)
			if !ok {
				t.Fatalf("expected control for %+v", tc.subject)
			}
			if got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestRegister_PriorityAndOrder(t *testing.T) {
	reg := NewEmptyRegistry("")
	reg.Register("first", 10, func(Subject) bool { return true })
	reg.Register("second", 10, func(Subject) bool { return true })
	reg.Register("urgent", 50, func(s Subject) bool { return s.ID == "status" })

	if got, _ := reg.Resolve(Subject{ID: "title"}); got != "first" {
		t.Fatalf("expected registration order tie-break, got %q", got)
	}
	if got, _ := reg.Resolve(Subject{ID: "status"}); got != "urgent" {
		t.Fatalf("expected higher priority to win, got %q", got)
	}
}

func TestResolve_EmptyRegistryWithoutFallback(t *testing.T) {
	reg := NewEmptyRegistry("")
	if got, ok := reg.Resolve(Subject{Type: "text"}); ok {
		t.Fatalf("expected no control, got %q", got)
	}

	var nilReg *Registry
	if got, ok := nilReg.Resolve(Subject{Edit: "text"}); !ok || got != "text" {
		t.Fatalf("nil registry should still honour explicit controls, got %q", got)
	}
}

func TestNames(t *testing.T) {
	reg := NewEmptyRegistry("text")
	reg.Register("toggle", 1, func(Subject) bool { return false })
	reg.Register("toggle", 2, func(Subject) bool { return false })

	if diff := cmp.Diff([]string{"text", "toggle"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
